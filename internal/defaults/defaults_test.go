package defaults

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataDirOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ASSISTANT_DATA_DIR", tmpDir)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if dir != tmpDir {
		t.Errorf("Expected %s, got %s", tmpDir, dir)
	}
	if got := ProfileDir(); got != filepath.Join(tmpDir, "browser-profile") {
		t.Errorf("ProfileDir = %s", got)
	}
	if got := OutputDir(); got != filepath.Join(tmpDir, "output") {
		t.Errorf("OutputDir = %s", got)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s", dir)
	}
	// Idempotent
	if err := EnsureDir(dir); err != nil {
		t.Errorf("second EnsureDir failed: %v", err)
	}
}
