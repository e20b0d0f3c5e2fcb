// Package defaults resolves the assistant's per-user directories.
//
// Platform paths:
//
//	macOS:   ~/Library/Application Support/EngAIAssistant/
//	Windows: %AppData%\EngAIAssistant\
//	Linux:   ~/.config/eng-ai-assistant/
//
// Override with ASSISTANT_DATA_DIR environment variable.
package defaults

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the platform-appropriate data directory.
// Set ASSISTANT_DATA_DIR to override.
func DataDir() (string, error) {
	if dir := os.Getenv("ASSISTANT_DATA_DIR"); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}

	// Linux: lowercase per XDG convention
	if runtime.GOOS == "linux" {
		return filepath.Join(configDir, "eng-ai-assistant"), nil
	}
	return filepath.Join(configDir, "EngAIAssistant"), nil
}

// ProfileDir is the isolated browser profile used when the assistant
// launches the browser itself. It never points at the user's real profile.
func ProfileDir() string {
	if dir, err := DataDir(); err == nil {
		return filepath.Join(dir, "browser-profile")
	}
	return filepath.Join(os.TempDir(), "edge-remote-debug")
}

// OutputDir is where retrieved artifacts are written when no directory is
// configured.
func OutputDir() string {
	if dir, err := DataDir(); err == nil {
		return filepath.Join(dir, "output")
	}
	return "output"
}

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
