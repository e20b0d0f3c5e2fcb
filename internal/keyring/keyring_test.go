package keyring

import (
	"testing"

	zkr "github.com/zalando/go-keyring"
)

func TestRoundTripWithMockProvider(t *testing.T) {
	zkr.MockInit()
	t.Setenv("ASSISTANT_KEYRING_DISABLED", "")

	if got := Lookup(JiraTokenAccount); got != "" {
		t.Fatalf("expected empty lookup, got %q", got)
	}
	if _, err := Get(JiraTokenAccount); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := Set(JiraTokenAccount, "tok-123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := Lookup(JiraTokenAccount); got != "tok-123" {
		t.Errorf("lookup = %q, want tok-123", got)
	}
	if !Available() {
		t.Error("mock keychain should be available")
	}
	if err := Delete(JiraTokenAccount); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestDisabled(t *testing.T) {
	zkr.MockInit()
	if err := Set(JiraTokenAccount, "tok"); err != nil {
		t.Fatalf("set: %v", err)
	}
	t.Setenv("ASSISTANT_KEYRING_DISABLED", "1")
	if Available() {
		t.Error("expected unavailable when disabled")
	}
	if got := Lookup(JiraTokenAccount); got != "" {
		t.Errorf("lookup should be empty when disabled, got %q", got)
	}
}

func TestDeleteMissing(t *testing.T) {
	zkr.MockInit()
	t.Setenv("ASSISTANT_KEYRING_DISABLED", "")

	if err := Delete(JiraTokenAccount); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
