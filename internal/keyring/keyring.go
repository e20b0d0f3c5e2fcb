package keyring

import (
	"errors"
	"fmt"
	"os"

	zkr "github.com/zalando/go-keyring"
)

const (
	serviceName = "eng-ai-assistant"

	// JiraTokenAccount is the keychain account holding the Atlassian API token.
	JiraTokenAccount = "jira-api-token"
)

// ErrNotFound is returned when no secret is stored for an account.
var ErrNotFound = zkr.ErrNotFound

// Get retrieves a secret from the OS keychain.
func Get(account string) (string, error) {
	v, err := zkr.Get(serviceName, account)
	if err != nil {
		if errors.Is(err, zkr.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keychain get: %w", err)
	}
	return v, nil
}

// Set stores a secret in the OS keychain.
func Set(account, secret string) error {
	return zkr.Set(serviceName, account, secret)
}

// Delete removes a secret from the OS keychain. It returns ErrNotFound
// when nothing was stored.
func Delete(account string) error {
	if err := zkr.Delete(serviceName, account); err != nil {
		if errors.Is(err, zkr.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// Disabled reports whether keychain access was switched off with
// ASSISTANT_KEYRING_DISABLED=1 (headless/CI).
func Disabled() bool {
	return os.Getenv("ASSISTANT_KEYRING_DISABLED") == "1"
}

// Available returns true if the OS keychain is functional.
// Probes the keychain with a test write/read/delete cycle.
func Available() bool {
	if Disabled() {
		return false
	}
	testService := serviceName + "-probe"
	testAccount := "probe"
	if err := zkr.Set(testService, testAccount, "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(testService, testAccount)
	return true
}

// Lookup returns the stored secret for account, or "" when the keychain is
// disabled, unavailable or empty.
func Lookup(account string) string {
	if Disabled() {
		return ""
	}
	v, err := Get(account)
	if err != nil {
		return ""
	}
	return v
}
