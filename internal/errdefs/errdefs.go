// Package errdefs defines the error types surfaced by assistant commands.
//
// Every failure a command can report maps to one of these types. The
// command entry point prints the error with Hint and exits with ExitCode.
// Nothing here is retried automatically: the remediation is always a human
// action followed by running the command again.
package errdefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// NotFoundError reports a missing executable, config value, file or page
// element.
type NotFoundError struct {
	Kind string // "executable", "config", "file", "selector"
	Name string
	Hint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// NotAuthenticatedError reports a redirect to a login surface.
type NotAuthenticatedError struct {
	Service string
	URL     string
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf("not authenticated with %s (landed on %s)", e.Service, e.URL)
}

// AccessDeniedError reports a permission-gated resource.
type AccessDeniedError struct {
	Service string
	URL     string
	Reason  string
}

func (e *AccessDeniedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("access denied to %s resource %s", e.Service, e.URL)
	}
	return fmt.Sprintf("access denied to %s resource %s: %s", e.Service, e.URL, e.Reason)
}

// ConnectionError reports an unreachable debugging endpoint or a failed
// handshake.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports a navigation or wait that exceeded its bound.
type TimeoutError struct {
	Op    string
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
	}
	return fmt.Sprintf("%s timed out", e.Op)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// APIError reports a non-2xx REST response.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d) from %s: %s", e.Status, e.Endpoint, truncate(e.Body, 300))
}

// StateError reports an operation called out of order, such as creating a
// page before a connection exists.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// Classify wraps err as a TimeoutError when it is a playwright timeout or a
// context deadline, and returns it unchanged otherwise.
func Classify(op string, after time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, After: after, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Hint returns a short remediation for err, or "" when there is nothing
// more useful to say than the error itself.
func Hint(err error) string {
	var (
		nf   *NotFoundError
		na   *NotAuthenticatedError
		ad   *AccessDeniedError
		ce   *ConnectionError
		te   *TimeoutError
		api  *APIError
		stat *StateError
	)
	switch {
	case errors.As(err, &nf):
		if nf.Hint != "" {
			return nf.Hint
		}
		switch nf.Kind {
		case "executable":
			return "Install Microsoft Edge or Google Chrome, or set BROWSER_EXECUTABLE."
		case "config":
			return fmt.Sprintf("Set %s in your environment or .env file.", nf.Name)
		}
		return ""
	case errors.As(err, &na):
		return fmt.Sprintf("Log in to %s in the browser window, then run the command again.", na.Service)
	case errors.As(err, &ad):
		return "Request access to the resource, or check that the URL is correct."
	case errors.As(err, &ce):
		return "Make sure the browser is running with remote debugging enabled, or close it and let the assistant launch it."
	case errors.As(err, &te):
		return "The page did not load in time. Check your network connection and try again."
	case errors.As(err, &api):
		switch api.Status {
		case 401:
			return "Your API token or email is incorrect. Generate a new token at https://id.atlassian.com/manage-profile/security/api-tokens"
		case 403:
			return "You do not have permission to access this instance."
		}
		return "Check the base URL and your credentials."
	case errors.As(err, &stat):
		return ""
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
