package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	r := New("Jira connection check")
	r.Pass("Configuration", "%d required values set", 3)
	r.Warn("Project key", "JIRA_PROJECT_KEY not set")
	assert.False(t, r.Failed())
	assert.NoError(t, r.Err())

	r.Fail("Connectivity", "401 Unauthorized", "Generate a new API token")
	ok, warn, failed := r.Counts()
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{ok, warn, failed})
	assert.True(t, r.Failed())
	assert.EqualError(t, r.Err(), "Jira connection check: 1 check(s) failed")
}

func TestPrintPlain(t *testing.T) {
	r := New("")
	r.Pass("Browser", "Edg/131.0")
	r.Fail("Auth", "redirected to sign-in", "Log in to Slack in the browser window.")

	var buf bytes.Buffer
	r.Print(&buf, false)
	assert.Equal(t, "✓ Browser: Edg/131.0\n"+
		"✗ Auth: redirected to sign-in\n"+
		"    Log in to Slack in the browser window.\n"+
		"\nSummary:\n  1 passed  1 errors\n", buf.String())
}
