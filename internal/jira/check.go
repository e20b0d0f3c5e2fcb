package jira

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/diag"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
)

const tokenURL = "https://id.atlassian.com/manage-profile/security/api-tokens"

// Check runs the connection stages in order (configuration, connectivity,
// user, search, unresolved query) and stops at the first failure.
func Check(ctx context.Context, cfg config.Jira) *diag.Report {
	r := diag.New("Jira connection check")

	if err := cfg.Validate(); err != nil {
		r.Fail("Configuration", err.Error(), errdefs.Hint(err))
		return r
	}
	r.Pass("Configuration", "%s as %s (token %s)", cfg.BaseURL, cfg.Email, strings.Repeat("*", min(len(cfg.Token), 12)))
	if cfg.ProjectKey == "" {
		r.Warn("Project key", "JIRA_PROJECT_KEY not set (optional)")
	}

	client := NewClient(cfg)
	user, err := client.Myself(ctx)
	if err != nil {
		r.Fail("Connectivity", err.Error(), statusHints(err)...)
		return r
	}
	r.Pass("Connectivity", "connected to %s", client.BaseURL())
	r.Pass("User", "%s <%s> account %s, time zone %s", user.DisplayName, user.EmailAddress, user.AccountID, user.TimeZone)

	all, err := client.Search(ctx, "assignee = currentUser() ORDER BY created DESC", 5, []string{"summary", "status", "assignee", "created"})
	if err != nil {
		r.Fail("Search", err.Error(), statusHints(err)...)
		return r
	}
	r.Pass("Search", "%d total issues assigned to you%s", all.Total, sample(all.Issues))

	open, err := client.Search(ctx, cfg.JQL, 10, []string{"summary", "status", "created"})
	if err != nil {
		r.Fail("Unresolved query", err.Error(), statusHints(err)...)
		return r
	}
	r.Pass("Unresolved query", "%d unresolved tickets assigned to you%s", open.Total, sample(open.Issues))
	return r
}

// statusHints maps an API failure to remediation lines. Transport
// failures are treated as status 0.
func statusHints(err error) []string {
	status := -1
	var api *errdefs.APIError
	var ce *errdefs.ConnectionError
	switch {
	case errors.As(err, &api):
		status = api.Status
	case errors.As(err, &ce):
		status = 0
	}
	switch status {
	case 401:
		return []string{"Your API token or email is incorrect.", "Generate a new API token at " + tokenURL}
	case 403:
		return []string{"You do not have permission to access this Jira instance."}
	case 0:
		return []string{"Network connectivity issue or invalid JIRA_BASE_URL."}
	}
	return nil
}

func sample(issues []Issue) string {
	var b strings.Builder
	for i, issue := range issues {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "\n      %d. %s: %s", i+1, issue.Key, issue.Fields.Summary)
	}
	return b.String()
}
