package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardiustech/eng-ai-assistant/internal/artifact"
	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
)

const unresolvedJQL = "assignee = currentUser() AND resolution = Unresolved ORDER BY created ASC"

const searchBody = `{
  "startAt": 0, "maxResults": 100, "total": 2,
  "issues": [
    {"id": "1", "key": "ENG-1", "fields": {
      "summary": "Fix login redirect",
      "status": {"name": "In Progress"},
      "priority": {"name": "High"},
      "issuetype": {"name": "Bug"},
      "reporter": {"displayName": "Grace"},
      "created": "2025-06-12T10:07:39.622+0000",
      "updated": "2025-06-13T08:00:00.000+0000",
      "components": [{"name": "web"}, {"name": "auth"}],
      "labels": ["p1"]
    }},
    {"id": "2", "key": "ENG-2", "fields": {
      "summary": "Write runbook",
      "status": {"name": "To Do"},
      "issuetype": {"name": "Task"},
      "created": "2025-06-14T12:30:00.000+0000",
      "updated": "2025-06-14T12:30:00.000+0000"
    }}
  ]
}`

type fakeJira struct {
	*httptest.Server
	searches []string
	status   int
	body     string
}

func newFakeJira(t *testing.T, body string) *fakeJira {
	t.Helper()
	f := &fakeJira{body: body}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, token, ok := r.BasicAuth()
		if !ok || email != "ada@example.com" || token != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errorMessages":["Client must be authenticated"]}`))
			return
		}
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/api/3/myself":
			_, _ = w.Write([]byte(`{"accountId":"a1","displayName":"Ada","emailAddress":"ada@example.com","timeZone":"UTC"}`))
		case "/rest/api/3/search":
			f.searches = append(f.searches, r.URL.Query().Get("jql"))
			_, _ = w.Write([]byte(f.body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func testConfig(baseURL string) config.Jira {
	return config.Jira{
		BaseURL:    baseURL,
		Email:      "ada@example.com",
		Token:      "secret",
		SearchPath: "/rest/api/3/search",
		MyselfPath: "/rest/api/3/myself",
		JQL:        unresolvedJQL,
		MaxResults: 100,
		Timeout:    5 * time.Second,
		Fields:     []string{"summary", "status", "priority"},
	}
}

func TestSearchSendsQuery(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"total":0,"issues":[]}`))
	}))
	defer srv.Close()

	res, err := NewClient(testConfig(srv.URL)).Search(context.Background(), unresolvedJQL, 100, []string{"summary", "status"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	require.NotNil(t, got)
	assert.Equal(t, unresolvedJQL, got.URL.Query().Get("jql"))
	assert.Equal(t, "100", got.URL.Query().Get("maxResults"))
	assert.Equal(t, "summary,status", got.URL.Query().Get("fields"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	email, token, ok := got.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "ada@example.com", email)
	assert.Equal(t, "secret", token)
}

func TestUnresolvedAssignedToMe(t *testing.T) {
	srv := newFakeJira(t, searchBody)
	r := NewRetriever(NewClient(testConfig(srv.URL)), testConfig(srv.URL))
	r.Location = time.UTC

	tickets, err := r.UnresolvedAssignedToMe(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, []string{unresolvedJQL}, srv.searches)

	first := tickets[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "ENG-1", first.Key)
	assert.Equal(t, "High", first.Priority)
	assert.Equal(t, "Bug", first.IssueType)
	assert.Equal(t, "Grace", first.Reporter)
	assert.Equal(t, "2025-06-12T10:07:39.622Z", first.Created)
	assert.Equal(t, "Jun 12, 2025, 10:07 AM", first.CreatedFormatted)
	assert.Equal(t, srv.URL+"/browse/ENG-1", first.URL)
	assert.Equal(t, []string{"web", "auth"}, first.Components)
	assert.Equal(t, []string{"p1"}, first.Labels)

	second := tickets[1]
	assert.Equal(t, 2, second.Index)
	assert.Equal(t, "None", second.Priority)
	assert.Equal(t, "Unknown", second.Reporter)
	assert.Equal(t, "Jun 14, 2025, 12:30 PM", second.CreatedFormatted)
	assert.NotNil(t, second.Components)
	assert.NotNil(t, second.Labels)
}

func TestNoTicketsWritesNothing(t *testing.T) {
	srv := newFakeJira(t, `{"startAt":0,"maxResults":100,"total":0,"issues":[]}`)
	r := NewRetriever(NewClient(testConfig(srv.URL)), testConfig(srv.URL))

	tickets, err := r.UnresolvedAssignedToMe(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := r.Save(&artifact.Writer{Dir: dir, SaveJSON: true, SaveText: true}, tickets)
	require.NoError(t, err)
	assert.Empty(t, paths.Files())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	var buf bytes.Buffer
	PrintTickets(&buf, tickets)
	assert.Contains(t, buf.String(), "No unresolved tickets")
}

func TestSaveTickets(t *testing.T) {
	srv := newFakeJira(t, searchBody)
	r := NewRetriever(NewClient(testConfig(srv.URL)), testConfig(srv.URL))
	r.now = func() time.Time { return time.UnixMilli(1749775659622) }

	tickets, err := r.UnresolvedAssignedToMe(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := r.Save(&artifact.Writer{Dir: dir, SaveJSON: true, SaveText: true, Now: r.now}, tickets)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "jira-tickets-1749775659622.json"), paths.JSON)
	assert.Empty(t, paths.Text)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	var saved Result
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, 2, saved.TotalTickets)
	assert.Equal(t, unresolvedJQL, saved.Query)
	assert.Len(t, saved.Tickets, 2)
}

func TestAPIErrors(t *testing.T) {
	srv := newFakeJira(t, searchBody)
	cfg := testConfig(srv.URL)
	cfg.Token = "wrong"

	_, err := NewClient(cfg).Myself(context.Background())
	var api *errdefs.APIError
	require.True(t, errors.As(err, &api))
	assert.Equal(t, 401, api.Status)
	assert.Contains(t, api.Body, "Client must be authenticated")
	assert.Contains(t, errdefs.Hint(err), "api-tokens")
}

func TestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(testConfig(base)).Myself(context.Background())
	var ce *errdefs.ConnectionError
	assert.True(t, errors.As(err, &ce))
}

func TestCheckAllStagesPass(t *testing.T) {
	srv := newFakeJira(t, searchBody)
	cfg := testConfig(srv.URL)
	cfg.ProjectKey = "ENG"

	report := Check(context.Background(), cfg)
	assert.False(t, report.Failed())
	ok, warn, failed := report.Counts()
	assert.Equal(t, 5, ok)
	assert.Zero(t, warn)
	assert.Zero(t, failed)
	assert.Len(t, srv.searches, 2)
}

func TestCheckStopsAtFirstFailure(t *testing.T) {
	srv := newFakeJira(t, searchBody)
	srv.status = http.StatusForbidden

	report := Check(context.Background(), testConfig(srv.URL))
	require.True(t, report.Failed())
	last := report.Results[len(report.Results)-1]
	assert.Equal(t, "Connectivity", last.Name)
	assert.Equal(t, []string{"You do not have permission to access this Jira instance."}, last.Hints)
	assert.Empty(t, srv.searches)
}

func TestCheckMissingConfig(t *testing.T) {
	cfg := testConfig("https://example.atlassian.net")
	cfg.Email = ""

	report := Check(context.Background(), cfg)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Configuration", report.Results[0].Name)
	assert.Contains(t, report.Results[0].Message, "JIRA_EMAIL")
}
