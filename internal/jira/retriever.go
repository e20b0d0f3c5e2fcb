package jira

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ardiustech/eng-ai-assistant/internal/artifact"
	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// ArtifactPrefix names saved ticket lists.
const ArtifactPrefix = "jira-tickets"

const (
	jiraTimeLayout    = "2006-01-02T15:04:05.000-0700"
	isoLayout         = "2006-01-02T15:04:05.000Z07:00"
	displayTimeLayout = "Jan 2, 2006, 03:04 PM"
)

// Retriever lists the caller's unresolved tickets.
type Retriever struct {
	client *Client
	cfg    config.Jira

	// Location is used for the formatted dates.
	Location *time.Location
	now      func() time.Time
}

// NewRetriever returns a Retriever using client and the query settings in
// cfg.
func NewRetriever(client *Client, cfg config.Jira) *Retriever {
	return &Retriever{client: client, cfg: cfg, Location: time.Local, now: time.Now}
}

// Query returns the JQL the retriever runs.
func (r *Retriever) Query() string { return r.cfg.JQL }

// UnresolvedAssignedToMe runs the configured JQL and maps the issues to
// tickets, numbered from 1 in result order. No matches yields an empty,
// non-nil slice.
func (r *Retriever) UnresolvedAssignedToMe(ctx context.Context) ([]Ticket, error) {
	log := logging.Component("jira")
	log.Info("fetching unresolved tickets assigned to you")

	max := r.cfg.MaxResults
	if max <= 0 {
		max = 100
	}
	res, err := r.client.Search(ctx, r.cfg.JQL, max, r.cfg.Fields)
	if err != nil {
		return nil, err
	}

	tickets := make([]Ticket, 0, len(res.Issues))
	for i, issue := range res.Issues {
		tickets = append(tickets, r.ticket(i+1, issue))
	}
	log.Info("search complete", "tickets", len(tickets), "total", res.Total)
	return tickets, nil
}

func (r *Retriever) ticket(index int, issue Issue) Ticket {
	f := issue.Fields
	t := Ticket{
		Index:      index,
		Key:        issue.Key,
		Summary:    f.Summary,
		Status:     name(f.Status, ""),
		Priority:   name(f.Priority, "None"),
		IssueType:  name(f.IssueType, ""),
		Reporter:   "Unknown",
		URL:        r.client.BaseURL() + "/browse/" + issue.Key,
		Components: make([]string, 0, len(f.Components)),
		Labels:     f.Labels,
	}
	if f.Reporter != nil && f.Reporter.DisplayName != "" {
		t.Reporter = f.Reporter.DisplayName
	}
	for _, c := range f.Components {
		t.Components = append(t.Components, c.Name)
	}
	if t.Labels == nil {
		t.Labels = []string{}
	}
	t.Created, t.CreatedFormatted = r.formatTime(f.Created)
	t.Updated, t.UpdatedFormatted = r.formatTime(f.Updated)
	return t
}

// formatTime returns the UTC ISO form and a human form of a Jira
// timestamp. Unparseable values are returned as-is.
func (r *Retriever) formatTime(s string) (iso, display string) {
	t, err := time.Parse(jiraTimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	if err != nil {
		return s, s
	}
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	return t.UTC().Format(isoLayout), t.In(loc).Format(displayTimeLayout)
}

// Result wraps tickets in the saved artifact shape.
func (r *Retriever) Result(tickets []Ticket) Result {
	return Result{
		RetrievedAt:  r.now().UTC(),
		TotalTickets: len(tickets),
		Query:        r.cfg.JQL,
		Tickets:      tickets,
	}
}

// Save writes the tickets as jira-tickets-<ts>.json. Nothing is written
// when there are no tickets.
func (r *Retriever) Save(w *artifact.Writer, tickets []Ticket) (artifact.Paths, error) {
	if len(tickets) == 0 {
		return artifact.Paths{}, nil
	}
	return w.Save(ArtifactPrefix, r.Result(tickets), "")
}

// PrintTickets writes the console listing of tickets.
func PrintTickets(w io.Writer, tickets []Ticket) {
	if len(tickets) == 0 {
		fmt.Fprintln(w, "\nNo unresolved tickets assigned to you!")
		return
	}
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, "\nUnresolved Tickets Assigned to You (sorted by creation date):")
	fmt.Fprintln(w, rule)
	for _, t := range tickets {
		fmt.Fprintf(w, "\n%d. %s - %s\n", t.Index, t.Key, t.Summary)
		fmt.Fprintf(w, "   Status: %s | Priority: %s | Type: %s\n", t.Status, t.Priority, t.IssueType)
		fmt.Fprintf(w, "   Reporter: %s\n", t.Reporter)
		fmt.Fprintf(w, "   Created: %s\n", t.CreatedFormatted)
		fmt.Fprintf(w, "   Updated: %s\n", t.UpdatedFormatted)
		fmt.Fprintf(w, "   URL: %s\n", t.URL)
		if len(t.Components) > 0 {
			fmt.Fprintf(w, "   Components: %s\n", strings.Join(t.Components, ", "))
		}
		if len(t.Labels) > 0 {
			fmt.Fprintf(w, "   Labels: %s\n", strings.Join(t.Labels, ", "))
		}
	}
	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintf(w, "Total: %d unresolved ticket(s)\n", len(tickets))
}

func name(n *Named, def string) string {
	if n == nil || n.Name == "" {
		return def
	}
	return n.Name
}
