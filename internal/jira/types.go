package jira

import "time"

// User is the /myself response.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	TimeZone     string `json:"timeZone"`
}

// Named is any Jira object identified by a display name (status,
// priority, issue type, component).
type Named struct {
	Name string `json:"name"`
}

// SearchResult is one page of a JQL search.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Issue is a search hit.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	Summary    string   `json:"summary"`
	Status     *Named   `json:"status"`
	Priority   *Named   `json:"priority"`
	IssueType  *Named   `json:"issuetype"`
	Reporter   *User    `json:"reporter"`
	Assignee   *User    `json:"assignee"`
	Created    string   `json:"created"`
	Updated    string   `json:"updated"`
	Components []Named  `json:"components"`
	Labels     []string `json:"labels"`
}

// Ticket is the flattened form of an issue that gets displayed and saved.
type Ticket struct {
	Index            int      `json:"index"`
	Key              string   `json:"key"`
	Summary          string   `json:"summary"`
	Status           string   `json:"status"`
	Priority         string   `json:"priority"`
	IssueType        string   `json:"issueType"`
	Reporter         string   `json:"reporter"`
	Created          string   `json:"created"`
	CreatedFormatted string   `json:"createdFormatted"`
	Updated          string   `json:"updated"`
	UpdatedFormatted string   `json:"updatedFormatted"`
	URL              string   `json:"url"`
	Components       []string `json:"components"`
	Labels           []string `json:"labels"`
}

// Result is the saved artifact.
type Result struct {
	RetrievedAt  time.Time `json:"retrievedAt"`
	TotalTickets int       `json:"totalTickets"`
	Query        string    `json:"query"`
	Tickets      []Ticket  `json:"tickets"`
}
