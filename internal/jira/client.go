// Package jira reads issues from the Jira Cloud REST API with basic
// (email and API token) authentication.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// Client communicates with one Jira site.
type Client struct {
	baseURL    string
	email      string
	token      string
	searchPath string
	myselfPath string
	http       *http.Client
}

// NewClient creates a client from the jira config section. The config is
// expected to have passed Validate.
func NewClient(c config.Jira) *Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(c.BaseURL, "/"),
		email:      c.Email,
		token:      c.Token,
		searchPath: orDefault(c.SearchPath, "/rest/api/3/search"),
		myselfPath: orDefault(c.MyselfPath, "/rest/api/3/myself"),
		http:       &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the site URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Myself returns the authenticated user.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	var u User
	if err := c.doJSON(ctx, c.myselfPath, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Search runs a JQL query and returns the first page of at most max
// issues with the given fields.
func (c *Client) Search(ctx context.Context, jql string, max int, fields []string) (*SearchResult, error) {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("maxResults", strconv.Itoa(max))
	if len(fields) > 0 {
		q.Set("fields", strings.Join(fields, ","))
	}
	logging.Component("jira").Debug("search", "jql", jql, "max", max)

	var res SearchResult
	if err := c.doJSON(ctx, c.searchPath, q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// doJSON sends an authenticated GET and decodes the JSON response into
// dest. Non-2xx responses become *errdefs.APIError; transport failures
// become *errdefs.ConnectionError.
func (c *Client) doJSON(ctx context.Context, path string, query url.Values, dest any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &errdefs.ConnectionError{Endpoint: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &errdefs.APIError{Endpoint: path, Status: resp.StatusCode, Body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
