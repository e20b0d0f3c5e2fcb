// Package extract holds what the browser-driven extractors share: the page
// surface they need, auth gating by URL and title, marker waits with
// fallbacks, and selector chains over HTML snapshots.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// Page is the browser tab surface extractors drive.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	WaitForLoad(ctx context.Context, timeout time.Duration) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	URL() string
	Title() (string, error)
	Content() (string, error)
	Screenshot(path string) error
}

// Gate classifies where a navigation landed.
type Gate struct {
	Service string
	// LoginURL holds URL substrings that mean the session is signed out.
	LoginURL []string
	// DeniedTitle holds title substrings that mean the resource is
	// permission-gated.
	DeniedTitle []string
}

// Check returns a NotAuthenticatedError or AccessDeniedError when the
// page's URL or title matches the gate's patterns, and nil otherwise.
func (g Gate) Check(pageURL, title string) error {
	for _, pat := range g.LoginURL {
		if strings.Contains(pageURL, pat) {
			return &errdefs.NotAuthenticatedError{Service: g.Service, URL: pageURL}
		}
	}
	for _, pat := range g.DeniedTitle {
		if strings.Contains(title, pat) {
			return &errdefs.AccessDeniedError{Service: g.Service, URL: pageURL, Reason: title}
		}
	}
	return nil
}

// CheckPage applies the gate to p's current URL and title.
func (g Gate) CheckPage(p Page) error {
	title, _ := p.Title()
	return g.Check(p.URL(), title)
}

// WaitForAny waits for the first selector for first, then each remaining
// selector for rest, in order. It returns the selector that appeared, or
// "" when none did. Only context cancellation and non-timeout page errors
// are returned as errors.
func WaitForAny(ctx context.Context, p Page, selectors []string, first, rest time.Duration) (string, error) {
	log := logging.Component("extract")
	for i, sel := range selectors {
		timeout := rest
		if i == 0 {
			timeout = first
		}
		err := p.WaitForSelector(ctx, sel, timeout)
		if err == nil {
			log.Debug("content marker found", "selector", sel)
			return sel, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errdefs.IsTimeout(err) {
			return "", err
		}
		if i == 0 && len(selectors) > 1 {
			log.Info("primary marker not found, trying alternatives", "selector", sel)
		}
	}
	log.Warn("no content marker appeared, proceeding anyway", "tried", len(selectors))
	return "", nil
}

// Snapshot parses the page's current DOM for selector matching.
func Snapshot(p Page) (*goquery.Document, string, error) {
	raw, err := p.Content()
	if err != nil {
		return nil, "", fmt.Errorf("read page content: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("parse page content: %w", err)
	}
	return doc, raw, nil
}

// FailureScreenshot writes a full-page screenshot named name into dir and
// returns its path, or "" if it could not be taken.
func FailureScreenshot(p Page, dir, name string) string {
	if p == nil || dir == "" {
		return ""
	}
	path := filepath.Join(dir, name)
	if err := p.Screenshot(path); err != nil {
		logging.Component("extract").Warn("could not save screenshot", "path", path, "error", err)
		return ""
	}
	return path
}
