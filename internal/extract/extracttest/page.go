// Package extracttest provides a scripted in-memory page for testing
// extractors without a browser.
package extracttest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ardiustech/eng-ai-assistant/internal/browser"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
)

// Page is a fake browser tab. Selectors listed in Present appear
// immediately; every other WaitForSelector times out.
type Page struct {
	HTML      string
	PageURL   string
	PageTitle string
	Present   map[string]bool

	// Redirects maps a navigated URL to the URL the page lands on.
	Redirects   map[string]string
	NavigateErr error
	ClickErr    error
	// OnNavigate and OnClick run after the call is recorded and may
	// mutate the page.
	OnNavigate func(p *Page, url string)
	OnClick    func(p *Page, selector string)

	// Capability results for the Try* probes.
	UserAgentOK bool
	RoutesOK    bool
	InitOK      bool

	Navigations []string
	Waits       []string
	Clicks      []string
	Screenshots []string
	Keys        []string
	Viewport    [2]int
	Routes      *browser.RouteRules
	Closed      bool
}

// New returns a page showing html at url.
func New(url, title, html string, present ...string) *Page {
	p := &Page{PageURL: url, PageTitle: title, HTML: html, Present: map[string]bool{}}
	for _, sel := range present {
		p.Present[sel] = true
	}
	return p
}

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Navigations = append(p.Navigations, url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	if to, ok := p.Redirects[url]; ok {
		p.PageURL = to
	} else {
		p.PageURL = url
	}
	if p.OnNavigate != nil {
		p.OnNavigate(p, url)
	}
	return nil
}

func (p *Page) WaitForLoad(ctx context.Context, timeout time.Duration) error {
	return ctx.Err()
}

func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Waits = append(p.Waits, selector)
	if p.Present[selector] {
		return nil
	}
	return &errdefs.TimeoutError{Op: "wait for " + selector, After: timeout}
}

func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p.Clicks = append(p.Clicks, selector)
	if p.ClickErr != nil {
		return p.ClickErr
	}
	if p.OnClick != nil {
		p.OnClick(p, selector)
	}
	return nil
}

func (p *Page) URL() string { return p.PageURL }

func (p *Page) Title() (string, error) { return p.PageTitle, nil }

func (p *Page) Content() (string, error) {
	if p.Closed {
		return "", errors.New("page closed")
	}
	return p.HTML, nil
}

func (p *Page) Screenshot(path string) error {
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

func (p *Page) SetViewport(width, height int) error {
	p.Viewport = [2]int{width, height}
	return nil
}

func (p *Page) Press(key string) error {
	p.Keys = append(p.Keys, "press:"+key)
	return nil
}

func (p *Page) Type(text string, delay time.Duration) error {
	p.Keys = append(p.Keys, "type:"+text)
	return nil
}

func (p *Page) TrySetUserAgent(ua string) bool { return p.UserAgentOK }

func (p *Page) TryBlockSchemes(rules browser.RouteRules) bool {
	if p.RoutesOK {
		p.Routes = &rules
	}
	return p.RoutesOK
}

func (p *Page) TryAddInitScript(script string) bool { return p.InitOK }

func (p *Page) Close() error {
	p.Closed = true
	return nil
}

// Typed returns the concatenated text of every Type call.
func (p *Page) Typed() string {
	var b strings.Builder
	for _, k := range p.Keys {
		if t, ok := strings.CutPrefix(k, "type:"); ok {
			b.WriteString(t)
		}
	}
	return b.String()
}
