package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/playwright-community/playwright-go"

	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// Page wraps a Playwright page opened by a Session.
type Page struct {
	mu sync.RWMutex

	id     string
	page   playwright.Page
	closed bool
}

func newPage(pwPage playwright.Page) *Page {
	p := &Page{id: newPageID(), page: pwPage}
	pwPage.OnClose(func(playwright.Page) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.closed = true
	})
	return p
}

func (p *Page) check(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return &errdefs.StateError{Msg: "page is closed"}
	}
	return ctx.Err()
}

// Navigate loads url and waits for DOMContentLoaded.
func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	timeout = boundTimeout(ctx, timeout)

	logging.Component("browser").Debug("navigate", "page", p.id, "url", url, "timeout", timeout)
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(timeout),
	})
	return errdefs.Classify("navigate to "+url, timeout, err)
}

// WaitForLoad waits until the network has been idle for a moment.
func (p *Page) WaitForLoad(ctx context.Context, timeout time.Duration) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	timeout = boundTimeout(ctx, timeout)
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: millis(timeout),
	})
	return errdefs.Classify("wait for load", timeout, err)
}

// WaitForSelector waits until selector matches a visible element.
func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	timeout = boundTimeout(ctx, timeout)
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: millis(timeout),
	})
	return errdefs.Classify("wait for "+selector, timeout, err)
}

// Click clicks the first element matching selector.
func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	timeout = boundTimeout(ctx, timeout)
	err := p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: millis(timeout),
	})
	return errdefs.Classify("click "+selector, timeout, err)
}

// URL returns the page's current URL.
func (p *Page) URL() string { return p.page.URL() }

// Title returns the document title.
func (p *Page) Title() (string, error) { return p.page.Title() }

// Content returns a snapshot of the page's serialized DOM.
func (p *Page) Content() (string, error) { return p.page.Content() }

// Press sends one key chord, such as "Shift+Enter".
func (p *Page) Press(key string) error {
	if err := p.page.Keyboard().Press(key); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

// Type types text into the focused element with delay between keys.
func (p *Page) Type(text string, delay time.Duration) error {
	opts := playwright.KeyboardTypeOptions{}
	if delay > 0 {
		opts.Delay = playwright.Float(float64(delay.Milliseconds()))
	}
	if err := p.page.Keyboard().Type(text, opts); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	return nil
}

// SetViewport resizes the page viewport.
func (p *Page) SetViewport(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	return p.page.SetViewportSize(width, height)
}

// Screenshot writes a full-page PNG to path.
func (p *Page) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// Close closes the tab. The browser keeps running.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.page.Close()
}

// TrySetUserAgent overrides the page's user agent through a CDP session.
// It reports false, after logging a warning, when the browser refuses.
func (p *Page) TrySetUserAgent(ua string) bool {
	log := logging.Component("browser")

	params, err := cdpParams(emulation.SetUserAgentOverride(ua))
	if err != nil {
		log.Warn("could not set user agent", "error", err)
		return false
	}
	sess, err := p.page.Context().NewCDPSession(p.page)
	if err != nil {
		log.Warn("could not set user agent", "error", err)
		return false
	}
	defer func() { _ = sess.Detach() }()

	auditCDP(p.id, emulation.CommandSetUserAgentOverride)
	if _, err := sess.Send(emulation.CommandSetUserAgentOverride, params); err != nil {
		log.Warn("could not set user agent", "error", err)
		return false
	}
	return true
}

// RouteRules describe request interception for one page.
type RouteRules struct {
	// Block lists URL prefixes (schemes such as "slack://") and substrings
	// (such as "app-store-link") whose requests are aborted.
	Block []string
	// HeaderHost selects requests whose URL contains it; Headers are merged
	// into those requests.
	HeaderHost string
	Headers    map[string]string
}

type routeAction int

const (
	routeContinue routeAction = iota
	routeAbort
	routeRewrite
)

func (r RouteRules) decide(url string) routeAction {
	for _, b := range r.Block {
		if strings.HasPrefix(url, b) || strings.Contains(url, b) {
			return routeAbort
		}
	}
	if r.HeaderHost != "" && len(r.Headers) > 0 && strings.Contains(url, r.HeaderHost) {
		return routeRewrite
	}
	return routeContinue
}

// TryBlockSchemes installs a request interceptor applying rules. It
// reports false, after logging a warning, when interception is unavailable.
func (p *Page) TryBlockSchemes(rules RouteRules) bool {
	log := logging.Component("browser")
	err := p.page.Route("**/*", func(route playwright.Route) {
		req := route.Request()
		switch rules.decide(req.URL()) {
		case routeAbort:
			log.Info("blocked external app launch", "url", req.URL())
			_ = route.Abort()
		case routeRewrite:
			headers := req.Headers()
			for k, v := range rules.Headers {
				headers[k] = v
			}
			_ = route.Continue(playwright.RouteContinueOptions{Headers: headers})
		default:
			_ = route.Continue()
		}
	})
	if err != nil {
		log.Warn("could not set up route blocking", "error", err)
		return false
	}
	return true
}

// TryAddInitScript registers script to run before any page script on
// every navigation. It reports false, after logging a warning, on failure.
func (p *Page) TryAddInitScript(script string) bool {
	if err := p.page.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
		logging.Component("browser").Warn("could not add init script", "error", err)
		return false
	}
	return true
}

// cdpParams converts typed cdproto params to the generic map the
// Playwright CDP session sends.
func cdpParams(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// boundTimeout shortens d to the context deadline, if that is sooner.
func boundTimeout(ctx context.Context, d time.Duration) time.Duration {
	if d <= 0 {
		d = DefaultActionTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			if left < time.Millisecond {
				left = time.Millisecond
			}
			return left
		}
	}
	return d
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
