// Package slack reads threads from and posts messages to Slack's web
// client through a logged-in browser tab, keeping the tab in the browser
// rather than handing links off to the desktop app.
package slack

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ardiustech/eng-ai-assistant/internal/browser"
	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/extract"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

const (
	ScreenshotName = "slack-thread-error.png"
	ArtifactPrefix = "slack-thread"

	unknownAuthor  = "Unknown"
	unknownTime    = "Unknown"
	noContent      = "No content"
	unknownChannel = "Unknown Channel"
)

// blockedLaunches are requests that would hand the tab to a native app.
var blockedLaunches = []string{"slack://", "msteams://", "intent://", "app-store-link"}

// guardScript keeps window.open from escaping to app-launch schemes.
const guardScript = `(() => {
  const open = window.open;
  window.open = function(url, ...rest) {
    if (typeof url === "string" && /^(slack|msteams|intent):/.test(url)) { return null; }
    return open.call(window, url, ...rest);
  };
})();`

var signInURL = []string{"signin", "login"}

// clientPaths appear in URLs of the authenticated web client.
var clientPaths = []string{"/client/", "/messages/", "/archives/"}

var redirectMarkers = []string{"Launching", "open this link in your browser"}

// Message is one message in a thread.
type Message struct {
	Index   int    `json:"index"`
	Author  string `json:"author"`
	Time    string `json:"time"`
	Content string `json:"content"`
}

// Thread is a retrieved Slack thread or channel view.
type Thread struct {
	URL          string    `json:"url"`
	Channel      string    `json:"channel"`
	MessageCount int       `json:"messageCount"`
	Messages     []Message `json:"messages"`
	RetrievedAt  time.Time `json:"retrievedAt"`
	// PageText holds the whole-page text when no message could be
	// isolated.
	PageText string `json:"pageText,omitempty"`
}

// Page is the tab surface the Slack tools need.
type Page interface {
	extract.Page
	TrySetUserAgent(ua string) bool
	TryBlockSchemes(rules browser.RouteRules) bool
	TryAddInitScript(script string) bool
	Press(key string) error
	Type(text string, delay time.Duration) error
	Close() error
}

// Options tunes the retriever.
type Options struct {
	WorkspaceURL    string
	UserAgent       string
	NavigateTimeout time.Duration
	LoadTimeout     time.Duration
	RedirectWait    time.Duration
	MarkerWait      time.Duration
	Settle          time.Duration
	Selectors       config.SlackSelectors
	ScreenshotDir   string
}

// OptionsFromConfig builds Options from the slack config section.
func OptionsFromConfig(c config.Slack, screenshotDir string) Options {
	return Options{
		WorkspaceURL:    c.WorkspaceURL,
		UserAgent:       c.UserAgent,
		NavigateTimeout: c.NavigateTimeout,
		LoadTimeout:     c.LoadTimeout,
		RedirectWait:    c.RedirectWait,
		MarkerWait:      c.MarkerWait,
		Settle:          c.Settle,
		Selectors:       c.Selectors,
		ScreenshotDir:   screenshotDir,
	}
}

// Harden makes the tab look like a desktop browser and blocks hand-offs
// to the native app. Each step is best effort.
func Harden(p Page, userAgent string) {
	log := logging.Component("slack")
	if userAgent != "" && p.TrySetUserAgent(userAgent) {
		log.Debug("user agent set")
	}
	rules := browser.RouteRules{
		Block:      blockedLaunches,
		HeaderHost: "slack.com",
		Headers: map[string]string{
			"User-Agent":         userAgent,
			"Accept":             "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Sec-Ch-Ua":          `"Chromium";v="131", "Not_A Brand";v="24"`,
			"Sec-Ch-Ua-Platform": `"macOS"`,
		},
	}
	if userAgent == "" {
		delete(rules.Headers, "User-Agent")
	}
	if p.TryBlockSchemes(rules) {
		log.Debug("app launch blocking enabled")
	}
	if p.TryAddInitScript(guardScript) {
		log.Debug("window.open guard installed")
	}
}

// Retriever reads threads through one tab.
type Retriever struct {
	page  Page
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewRetriever hardens page and returns a Retriever.
func NewRetriever(page Page, opts Options) *Retriever {
	Harden(page, opts.UserAgent)
	return &Retriever{page: page, opts: opts, sleep: browser.Sleep, now: time.Now}
}

// CheckAuth opens the workspace and reports whether the web client is
// signed in. It fails with NotAuthenticatedError otherwise.
func (r *Retriever) CheckAuth(ctx context.Context) error {
	log := logging.Component("slack")
	log.Info("checking Slack authentication", "workspace", r.opts.WorkspaceURL)
	if err := r.page.Navigate(ctx, r.opts.WorkspaceURL, r.opts.LoadTimeout); err != nil {
		return err
	}
	if err := r.sleep(ctx, r.opts.Settle); err != nil {
		return err
	}

	current := r.page.URL()
	if containsAny(current, signInURL) {
		return &errdefs.NotAuthenticatedError{Service: "Slack", URL: current}
	}

	doc, _, err := extract.Snapshot(r.page)
	if err != nil {
		return err
	}
	if sel, ok := extract.Exists(doc.Selection, r.opts.Selectors.UI); ok {
		log.Debug("workspace UI found", "selector", sel)
		return nil
	}
	if containsAny(current, clientPaths) {
		return nil
	}
	if sel, ok := extract.Exists(doc.Selection, r.opts.Selectors.SignIn); ok {
		log.Debug("sign-in form found", "selector", sel)
		return &errdefs.NotAuthenticatedError{Service: "Slack", URL: current}
	}
	if sameHost(current, r.opts.WorkspaceURL) {
		return nil
	}
	return &errdefs.NotAuthenticatedError{Service: "Slack", URL: current}
}

// Retrieve opens threadURL in the web client and extracts its messages.
// When no message element can be found the whole-page text is returned
// instead.
func (r *Retriever) Retrieve(ctx context.Context, threadURL string) (*Thread, error) {
	log := logging.Component("slack")
	if !strings.Contains(threadURL, "slack.com") {
		return nil, fmt.Errorf("not a Slack URL: %s", threadURL)
	}

	log.Info("navigating to thread", "url", threadURL)
	if err := r.page.Navigate(ctx, threadURL, r.opts.NavigateTimeout); err != nil {
		r.screenshot()
		return nil, err
	}
	if err := r.sleep(ctx, r.opts.RedirectWait); err != nil {
		return nil, err
	}

	if r.onRedirectPage() {
		if err := r.escapeRedirect(ctx, threadURL); err != nil {
			r.screenshot()
			return nil, err
		}
	}
	if containsAny(r.page.URL(), signInURL) {
		return nil, &errdefs.NotAuthenticatedError{Service: "Slack", URL: r.page.URL()}
	}

	if err := r.sleep(ctx, r.opts.Settle); err != nil {
		return nil, err
	}
	if _, err := extract.WaitForAny(ctx, r.page, r.opts.Selectors.Message, r.opts.MarkerWait, r.opts.MarkerWait); err != nil {
		r.screenshot()
		return nil, err
	}

	doc, raw, err := extract.Snapshot(r.page)
	if err != nil {
		r.screenshot()
		return nil, err
	}
	t := Parse(doc, r.opts.Selectors)
	t.URL = threadURL
	t.RetrievedAt = r.now().UTC()
	if t.MessageCount == 0 {
		log.Warn("no messages found, falling back to page text")
		t.PageText = extract.PageText(raw, r.page.URL())
	}
	log.Info("thread extracted", "channel", t.Channel, "messages", t.MessageCount)
	return t, nil
}

// onRedirectPage reports whether Slack parked the tab on its "open in the
// app" interstitial.
func (r *Retriever) onRedirectPage() bool {
	if title, _ := r.page.Title(); strings.Contains(title, "Redirecting") {
		return true
	}
	doc, _, err := extract.Snapshot(r.page)
	if err != nil {
		return false
	}
	return containsAny(doc.Find("body").Text(), redirectMarkers)
}

// escapeRedirect follows the interstitial's "use the browser" link, or
// navigates straight to the /messages/ form of the URL when there is none.
func (r *Retriever) escapeRedirect(ctx context.Context, threadURL string) error {
	log := logging.Component("slack")
	log.Info("on app redirect page, continuing in browser")

	link := r.opts.Selectors.BrowserLink
	if link != "" {
		err := r.page.Click(ctx, link, r.opts.MarkerWait)
		if err == nil {
			return r.page.WaitForLoad(ctx, r.opts.LoadTimeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug("browser link not clickable", "error", err)
	}

	direct := strings.Replace(threadURL, "/archives/", "/messages/", 1)
	log.Info("navigating to web client URL", "url", direct)
	if err := r.page.Navigate(ctx, direct, r.opts.LoadTimeout); err != nil {
		return err
	}
	return r.sleep(ctx, r.opts.RedirectWait)
}

func (r *Retriever) screenshot() {
	if path := extract.FailureScreenshot(r.page, r.opts.ScreenshotDir, ScreenshotName); path != "" {
		logging.Component("slack").Info("screenshot saved", "path", path)
	}
}

// Parse extracts the channel name and messages from a snapshot of the
// web client.
func Parse(doc *goquery.Document, sels config.SlackSelectors) *Thread {
	t := &Thread{
		Channel:  orDefault(extract.TextChain(sels.Channel...).Or(doc.Selection, ""), unknownChannel),
		Messages: []Message{},
	}

	found, _ := extract.FindFirst(doc.Selection, sels.Message)
	if found == nil {
		return t
	}

	author := extract.TextChain(sels.Author...)
	when := extract.TimeChain(sels.Time...)
	content := extract.TextChain(sels.Content...)
	found.Each(func(i int, s *goquery.Selection) {
		t.Messages = append(t.Messages, Message{
			Index:   i + 1,
			Author:  orDefault(author.Or(s, ""), unknownAuthor),
			Time:    orDefault(when.Or(s, ""), unknownTime),
			Content: orDefault(content.Or(s, ""), noContent),
		})
	})
	t.MessageCount = len(t.Messages)
	return t
}

// FormatText renders a thread as a plain-text transcript.
func FormatText(t *Thread) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Slack Thread: %s\n", t.Channel)
	fmt.Fprintf(&b, "URL: %s\n", t.URL)
	fmt.Fprintf(&b, "Retrieved: %s\n", t.RetrievedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Messages: %d\n", t.MessageCount)
	b.WriteString(strings.Repeat("═", 50) + "\n\n")
	for _, m := range t.Messages {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", m.Index, m.Author, m.Time, m.Content)
	}
	if t.PageText != "" {
		b.WriteString("Page text:\n\n")
		b.WriteString(t.PageText)
		b.WriteString("\n")
	}
	return b.String()
}

// PrintSummary writes the console summary of t.
func PrintSummary(w io.Writer, t *Thread) {
	rule := strings.Repeat("═", 50)
	fmt.Fprintln(w, "\nThread Information:")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Channel: %s\n", t.Channel)
	fmt.Fprintf(w, "Messages: %d\n", t.MessageCount)
	fmt.Fprintf(w, "Retrieved: %s\n", t.RetrievedAt.Format(time.RFC3339))
	fmt.Fprintln(w, rule)
	for _, m := range t.Messages {
		preview := m.Content
		if r := []rune(preview); len(r) > 100 {
			preview = string(r[:100]) + "..."
		}
		fmt.Fprintf(w, "\n[%d] %s - %s\n%s\n", m.Index, m.Author, m.Time, preview)
	}
	if t.PageText != "" {
		fmt.Fprintln(w, "\nNo individual messages found; page text saved instead.")
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Host != "" && strings.EqualFold(ua.Host, ub.Host)
}
