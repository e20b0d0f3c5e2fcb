// Package gdocs retrieves Google Docs documents through a logged-in
// browser tab.
package gdocs

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/ardiustech/eng-ai-assistant/internal/browser"
	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/extract"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

const (
	// ScreenshotName is written to the output dir when retrieval fails.
	ScreenshotName = "google-docs-error.png"
	// ArtifactPrefix names saved documents.
	ArtifactPrefix = "google-doc"

	pageBreak = "\n\n--- Page Break ---\n\n"
)

// contentMarkers are tried in order; the first is the page body of a
// rendered document.
var contentMarkers = []string{
	".kix-page-content-wrapper",
	".kix-page",
	".kix-document",
	`[role="textbox"]`,
	".docs-texteventtarget-iframe",
}

// headingSelectors and the level each selector implies when the element
// carries no level of its own.
var headingSelectors = []struct {
	sel   string
	level int
}{
	{"h1", 1}, {"h2", 2}, {"h3", 3}, {"h4", 4}, {"h5", 5}, {"h6", 6},
	{`[role="heading"]`, 1},
	{`.kix-paragraphrenderer[style*="font-size: 20pt"]`, 1},
	{`.kix-paragraphrenderer[style*="font-size: 16pt"]`, 2},
	{`.kix-paragraphrenderer[style*="font-size: 14pt"]`, 3},
}

// menuWords are editor chrome that leaks into whole-page text.
var menuWords = map[string]bool{
	"File": true, "Edit": true, "View": true, "Insert": true, "Format": true,
	"Tools": true, "Extensions": true, "Help": true, "Share": true, "Editing": true,
}

var docIDRe = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

var gate = extract.Gate{
	Service:     "Google",
	LoginURL:    []string{"accounts.google.com", "signin"},
	DeniedTitle: []string{"Request access", "You need permission"},
}

// Heading is one outline entry.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Document is a retrieved Google Doc.
type Document struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Headings    []Heading `json:"headings"`
	WordCount   int       `json:"wordCount"`
	DocumentID  string    `json:"documentId,omitempty"`
	URL         string    `json:"url"`
	RetrievedAt time.Time `json:"retrievedAt"`
}

// Page is the tab surface the retriever needs.
type Page interface {
	extract.Page
	SetViewport(width, height int) error
}

// Options tunes navigation and waits.
type Options struct {
	HomeURL         string
	AuthTimeout     time.Duration
	NavigateTimeout time.Duration
	PrimaryWait     time.Duration
	FallbackWait    time.Duration
	Settle          time.Duration
	ViewportWidth   int
	ViewportHeight  int

	// ScreenshotDir receives a diagnostic screenshot on failure; empty
	// disables it.
	ScreenshotDir string
}

// OptionsFromConfig builds Options from the docs config section.
func OptionsFromConfig(c config.Docs, screenshotDir string) Options {
	return Options{
		HomeURL:         c.HomeURL,
		AuthTimeout:     c.AuthTimeout,
		NavigateTimeout: c.NavigateTimeout,
		PrimaryWait:     c.PrimaryWait,
		FallbackWait:    c.FallbackWait,
		Settle:          c.Settle,
		ViewportWidth:   c.ViewportWidth,
		ViewportHeight:  c.ViewportHeight,
		ScreenshotDir:   screenshotDir,
	}
}

// Retriever reads documents through one tab.
type Retriever struct {
	page  Page
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewRetriever prepares page (viewport) and returns a Retriever.
func NewRetriever(page Page, opts Options) *Retriever {
	if opts.HomeURL == "" {
		opts.HomeURL = "https://docs.google.com"
	}
	if err := page.SetViewport(opts.ViewportWidth, opts.ViewportHeight); err != nil {
		logging.Component("gdocs").Warn("could not set viewport", "error", err)
	}
	return &Retriever{page: page, opts: opts, sleep: browser.Sleep, now: time.Now}
}

// ValidateURL rejects URLs that are not Google Docs URLs.
func ValidateURL(docURL string) error {
	if !strings.Contains(docURL, "docs.google.com") {
		return fmt.Errorf("invalid Google Docs URL %q (expected https://docs.google.com/document/d/...)", docURL)
	}
	return nil
}

// CheckAuth opens the Docs home page and fails with NotAuthenticatedError
// when it redirects to a Google sign-in page.
func (r *Retriever) CheckAuth(ctx context.Context) error {
	log := logging.Component("gdocs")
	log.Info("checking Google authentication")
	if err := r.page.Navigate(ctx, r.opts.HomeURL, r.opts.AuthTimeout); err != nil {
		return err
	}
	log.Debug("landed", "url", r.page.URL())
	return gate.Check(r.page.URL(), "")
}

// Account returns the signed-in account label, if the page shows one.
func (r *Retriever) Account() string {
	doc, _, err := extract.Snapshot(r.page)
	if err != nil {
		return ""
	}
	label, _ := extract.Attr(`[aria-label*="Google Account"]`, "aria-label")(doc.Selection)
	return label
}

// Retrieve loads docURL and extracts the document. On failure after the
// page was reached, a screenshot is saved for diagnosis.
func (r *Retriever) Retrieve(ctx context.Context, docURL string) (*Document, error) {
	log := logging.Component("gdocs")
	if err := ValidateURL(docURL); err != nil {
		return nil, err
	}

	log.Info("navigating to document", "url", docURL)
	if err := r.page.Navigate(ctx, docURL, r.opts.NavigateTimeout); err != nil {
		r.screenshot()
		return nil, err
	}

	if err := gate.CheckPage(r.page); err != nil {
		return nil, err
	}

	if _, err := extract.WaitForAny(ctx, r.page, contentMarkers, r.opts.PrimaryWait, r.opts.FallbackWait); err != nil {
		r.screenshot()
		return nil, err
	}
	if err := r.sleep(ctx, r.opts.Settle); err != nil {
		return nil, err
	}

	doc, raw, err := extract.Snapshot(r.page)
	if err != nil {
		r.screenshot()
		return nil, err
	}

	title, _ := r.page.Title()
	d := Parse(doc, raw, title, r.page.URL())
	d.RetrievedAt = r.now().UTC()
	log.Info("document extracted", "title", d.Title, "words", d.WordCount, "headings", len(d.Headings))
	return &d, nil
}

func (r *Retriever) screenshot() {
	if path := extract.FailureScreenshot(r.page, r.opts.ScreenshotDir, ScreenshotName); path != "" {
		logging.Component("gdocs").Info("screenshot saved", "path", path)
	}
}

// Parse extracts a Document from a snapshot of a rendered Docs page.
func Parse(doc *goquery.Document, raw, pageTitle, pageURL string) Document {
	content := extractContent(doc, raw, pageURL)
	d := Document{
		Title:     extractTitle(doc, pageTitle),
		Content:   content,
		Headings:  extractHeadings(doc, content),
		WordCount: len(strings.Fields(content)),
		URL:       pageURL,
	}
	if m := docIDRe.FindStringSubmatch(pageURL); m != nil {
		d.DocumentID = m[1]
	}
	return d
}

func extractTitle(doc *goquery.Document, pageTitle string) string {
	if v, ok := extract.Attr(".docs-title-input", "value")(doc.Selection); ok {
		return v
	}
	if pageTitle == "" {
		pageTitle = doc.Find("title").First().Text()
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(pageTitle), " - Google Docs"))
}

func extractContent(doc *goquery.Document, raw, pageURL string) string {
	var b strings.Builder
	doc.Find(".kix-page-content-wrapper").Each(func(i int, page *goquery.Selection) {
		if i > 0 {
			b.WriteString(pageBreak)
		}
		page.Find(".kix-wordhtmlgenerator-word-node").Each(func(_ int, word *goquery.Selection) {
			b.WriteString(word.Text())
		})
	})
	if text := strings.TrimSpace(b.String()); text != "" {
		return text
	}

	if text := strings.TrimSpace(doc.Find("#docs-editor").First().Text()); text != "" {
		return text
	}

	return stripMenu(extract.PageText(raw, pageURL))
}

// stripMenu drops lines made only of editor menu words.
func stripMenu(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		words := strings.Fields(line)
		menu := len(words) > 0
		for _, w := range words {
			if !menuWords[w] {
				menu = false
				break
			}
		}
		if !menu {
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func extractHeadings(doc *goquery.Document, content string) []Heading {
	var headings []Heading
	seen := map[string]bool{}
	for _, hs := range headingSelectors {
		doc.Find(hs.sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if n := utf8.RuneCountInString(text); n <= 2 || n >= 200 || seen[text] {
				return
			}
			seen[text] = true
			level := hs.level
			if v, ok := s.Attr("aria-level"); ok {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					level = n
				}
			}
			headings = append(headings, Heading{Level: level, Text: text})
		})
	}
	sort.SliceStable(headings, func(i, j int) bool {
		return position(content, headings[i].Text) < position(content, headings[j].Text)
	})
	return headings
}

// position orders headings by where they occur in content; headings not
// found in the content sort last.
func position(content, text string) int {
	if i := strings.Index(content, text); i >= 0 {
		return i
	}
	return len(content)
}

// FormatText renders the document as the plain-text artifact.
func FormatText(d *Document) string {
	var b strings.Builder
	rule := strings.Repeat("═", 50)
	fmt.Fprintf(&b, "Document: %s\n", d.Title)
	fmt.Fprintf(&b, "URL: %s\n", d.URL)
	fmt.Fprintf(&b, "Document ID: %s\n", d.DocumentID)
	fmt.Fprintf(&b, "Word Count: %d\n", d.WordCount)
	fmt.Fprintf(&b, "Retrieved: %s\n", d.RetrievedAt.Format(time.RFC3339))
	b.WriteString(rule + "\n\n")
	if len(d.Headings) > 0 {
		b.WriteString("Document Outline:\n")
		writeOutline(&b, d.Headings)
		b.WriteString("\n" + rule + "\n\n")
	}
	b.WriteString("Content:\n\n")
	b.WriteString(d.Content)
	return b.String()
}

// PrintSummary writes the console summary of d.
func PrintSummary(w io.Writer, d *Document) {
	rule := strings.Repeat("═", 50)
	fmt.Fprintln(w, "\nDocument Information:")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Title: %s\n", d.Title)
	fmt.Fprintf(w, "Document ID: %s\n", d.DocumentID)
	fmt.Fprintf(w, "Word Count: %d\n", d.WordCount)
	fmt.Fprintf(w, "Headings Found: %d\n", len(d.Headings))
	fmt.Fprintf(w, "Retrieved: %s\n", d.RetrievedAt.Format(time.RFC3339))
	fmt.Fprintln(w, rule)
	if len(d.Headings) > 0 {
		fmt.Fprintln(w, "\nDocument Outline:")
		var b strings.Builder
		writeOutline(&b, d.Headings)
		fmt.Fprint(w, b.String())
	}
}

func writeOutline(b *strings.Builder, headings []Heading) {
	for _, h := range headings {
		indent := strings.Repeat("  ", max(h.Level-1, 0))
		fmt.Fprintf(b, "%s• %s\n", indent, h.Text)
	}
}
