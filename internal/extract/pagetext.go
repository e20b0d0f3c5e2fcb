package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// minArticleChars is the shortest readability result accepted before
// falling back to all visible text.
const minArticleChars = 200

// PageText returns coarse whole-page text for an HTML snapshot. It prefers
// readability's main-content extraction and falls back to every visible
// text node when that yields too little, which is typical of app shells
// like Slack's.
func PageText(rawHTML, pageURL string) string {
	if u, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(rawHTML), u); err == nil {
			if text := normalizeText(article.TextContent); len(text) >= minArticleChars {
				return text
			}
		}
	}
	return VisibleText(rawHTML)
}

// skipElements are elements whose entire subtree is discarded.
var skipElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
}

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

var (
	collapseSpaceRe = regexp.MustCompile(`[ \t\x{00a0}]+`)
	multiNewlineRe  = regexp.MustCompile(`\n{3,}`)
)

// VisibleText returns the text a reader would see in rawHTML: scripts,
// styles and hidden subtrees are dropped, block elements become line
// breaks and list items get a bullet.
func VisibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var buf strings.Builder
	walkText(doc, &buf)
	return normalizeText(buf.String())
}

func walkText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		if skipElements[n.DataAtom] || attr(n, "aria-hidden") == "true" || hasAttr(n, "hidden") {
			return
		}
		if style := attr(n, "style"); style != "" && isHiddenStyle(style) {
			return
		}

		block := isBlockElement(n.DataAtom)
		if block {
			buf.WriteString("\n")
		}
		if n.DataAtom == atom.Li {
			buf.WriteString("• ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkText(c, buf)
		}
		if n.DataAtom == atom.Br {
			buf.WriteString("\n")
		}
		if block {
			buf.WriteString("\n")
		}
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkText(c, buf)
		}
	}
}

// normalizeText collapses whitespace runs per line and limits blank lines
// to one.
func normalizeText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(collapseSpaceRe.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimFunc(text, unicode.IsSpace)
}

func isHiddenStyle(style string) bool {
	for _, re := range hiddenStylePatterns {
		if re.MatchString(style) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func isBlockElement(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.P, atom.Section, atom.Article, atom.Aside,
		atom.Header, atom.Footer, atom.Nav, atom.Main, atom.Blockquote,
		atom.Pre, atom.Ul, atom.Ol, atom.Li, atom.Table, atom.Tr,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Form:
		return true
	}
	return false
}
