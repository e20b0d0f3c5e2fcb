package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Matcher extracts a value from a selection, reporting whether it found one.
type Matcher func(s *goquery.Selection) (string, bool)

// Chain is an ordered list of matchers. The first one that matches wins.
type Chain []Matcher

// First returns the first matcher result, or "" and false.
func (c Chain) First(s *goquery.Selection) (string, bool) {
	for _, m := range c {
		if v, ok := m(s); ok {
			return v, true
		}
	}
	return "", false
}

// Or returns the first matcher result, or def when nothing matched.
func (c Chain) Or(s *goquery.Selection, def string) string {
	if v, ok := c.First(s); ok {
		return v
	}
	return def
}

// Text matches the trimmed text of the first element under selector.
// An element that exists but is empty still counts as a match.
func Text(selector string) Matcher {
	return func(s *goquery.Selection) (string, bool) {
		found := s.Find(selector).First()
		if found.Length() == 0 {
			return "", false
		}
		return strings.TrimSpace(found.Text()), true
	}
}

// Attr matches a non-empty attribute of the first element under selector.
func Attr(selector, name string) Matcher {
	return func(s *goquery.Selection) (string, bool) {
		v, ok := s.Find(selector).First().Attr(name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
}

// TextChain builds a Chain of Text matchers, one per selector.
func TextChain(selectors ...string) Chain {
	c := make(Chain, 0, len(selectors))
	for _, sel := range selectors {
		c = append(c, Text(sel))
	}
	return c
}

// TimeChain builds a Chain that, per selector, prefers the element's
// datetime attribute and falls back to its text.
func TimeChain(selectors ...string) Chain {
	c := make(Chain, 0, 2*len(selectors))
	for _, sel := range selectors {
		c = append(c, Attr(sel, "datetime"), Text(sel))
	}
	return c
}

// FindFirst returns the matches of the first selector that matches
// anything under s, with the selector used. It returns nil when nothing
// matches.
func FindFirst(s *goquery.Selection, selectors []string) (*goquery.Selection, string) {
	for _, sel := range selectors {
		if found := s.Find(sel); found.Length() > 0 {
			return found, sel
		}
	}
	return nil, ""
}

// Exists reports whether any selector matches under s, and which.
func Exists(s *goquery.Selection, selectors []string) (string, bool) {
	found, sel := FindFirst(s, selectors)
	return sel, found != nil
}
