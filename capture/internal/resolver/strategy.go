// CLAUDE:SUMMARY Ordered extraction strategies (CSS, editor lines, XPath) with first-match short-circuit.
// Package resolver extracts the submitted code, the judged outcome and the
// problem metadata from a page Document.
//
// Every fact is resolved by a Chain: an ordered list of strategies tried in
// priority order. The first strategy producing non-blank text wins and the
// rest are not consulted. A miss is a value (ok == false), never an error,
// because "not rendered yet" is the normal state while a submission is being
// judged.
package resolver

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

// Match is a successful extraction.
type Match struct {
	Text     string // trimmed text content
	HTML     string // inner HTML of the matched element, when the strategy has one
	Strategy string // name of the strategy that produced it
}

// Strategy is one extraction attempt against a Document.
type Strategy interface {
	Name() string
	Extract(doc *Document) (Match, bool)
}

// Chain is an ordered list of strategies.
type Chain []Strategy

// Resolve returns the first non-blank match.
func (c Chain) Resolve(doc *Document) (Match, bool) {
	for _, s := range c {
		m, ok := s.Extract(doc)
		if !ok || strings.TrimSpace(m.Text) == "" {
			continue
		}
		m.Strategy = s.Name()
		return m, true
	}
	return Match{}, false
}

// CSS matches the first element for a selector (like querySelector).
type CSS struct {
	Selector string
}

func (s CSS) Name() string { return "css:" + s.Selector }

func (s CSS) Extract(doc *Document) (Match, bool) {
	sel := doc.Find(s.Selector).First()
	if sel.Length() == 0 {
		return Match{}, false
	}
	return selectionMatch(sel)
}

// CSSAny scans every element for a selector and returns the first one with
// non-blank text (like iterating querySelectorAll).
type CSSAny struct {
	Selector string
}

func (s CSSAny) Name() string { return "css-any:" + s.Selector }

func (s CSSAny) Extract(doc *Document) (Match, bool) {
	var m Match
	var found bool
	doc.Find(s.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		m, found = selectionMatch(sel)
		return !found
	})
	return m, found
}

// Lines joins the text of every line element inside a container with
// newlines. It reads virtualised code editors that render one element per
// source line.
type Lines struct {
	Container string
	Line      string
}

func (s Lines) Name() string { return "lines:" + s.Container + " " + s.Line }

func (s Lines) Extract(doc *Document) (Match, bool) {
	container := doc.Find(s.Container).First()
	if container.Length() == 0 {
		return Match{}, false
	}
	lines := container.Find(s.Line)
	if lines.Length() == 0 {
		return Match{}, false
	}
	out := make([]string, 0, lines.Length())
	lines.Each(func(_ int, line *goquery.Selection) {
		out = append(out, nbspToSpace(line.Text()))
	})
	text := strings.TrimSpace(strings.Join(out, "\n"))
	if text == "" {
		return Match{}, false
	}
	return Match{Text: text}, true
}

// XPath matches the first node for an XPath expression. Invalid
// expressions match nothing.
type XPath struct {
	Expr string
}

func (s XPath) Name() string { return "xpath:" + s.Expr }

func (s XPath) Extract(doc *Document) (Match, bool) {
	n, err := htmlquery.Query(doc.Root(), s.Expr)
	if err != nil || n == nil {
		return Match{}, false
	}
	text := strings.TrimSpace(htmlquery.InnerText(n))
	if text == "" {
		return Match{}, false
	}
	return Match{Text: text}, true
}

func selectionMatch(sel *goquery.Selection) (Match, bool) {
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return Match{}, false
	}
	inner, _ := sel.Html()
	return Match{Text: text, HTML: inner}, true
}

// nbspToSpace undoes the non-breaking spaces editors use to keep
// indentation visible.
func nbspToSpace(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}
