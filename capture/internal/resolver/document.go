package resolver

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is one parsed view of the host page. It is immutable: the watcher
// parses a fresh Document on every poll tick.
type Document struct {
	root *html.Node
	dom  *goquery.Document
}

// Parse parses serialised HTML (as returned by the browser tab) into a
// Document.
func Parse(raw []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("resolver: parse HTML: %w", err)
	}
	return NewDocument(root), nil
}

// NewDocument wraps an already parsed tree.
func NewDocument(root *html.Node) *Document {
	return &Document{root: root, dom: goquery.NewDocumentFromNode(root)}
}

// Root returns the underlying node tree.
func (d *Document) Root() *html.Node { return d.root }

// Find runs a CSS query. Invalid selectors match nothing.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.dom.Find(selector)
}
