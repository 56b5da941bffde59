package resolver

import "github.com/hazyhaar/codecapture/submission"

// Resolver holds the compiled chains for every fact read from the page.
type Resolver struct {
	code        Chain
	banners     Chain
	fallback    Chain
	title       Chain
	description Chain
}

// New builds a Resolver. Empty selector fields take their defaults.
func New(sel Selectors) *Resolver {
	sel = sel.WithDefaults()

	var code Chain
	for _, s := range sel.ErrorPanel {
		code = append(code, CSS{Selector: s})
	}
	code = append(code, Lines{Container: sel.EditorContainer, Line: sel.EditorLine})
	for _, s := range sel.CodeBlocks {
		code = append(code, CSS{Selector: s})
	}
	for _, x := range sel.CodeXPath {
		code = append(code, XPath{Expr: x})
	}

	return &Resolver{
		code:        code,
		banners:     cssChain(sel.Banners, false),
		fallback:    cssChain(sel.FailureFallback, true),
		title:       cssChain(sel.Title, false),
		description: cssChain(sel.Description, false),
	}
}

func cssChain(selectors []string, scanAll bool) Chain {
	c := make(Chain, 0, len(selectors))
	for _, s := range selectors {
		if scanAll {
			c = append(c, CSSAny{Selector: s})
		} else {
			c = append(c, CSS{Selector: s})
		}
	}
	return c
}

// Code returns the submitted source text, or ok == false when no strategy
// finds any yet.
func (r *Resolver) Code(doc *Document) (string, bool) {
	m, ok := r.CodeMatch(doc)
	return m.Text, ok
}

// CodeMatch is Code with the matching strategy attached.
func (r *Resolver) CodeMatch(doc *Document) (Match, bool) {
	return r.code.Resolve(doc)
}

// Outcome classifies the judged result. When nothing matches it returns the
// placeholder, which callers tell apart with Outcome.Definitive.
func (r *Resolver) Outcome(doc *Document) submission.Outcome {
	if m, ok := r.banners.Resolve(doc); ok {
		return submission.Classify(m.Text)
	}
	if m, ok := r.fallback.Resolve(doc); ok {
		return submission.Outcome{Error: m.Text, ResultText: m.Text}
	}
	return submission.Unknown()
}

// Title returns the problem title or submission.UnknownTitle.
func (r *Resolver) Title(doc *Document) string {
	if m, ok := r.title.Resolve(doc); ok {
		return m.Text
	}
	return submission.UnknownTitle
}

// Description returns the problem statement. The match carries both the
// text and the element's inner HTML; a miss is an empty Match.
func (r *Resolver) Description(doc *Document) Match {
	m, _ := r.description.Resolve(doc)
	return m
}
