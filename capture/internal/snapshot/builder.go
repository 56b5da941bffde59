// Package snapshot assembles a submission.Snapshot from a resolved page.
package snapshot

import (
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/codecapture/capture/internal/resolver"
	"github.com/hazyhaar/codecapture/submission"
)

// Builder reads the static problem metadata and stamps the capture time.
type Builder struct {
	res *resolver.Resolver
	md  *converter.Converter
	now func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the capture clock.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// New creates a Builder reading metadata through res.
func New(res *resolver.Resolver, opts ...Option) *Builder {
	b := &Builder{
		res: res,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		now: time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build assembles the snapshot for one capture. It has no side effects.
func (b *Builder) Build(doc *resolver.Document, code string, outcome submission.Outcome, pageURL string) submission.Snapshot {
	desc := b.res.Description(doc)
	return submission.Snapshot{
		Title:               b.res.Title(doc),
		Description:         desc.Text,
		DescriptionMarkdown: b.markdown(desc.HTML),
		Examples:            ParseExamples(desc.Text),
		UserCode:            code,
		SubmissionResult:    outcome,
		PageURL:             pageURL,
		CapturedAt:          b.now().UTC().Format(time.RFC3339),
	}
}

// markdown converts the description fragment. Failures yield "".
func (b *Builder) markdown(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	out, err := b.md.ConvertString(fragment)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
