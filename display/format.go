package display

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	// sectionStart matches the "1. **Heading**" lines that open a review section.
	sectionStart = regexp.MustCompile(`\d+\.\s+\*\*`)
	// leadingNumber keeps a section number from becoming a list restarting at 1.
	leadingNumber = regexp.MustCompile(`^(\d+)\.(\s+\*\*)`)
)

// splitSections cuts a review at every numbered bold heading. Text before
// the first heading is its own section; blank sections are dropped.
func splitSections(text string) []string {
	var sections []string
	prev := 0
	for _, loc := range sectionStart.FindAllStringIndex(text, -1) {
		if loc[0] > prev {
			sections = append(sections, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	sections = append(sections, text[prev:])

	out := sections[:0]
	for _, sec := range sections {
		if strings.TrimSpace(sec) != "" {
			out = append(out, sec)
		}
	}
	return out
}

// renderMarkdown converts markdown to HTML and sanitizes the result.
func (s *Server) renderMarkdown(md string) template.HTML {
	var extensions blackfriday.Extensions
	extensions |= blackfriday.NoIntraEmphasis
	extensions |= blackfriday.Tables
	extensions |= blackfriday.FencedCode
	extensions |= blackfriday.Autolink
	extensions |= blackfriday.Strikethrough
	extensions |= blackfriday.SpaceHeadings
	extensions |= blackfriday.HardLineBreak

	raw := blackfriday.Run([]byte(md), blackfriday.WithExtensions(extensions))
	return template.HTML(s.policy.SanitizeBytes(raw))
}

// formatAnalysis renders a review as one HTML block per section.
func (s *Server) formatAnalysis(text string) []template.HTML {
	sections := splitSections(text)
	items := make([]template.HTML, 0, len(sections))
	for _, sec := range sections {
		sec = leadingNumber.ReplaceAllString(strings.TrimSpace(sec), `$1\.$2`)
		items = append(items, s.renderMarkdown(sec))
	}
	return items
}
