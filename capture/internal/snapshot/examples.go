package snapshot

import (
	"regexp"
	"strings"

	"github.com/hazyhaar/codecapture/submission"
)

var (
	exampleHeader = regexp.MustCompile(`Example \d+:`)
	inputLine     = regexp.MustCompile(`(?m)Input:.*$`)
	outputLine    = regexp.MustCompile(`(?m)Output:.*$`)
)

// ParseExamples splits a problem statement into its "Example N:" blocks.
// Each block runs until the next header or the end of the text; its first
// "Input:" and "Output:" lines are kept verbatim, missing lines are "".
func ParseExamples(text string) []submission.Example {
	headers := exampleHeader.FindAllStringIndex(text, -1)
	examples := make([]submission.Example, 0, len(headers))
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		block := text[h[0]:end]
		examples = append(examples, submission.Example{
			Input:  firstLine(inputLine, block),
			Output: firstLine(outputLine, block),
		})
	}
	return examples
}

// firstLine returns the first match of re in block without a CRLF remnant.
func firstLine(re *regexp.Regexp, block string) string {
	return strings.TrimSuffix(re.FindString(block), "\r")
}
