// Package submission defines the records exchanged between the capture
// daemon, the background coordinator and the display surface: the captured
// Snapshot and the request/response messages that carry it.
package submission

import "strings"

// UnknownTitle is stored when no title locator matches.
const UnknownTitle = "Unknown Problem"

// StatusUnknown is the resultText of the placeholder outcome.
const StatusUnknown = "Submission status unknown"

// AcceptedKeyword marks a banner text as a successful judgement.
const AcceptedKeyword = "Accepted"

// Snapshot is one captured submission: the problem it belongs to, the code
// the user submitted and the judged outcome. At most one is persisted at a
// time; a new capture replaces the previous one wholesale.
type Snapshot struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	DescriptionMarkdown string    `json:"descriptionMarkdown,omitempty"`
	Examples            []Example `json:"examples"`
	UserCode            string    `json:"userCode,omitempty"`
	SubmissionResult    Outcome   `json:"submissionResult"`
	PageURL             string    `json:"pageUrl,omitempty"`
	CapturedAt          string    `json:"capturedAt"` // RFC 3339
}

// HasCode reports whether the snapshot carries non-blank source text.
func (s *Snapshot) HasCode() bool {
	return strings.TrimSpace(s.UserCode) != ""
}

// Example is one "Example N:" block of the problem statement. Missing lines
// are empty strings.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Outcome is the judged result of a submission. An empty Error means the
// error is absent.
type Outcome struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	ResultText string `json:"resultText"`
}

// Definitive reports whether the outcome is a real judgement rather than the
// unknown-status placeholder.
func (o Outcome) Definitive() bool {
	return o.Success || o.Error != ""
}

// Unknown returns the non-definitive placeholder outcome.
func Unknown() Outcome {
	return Outcome{ResultText: StatusUnknown}
}

// Classify turns a result banner text into an outcome.
func Classify(text string) Outcome {
	text = strings.TrimSpace(text)
	if strings.Contains(text, AcceptedKeyword) {
		return Outcome{Success: true, ResultText: text}
	}
	return Outcome{Error: text, ResultText: text}
}
