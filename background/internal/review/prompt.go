package review

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/codecapture/submission"
)

const systemPrompt = `You are a helpful code reviewer specializing in algorithm problems.
When analyzing code, focus on the most critical issues first.
If there are syntax errors, point those out first.
If the code is syntactically correct, analyze the logic and efficiency.
Keep responses concise and prioritized.
Format your response with numbered points for critical issues.
Include time and space complexity analysis when relevant.`

const focusPoints = `Focus on:
1. Any immediate issues that caused the submission to fail (if applicable)
2. Time and space complexity analysis
3. Potential optimizations
4. Edge cases that might not be handled
5. Code style and readability improvements`

// SystemPrompt returns the reviewer instructions.
func SystemPrompt() string { return systemPrompt }

// UserPrompt interpolates the problem, its outcome and the code.
func UserPrompt(code string, info submission.Snapshot) string {
	description := info.Description
	if strings.TrimSpace(description) == "" {
		description = "Not available"
	}
	result := "Failed"
	if info.SubmissionResult.Success {
		result = "Accepted"
	}
	errLine := ""
	if info.SubmissionResult.Error != "" {
		errLine = "Error: " + info.SubmissionResult.Error
	}

	return fmt.Sprintf(`Problem Title: %s

Problem Description: %s

Submission Result: %s
%s

Please analyze this code solution:

%s

%s`, info.Title, description, result, errLine, code, focusPoints)
}
