package submission

import (
	"encoding/json"
	"fmt"
)

// Actions understood by the background coordinator.
const (
	ActionSave    = "saveProblemInfo"
	ActionAnalyze = "analyzeCode"
	ActionGet     = "getProblemInfo"
	ActionClear   = "clearProblemInfo"
)

// Envelope is the part common to every message: the action selects the
// handler.
type Envelope struct {
	Action string `json:"action"`
}

// SaveRequest asks the coordinator to replace the stored snapshot.
type SaveRequest struct {
	Action string   `json:"action"`
	Data   Snapshot `json:"data"`
}

// SaveResponse acknowledges a SaveRequest or a clear.
type SaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AnalyzeRequest asks for a review of code in the context of problemInfo.
type AnalyzeRequest struct {
	Action      string   `json:"action"`
	Code        string   `json:"code"`
	ProblemInfo Snapshot `json:"problemInfo"`
}

// AnalyzeResponse carries either the review text or an error string.
type AnalyzeResponse struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GetResponse returns the stored snapshot, if any.
type GetResponse struct {
	Success     bool      `json:"success"`
	ProblemInfo *Snapshot `json:"problemInfo,omitempty"`
	LastUpdated string    `json:"lastUpdated,omitempty"`
}

// ActionOf decodes only the action field of a raw message.
func ActionOf(raw []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("submission: decode envelope: %w", err)
	}
	if env.Action == "" {
		return "", fmt.Errorf("submission: message has no action")
	}
	return env.Action, nil
}
