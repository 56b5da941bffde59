package display

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/codecapture/submission"
)

func (s *Server) call(ctx context.Context, action string, msg, out any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("display: marshal %s: %w", action, err)
	}
	raw, err := s.bus.Call(ctx, action, payload)
	if err != nil {
		return fmt.Errorf("display: %s: %w", action, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("display: decode %s response: %w", action, err)
	}
	return nil
}

func (s *Server) getProblem(ctx context.Context) (submission.GetResponse, error) {
	var resp submission.GetResponse
	err := s.call(ctx, submission.ActionGet, submission.Envelope{Action: submission.ActionGet}, &resp)
	return resp, err
}

func (s *Server) clearProblem(ctx context.Context) (submission.SaveResponse, error) {
	var resp submission.SaveResponse
	err := s.call(ctx, submission.ActionClear, submission.Envelope{Action: submission.ActionClear}, &resp)
	return resp, err
}

func (s *Server) analyze(ctx context.Context, info submission.Snapshot) (submission.AnalyzeResponse, error) {
	var resp submission.AnalyzeResponse
	err := s.call(ctx, submission.ActionAnalyze, submission.AnalyzeRequest{
		Action:      submission.ActionAnalyze,
		Code:        info.UserCode,
		ProblemInfo: info,
	}, &resp)
	return resp, err
}
