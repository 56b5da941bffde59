// CLAUDE:SUMMARY Registers the coordinator's message handlers (save, analyze, get, clear) on a connectivity Router.
package background

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/codecapture/connectivity"
	"github.com/hazyhaar/codecapture/submission"
)

// RegisterConnectivity registers one service per message action:
//
//	saveProblemInfo : replace the stored snapshot
//	analyzeCode     : review code in the context of a snapshot
//	getProblemInfo  : read the stored snapshot
//	clearProblemInfo: empty the store
func (c *Coordinator) RegisterConnectivity(router *connectivity.Router) {
	storeMW := connectivity.Chain(
		connectivity.Recovery(c.logger),
		connectivity.Timeout(c.config.StoreTimeout),
	)
	reviewMW := connectivity.Recovery(c.logger)

	router.RegisterLocal(submission.ActionSave, c.wrap(submission.ActionSave, storeMW, c.handleSave))
	router.RegisterLocal(submission.ActionAnalyze, c.wrap(submission.ActionAnalyze, reviewMW, c.handleAnalyze))
	router.RegisterLocal(submission.ActionGet, c.wrap(submission.ActionGet, storeMW, c.handleGet))
	router.RegisterLocal(submission.ActionClear, c.wrap(submission.ActionClear, storeMW, c.handleClear))
}

func (c *Coordinator) wrap(service string, mw connectivity.HandlerMiddleware, h connectivity.Handler) connectivity.Handler {
	return connectivity.Logging(c.logger, service)(mw(h))
}

func (c *Coordinator) handleSave(ctx context.Context, payload []byte) ([]byte, error) {
	var req submission.SaveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	resp, err := c.Save(ctx, req.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

func (c *Coordinator) handleAnalyze(ctx context.Context, payload []byte) ([]byte, error) {
	var req submission.AnalyzeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return json.Marshal(c.Analyze(ctx, req.Code, req.ProblemInfo))
}

func (c *Coordinator) handleGet(ctx context.Context, _ []byte) ([]byte, error) {
	resp, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

func (c *Coordinator) handleClear(ctx context.Context, _ []byte) ([]byte, error) {
	resp, err := c.Clear(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}
