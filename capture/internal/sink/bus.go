// CLAUDE:SUMMARY Delivers snapshots to the coordinator as saveProblemInfo messages over the connectivity bus, local or remote.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/codecapture/connectivity"
	"github.com/hazyhaar/codecapture/kit"
	"github.com/hazyhaar/codecapture/submission"
)

// Bus sends each snapshot as a saveProblemInfo message. Whether the
// coordinator runs in-process or behind HTTP depends only on the router's
// routes.
type Bus struct {
	router *connectivity.Router
	logger *slog.Logger
}

// NewBus creates a Bus sink over router.
func NewBus(router *connectivity.Router, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{router: router, logger: logger}
}

func (b *Bus) SendSnapshot(ctx context.Context, snap submission.Snapshot) error {
	payload, err := json.Marshal(submission.SaveRequest{Action: submission.ActionSave, Data: snap})
	if err != nil {
		return fmt.Errorf("sink: marshal save request: %w", err)
	}

	raw, err := b.router.Call(ctx, submission.ActionSave, payload)
	if err != nil {
		return fmt.Errorf("sink: %s: %w", submission.ActionSave, err)
	}

	var resp submission.SaveResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("sink: decode save response: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("sink: save rejected: %s", resp.Message)
	}
	b.logger.Info("capture: snapshot sent to coordinator",
		"cycle", kit.GetCycleID(ctx), "message", resp.Message, "title", snap.Title)
	return nil
}

// Close does not close the router; its owner does.
func (b *Bus) Close() error { return nil }
