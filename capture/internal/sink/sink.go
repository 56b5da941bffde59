// Package sink defines where finished capture snapshots go: the
// coordinator over the bus, stdout, or an in-process callback.
package sink

import (
	"context"

	"github.com/hazyhaar/codecapture/submission"
)

// Sink is the output interface for captured snapshots.
type Sink interface {
	SendSnapshot(ctx context.Context, snap submission.Snapshot) error
	Close() error
}
