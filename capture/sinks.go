package capture

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hazyhaar/codecapture/capture/internal/sink"
	"github.com/hazyhaar/codecapture/connectivity"
	"github.com/hazyhaar/codecapture/submission"
)

// Sink is the output interface for captured snapshots.
type Sink = sink.Sink

// SnapshotFunc is called for each snapshot.
type SnapshotFunc = sink.SnapshotFunc

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewCallbackSink creates an in-process callback sink.
func NewCallbackSink(fn SnapshotFunc) Sink {
	return sink.NewCallback(fn)
}

// NewBusSink sends snapshots to the coordinator through router.
func NewBusSink(router *connectivity.Router, logger *slog.Logger) Sink {
	return sink.NewBus(router, logger)
}

// busActions are the coordinator services a capture process may call.
var busActions = []string{
	submission.ActionSave,
	submission.ActionAnalyze,
	submission.ActionGet,
	submission.ActionClear,
}

// RemoteBus returns a router whose actions are served by the coordinator
// bus at endpoint (see connectivity.HTTPHandler).
func RemoteBus(endpoint string, timeout time.Duration, logger *slog.Logger) (*connectivity.Router, error) {
	router := connectivity.New(connectivity.WithLogger(logger))
	router.RegisterTransport("http", connectivity.HTTPFactory())

	routeCfg, err := json.Marshal(map[string]int64{"timeout_ms": timeout.Milliseconds()})
	if err != nil {
		return nil, err
	}
	for _, action := range busActions {
		rt := connectivity.Route{
			Strategy: "http",
			Endpoint: connectivity.ServiceURL(endpoint, action),
			Config:   routeCfg,
		}
		if err := router.SetRoute(action, rt); err != nil {
			router.Close()
			return nil, fmt.Errorf("capture: route %s: %w", action, err)
		}
	}
	return router, nil
}
