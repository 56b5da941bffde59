// CLAUDE:SUMMARY Background coordinator: owns the single-slot snapshot store and the review backend, serves save/analyze/get/clear over the bus and MCP.
// Package background is the privileged side of codecapture. It is the only
// component that touches persistent storage or calls the review service.
//
//	c, err := background.New(ctx, cfg, logger)
//	defer c.Close()
//	c.RegisterConnectivity(router)
//	c.RegisterMCP(mcpServer)
package background

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/codecapture/background/internal/review"
	"github.com/hazyhaar/codecapture/background/internal/store"
	"github.com/hazyhaar/codecapture/connectivity"
	"github.com/hazyhaar/codecapture/dbopen"
	"github.com/hazyhaar/codecapture/observability"
	"github.com/hazyhaar/codecapture/submission"
)

const serviceName = "background"

// Messages returned in SaveResponse.
const (
	MsgSaved   = "New submission saved successfully"
	MsgCleared = "Stored submission cleared"
)

// ErrNoCode is returned when a review is requested without code.
var ErrNoCode = errors.New("background: no code available to analyze")

// Coordinator owns the store and the reviewer.
type Coordinator struct {
	store    *store.Store
	reviewer review.Reviewer
	events   *observability.EventLogger
	bus      *connectivity.Router
	logger   *slog.Logger
	config   *Config
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithReviewer replaces the reviewer built from Config.Review.
func WithReviewer(r review.Reviewer) Option {
	return func(c *Coordinator) { c.reviewer = r }
}

// WithClock sets the time source used for lastUpdated.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New opens the database and builds the reviewer.
func New(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...Option) (*Coordinator, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	s, err := store.Open(cfg.DBPath, dbopen.WithSchema(observability.Schema))
	if err != nil {
		return nil, fmt.Errorf("background: open store: %w", err)
	}

	c := &Coordinator{
		store:  s,
		events: observability.NewEventLogger(s.DB, observability.WithLogger(logger)),
		logger: logger,
		config: cfg,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	if c.reviewer == nil {
		r, err := review.New(ctx, cfg.Review, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		c.reviewer = r
	}

	if n, err := c.events.Cleanup(ctx, cfg.EventRetentionDays); err != nil {
		logger.Warn("background: event cleanup failed", "error", err)
	} else if n > 0 {
		logger.Info("background: pruned events", "deleted", n)
	}

	c.bus = connectivity.New(connectivity.WithLogger(logger))
	c.RegisterConnectivity(c.bus)

	logger.Info("background: ready",
		"db", cfg.DBPath, "review_provider", cfg.Review.Provider, "review_model", cfg.Review.Model)
	return c, nil
}

// Close closes the database.
func (c *Coordinator) Close() error {
	c.bus.Close()
	return c.store.Close()
}

// Bus returns the coordinator's router, with every action registered as a
// local service. Mount it with connectivity.HTTPHandler for remote capture
// daemons.
func (c *Coordinator) Bus() *connectivity.Router {
	return c.bus
}

// Events returns the business event log.
func (c *Coordinator) Events() *observability.EventLogger {
	return c.events
}

// Save replaces the stored snapshot. Storage errors are returned verbatim.
func (c *Coordinator) Save(ctx context.Context, snap submission.Snapshot) (submission.SaveResponse, error) {
	if snap.Examples == nil {
		snap.Examples = []submission.Example{}
	}
	err := c.store.Replace(ctx, snap, c.now())
	c.events.LogEvent(ctx, observability.BusinessEvent{
		EventType:   observability.EventSnapshotSaved,
		ServiceName: serviceName,
		EntityType:  "snapshot",
		EntityID:    snap.Title,
		Action:      submission.ActionSave,
		Success:     err == nil,
	})
	if err != nil {
		return submission.SaveResponse{}, err
	}
	c.logger.Info("background: snapshot saved",
		"title", snap.Title, "success", snap.SubmissionResult.Success,
		"definitive", snap.SubmissionResult.Definitive())
	return submission.SaveResponse{Success: true, Message: MsgSaved}, nil
}

// Analyze requests a review. Review failures are reported in the response
// as "API Error: <message>", never as a Go error.
func (c *Coordinator) Analyze(ctx context.Context, code string, info submission.Snapshot) submission.AnalyzeResponse {
	analysis, err := c.reviewer.Review(ctx, code, info)
	details := ""
	if err != nil {
		b, _ := json.Marshal(map[string]string{"error": err.Error()})
		details = string(b)
	}
	c.events.LogEvent(ctx, observability.BusinessEvent{
		EventType:   observability.EventReviewRequested,
		ServiceName: serviceName,
		EntityType:  "snapshot",
		EntityID:    info.Title,
		Action:      submission.ActionAnalyze,
		Details:     details,
		Success:     err == nil,
	})
	if err != nil {
		c.logger.Warn("background: review failed", "title", info.Title, "error", err)
		return submission.AnalyzeResponse{Success: false, Error: "API Error: " + err.Error()}
	}
	return submission.AnalyzeResponse{Success: true, Analysis: analysis}
}

// AnalyzeStored reviews the stored snapshot's code.
func (c *Coordinator) AnalyzeStored(ctx context.Context) (submission.AnalyzeResponse, error) {
	rec, err := c.store.Get(ctx)
	if errors.Is(err, store.ErrEmpty) {
		return submission.AnalyzeResponse{}, ErrNoCode
	}
	if err != nil {
		return submission.AnalyzeResponse{}, err
	}
	if !rec.Snapshot.HasCode() {
		return submission.AnalyzeResponse{}, ErrNoCode
	}
	return c.Analyze(ctx, rec.Snapshot.UserCode, rec.Snapshot), nil
}

// Get returns the stored snapshot. An empty store is a successful response
// without problemInfo.
func (c *Coordinator) Get(ctx context.Context) (submission.GetResponse, error) {
	rec, err := c.store.Get(ctx)
	if errors.Is(err, store.ErrEmpty) {
		return submission.GetResponse{Success: true}, nil
	}
	if err != nil {
		return submission.GetResponse{}, err
	}
	return submission.GetResponse{Success: true, ProblemInfo: &rec.Snapshot, LastUpdated: rec.LastUpdated}, nil
}

// Clear empties the store.
func (c *Coordinator) Clear(ctx context.Context) (submission.SaveResponse, error) {
	err := c.store.Clear(ctx)
	c.events.LogEvent(ctx, observability.BusinessEvent{
		EventType:   observability.EventStoreCleared,
		ServiceName: serviceName,
		Action:      submission.ActionClear,
		Success:     err == nil,
	})
	if err != nil {
		return submission.SaveResponse{}, err
	}
	c.logger.Info("background: store cleared")
	return submission.SaveResponse{Success: true, Message: MsgCleared}, nil
}

// HandleMessage decodes the action of raw and dispatches it through the
// coordinator's own bus.
func (c *Coordinator) HandleMessage(ctx context.Context, raw []byte) ([]byte, error) {
	action, err := submission.ActionOf(raw)
	if err != nil {
		return nil, err
	}
	return c.bus.Call(ctx, action, raw)
}
