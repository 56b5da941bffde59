// CLAUDE:SUMMARY Submission-capture state machine: arm on the submit control, poll the page until code and a definitive outcome appear, emit one snapshot.
// Package watcher implements the submission-capture state machine.
//
//	Idle --control found--> Armed --activation--> Polling --exit--> Done --> Armed
//
// A cycle polls the page on a fixed tick until both the submitted code and a
// definitive outcome are visible, or the attempt ceiling is reached. It then
// hands at most one snapshot to the emitter. Only one cycle runs at a time.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/codecapture/capture/internal/resolver"
	"github.com/hazyhaar/codecapture/capture/internal/snapshot"
	"github.com/hazyhaar/codecapture/idgen"
	"github.com/hazyhaar/codecapture/kit"
	"github.com/hazyhaar/codecapture/submission"
)

// ErrNotArmed is returned by RunCycle when the watcher is not Armed: either
// no control was found yet or a cycle is already running.
var ErrNotArmed = errors.New("watcher: not armed")

// ControlID identifies one instance of the submit control. A re-rendered
// control gets a new ID.
type ControlID string

// Page is the host document as seen by the watcher.
type Page interface {
	// URL returns the current page URL.
	URL() string
	// HTML serialises the current DOM.
	HTML(ctx context.Context) ([]byte, error)
	// FindControl locates the submit control. ok is false when absent.
	FindControl(ctx context.Context, selector string) (id ControlID, ok bool, err error)
	// Attach installs the activation handler on a control.
	Attach(ctx context.Context, id ControlID) error
	// Detach removes the activation handler from a control.
	Detach(ctx context.Context, id ControlID) error
}

// EmitFunc receives the snapshot of a finished cycle.
type EmitFunc func(ctx context.Context, snap submission.Snapshot) error

// Config for creating a Watcher.
type Config struct {
	InitialDelay   time.Duration // before the first tick; zero means none
	TickInterval   time.Duration // between ticks. Default: 500ms.
	MaxAttempts    int           // retry ceiling. Default: 20.
	SubmitSelector string

	Resolver *resolver.Resolver
	Builder  *snapshot.Builder
	Emit     EmitFunc
	NewID    idgen.Generator
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 500 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 20
	}
	if c.SubmitSelector == "" {
		c.SubmitSelector = resolver.DefaultSelectors().SubmitControl
	}
	if c.Resolver == nil {
		c.Resolver = resolver.New(resolver.Selectors{})
	}
	if c.Builder == nil {
		c.Builder = snapshot.New(c.Resolver)
	}
	if c.Emit == nil {
		c.Emit = func(context.Context, submission.Snapshot) error { return nil }
	}
	if c.NewID == nil {
		c.NewID = idgen.Prefixed("cyc_", idgen.Default)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Cycle reports one finished capture cycle.
type Cycle struct {
	ID       string
	Attempts int
	Emitted  bool
	Snapshot *submission.Snapshot
}

// Watcher owns the capture state for one page.
type Watcher struct {
	cfg    Config
	page   Page
	logger *slog.Logger

	state atomic.Int32

	// mu guards the attached control.
	mu       sync.Mutex
	control  ControlID
	attached bool

	inflight sync.WaitGroup
}

// New creates a Watcher in the Idle state.
func New(page Page, cfg Config) *Watcher {
	cfg.defaults()
	return &Watcher{cfg: cfg, page: page, logger: cfg.Logger}
}

// State returns the current state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

// Control returns the currently attached control, if any.
func (w *Watcher) Control() (ControlID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.control, w.attached
}

// Rescan looks for the submit control. A control not seen before replaces
// the attached one: the old handler is detached first so a stale element
// can never trigger a second cycle.
func (w *Watcher) Rescan(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id, ok, err := w.page.FindControl(ctx, w.cfg.SubmitSelector)
	if err != nil {
		return fmt.Errorf("watcher: find control: %w", err)
	}
	if !ok || (w.attached && id == w.control) {
		return nil
	}

	if w.attached {
		if err := w.page.Detach(ctx, w.control); err != nil {
			w.logger.Debug("capture: detach stale control", "control", w.control, "error", err)
		}
	}
	if err := w.page.Attach(ctx, id); err != nil {
		w.attached = false
		return fmt.Errorf("watcher: attach control: %w", err)
	}
	w.control = id
	w.attached = true

	w.state.CompareAndSwap(int32(Idle), int32(Armed))
	w.logger.Info("capture: submit control armed", "control", id, "url", w.page.URL())
	return nil
}

// Activate starts a capture cycle in the background. It returns false when
// the watcher is not Armed, in particular while a cycle is already polling.
func (w *Watcher) Activate(ctx context.Context) bool {
	if !w.state.CompareAndSwap(int32(Armed), int32(Polling)) {
		w.logger.Debug("capture: activation ignored", "state", w.State())
		return false
	}
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		c, err := w.cycle(ctx)
		if err != nil {
			w.logger.Error("capture: cycle failed", "cycle", c.ID, "attempts", c.Attempts, "error", err)
		}
	}()
	return true
}

// RunCycle runs one capture cycle synchronously.
func (w *Watcher) RunCycle(ctx context.Context) (Cycle, error) {
	if !w.state.CompareAndSwap(int32(Armed), int32(Polling)) {
		return Cycle{}, ErrNotArmed
	}
	return w.cycle(ctx)
}

// Wait blocks until the in-flight cycle, if any, has finished.
func (w *Watcher) Wait() {
	w.inflight.Wait()
}

func (w *Watcher) cycle(ctx context.Context) (Cycle, error) {
	defer func() {
		w.state.Store(int32(Done))
		w.state.Store(int32(Armed))
	}()

	c := Cycle{ID: w.cfg.NewID()}
	ctx = kit.WithCycleID(ctx, c.ID)
	log := w.logger.With("cycle", c.ID)
	log.Info("capture: submission activated")

	if err := sleepCtx(ctx, w.cfg.InitialDelay); err != nil {
		return c, err
	}

	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return c, ctx.Err()
		case <-ticker.C:
		}

		c.Attempts++
		doc, code, found, outcome := w.poll(ctx)
		log.Debug("capture: poll",
			"attempt", c.Attempts, "code", found,
			"definitive", outcome.Definitive(), "result", outcome.ResultText)

		if !(found && outcome.Definitive()) && c.Attempts < w.cfg.MaxAttempts {
			continue
		}

		if !found {
			log.Warn("capture: no code found after max attempts", "attempts", c.Attempts)
			return c, nil
		}

		snap := w.cfg.Builder.Build(doc, code, outcome, w.page.URL())
		c.Snapshot = &snap
		c.Emitted = true
		log.Info("capture: snapshot ready",
			"attempts", c.Attempts, "title", snap.Title,
			"success", outcome.Success, "definitive", outcome.Definitive())
		if err := w.cfg.Emit(ctx, snap); err != nil {
			return c, fmt.Errorf("watcher: emit: %w", err)
		}
		return c, nil
	}
}

// poll reads the page once. Read or parse failures count as a miss.
func (w *Watcher) poll(ctx context.Context) (*resolver.Document, string, bool, submission.Outcome) {
	raw, err := w.page.HTML(ctx)
	if err != nil {
		w.logger.Debug("capture: read DOM", "error", err)
		return nil, "", false, submission.Unknown()
	}
	doc, err := resolver.Parse(raw)
	if err != nil {
		w.logger.Debug("capture: parse DOM", "error", err)
		return nil, "", false, submission.Unknown()
	}
	code, found := w.cfg.Resolver.Code(doc)
	return doc, code, found, w.cfg.Resolver.Outcome(doc)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
