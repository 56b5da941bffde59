// CLAUDE:SUMMARY Bridges the watched Chrome tab and the capture state machine: injects a click/mutation hook, turns its signals into Rescan and Activate calls.
// Package observer connects a live browser tab to the submission watcher.
// An injected script reports DOM mutations and clicks on the armed submit
// control through a CDP binding; mutations trigger a debounced rescan for
// the control and clicks start a capture cycle.
package observer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/hazyhaar/codecapture/capture/internal/watcher"
)

//go:embed hook.js
var hookJS string

const bindingName = "__codecapture_binding"

// Target is the part of the watcher the observer drives.
type Target interface {
	Rescan(ctx context.Context) error
	Activate(ctx context.Context) bool
	Control() (watcher.ControlID, bool)
}

// Config for creating an Observer.
type Config struct {
	Page   *TabPage
	Target Target

	// ScanInterval and ScanAttempts drive the startup search for the
	// control, before mutation signals take over. Defaults: 500ms, 20.
	ScanInterval time.Duration
	ScanAttempts int

	DebounceWindow time.Duration
	DebounceMax    time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ScanInterval <= 0 {
		c.ScanInterval = 500 * time.Millisecond
	}
	if c.ScanAttempts <= 0 {
		c.ScanAttempts = 20
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// signal is one message sent by hook.js.
type signal struct {
	Op      string `json:"op"`
	Control string `json:"control,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Observer manages the hook for a single tab.
type Observer struct {
	cfg    Config
	page   *TabPage
	target Target
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	debouncer  *debouncer
	removeHook func() error
	wg         sync.WaitGroup
}

// New creates an Observer. Start installs it.
func New(cfg Config) *Observer {
	cfg.defaults()
	o := &Observer{
		cfg:    cfg,
		page:   cfg.Page,
		target: cfg.Target,
		logger: cfg.Logger,
	}
	o.debouncer = newDebouncer(debounceConfig{
		Window:   cfg.DebounceWindow,
		MaxDelay: cfg.DebounceMax,
	}, o.rescan)
	return o
}

// Start registers the binding, injects the hook into the current and every
// future document of the tab, and begins the startup scan.
func (o *Observer) Start(ctx context.Context) error {
	o.ctx, o.cancel = context.WithCancel(ctx)
	page := o.page.tab.Page

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		o.logger.Warn("observer: addBinding failed (may already exist)", "error", err)
	}

	wait := page.Context(o.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		o.handle(e.Payload)
	})
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		wait()
	}()

	remove, err := page.EvalOnNewDocument("(" + hookJS + ")();")
	if err != nil {
		o.cancel()
		return fmt.Errorf("observer: register hook: %w", err)
	}
	o.removeHook = remove

	if _, err := page.Context(o.ctx).Eval(hookJS); err != nil {
		o.cancel()
		return fmt.Errorf("observer: inject hook: %w", err)
	}
	o.logger.Debug("observer: hook injected", "url", o.page.URL())

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.startupScan()
	}()
	return nil
}

// Stop removes the hook and waits for the listeners to exit.
func (o *Observer) Stop() {
	o.debouncer.stop()
	if o.cancel != nil {
		o.cancel()
	}
	if o.removeHook != nil {
		if err := o.removeHook(); err != nil {
			o.logger.Debug("observer: remove hook", "error", err)
		}
	}
	o.wg.Wait()
}

// handle routes one binding payload.
func (o *Observer) handle(payload string) {
	var s signal
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		o.logger.Warn("observer: parse hook payload", "error", err)
		return
	}

	switch s.Op {
	case "ready":
		o.page.forget()
		o.debouncer.signal()
	case "mutation":
		o.debouncer.signal()
	case "click":
		current, ok := o.target.Control()
		if !ok || string(current) != s.Control {
			o.logger.Debug("observer: click on stale control", "control", s.Control)
			return
		}
		if o.target.Activate(o.ctx) {
			o.logger.Debug("observer: submit activated", "source", s.Source)
		}
	default:
		o.logger.Debug("observer: unknown hook op", "op", s.Op)
	}
}

func (o *Observer) rescan() {
	if o.ctx == nil || o.ctx.Err() != nil {
		return
	}
	if err := o.target.Rescan(o.ctx); err != nil {
		o.logger.Debug("observer: rescan", "error", err)
	}
}

// startupScan retries the control search on a fixed interval until the
// control is found or the attempts run out.
func (o *Observer) startupScan() {
	ticker := time.NewTicker(o.cfg.ScanInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		o.rescan()
		if _, ok := o.target.Control(); ok {
			return
		}
		if attempt >= o.cfg.ScanAttempts {
			o.logger.Info("observer: submit control not found yet; waiting for DOM changes",
				"attempts", attempt)
			return
		}
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
