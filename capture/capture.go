// CLAUDE:SUMMARY Capture daemon: attaches to the judge page in Chrome, arms the submit control and ships one snapshot per submission to the sinks.
// Package capture is the page side of codecapture. It drives a real Chrome
// tab, waits for the user to submit a solution, and sends the captured
// snapshot (problem, code, verdict) to its sinks, normally the background
// coordinator.
//
//	d := capture.New(cfg, logger, capture.NewBusSink(router, logger))
//	if err := d.Start(ctx); err != nil { ... }
//	defer d.Stop()
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/codecapture/capture/internal/browser"
	"github.com/hazyhaar/codecapture/capture/internal/observer"
	"github.com/hazyhaar/codecapture/capture/internal/resolver"
	"github.com/hazyhaar/codecapture/capture/internal/sink"
	"github.com/hazyhaar/codecapture/capture/internal/snapshot"
	"github.com/hazyhaar/codecapture/capture/internal/watcher"
	"github.com/hazyhaar/codecapture/idgen"
)

// Daemon is the top-level capture orchestrator for one watched tab.
type Daemon struct {
	cfg    *Config
	mgr    *browser.Manager
	sinkR  *sink.Router
	logger *slog.Logger

	mu       sync.Mutex
	tab      *browser.Tab
	watcher  *watcher.Watcher
	observer *observer.Observer
}

// New creates a Daemon from configuration.
func New(cfg *Config, logger *slog.Logger, sinks ...Sink) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	bcfg := cfg.Browser
	bcfg.Logger = logger

	return &Daemon{
		cfg:    cfg,
		mgr:    browser.NewManager(bcfg),
		sinkR:  sink.NewRouter(logger, sinks...),
		logger: logger,
	}
}

// Start launches or attaches to Chrome, selects the tab and starts watching
// for submissions.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.mgr.Start(ctx); err != nil {
		return fmt.Errorf("capture: start browser: %w", err)
	}

	tab, err := d.openTab(ctx)
	if err != nil {
		d.mgr.Close()
		return err
	}
	d.tab = tab

	page := observer.NewTabPage(tab)
	d.watcher = d.newWatcher(page)
	d.observer = observer.New(observer.Config{
		Page:           page,
		Target:         d.watcher,
		ScanInterval:   d.cfg.Polling.ScanInterval,
		ScanAttempts:   d.cfg.Polling.ScanAttempts,
		DebounceWindow: d.cfg.Polling.DebounceWindow,
		Logger:         d.logger,
	})
	if err := d.observer.Start(ctx); err != nil {
		d.mgr.Close()
		return fmt.Errorf("capture: start observer: %w", err)
	}

	d.logger.Info("capture: watching page", "url", tab.CurrentURL(), "id", tab.PageID)
	return nil
}

// openTab prefers an already open tab matching Page.Match, so the daemon
// can join the tab the user is working in.
func (d *Daemon) openTab(ctx context.Context) (*browser.Tab, error) {
	pc := d.cfg.Page
	if pc.Match != "" {
		tab, err := browser.FindTab(d.mgr, pc.Match, pc.ID)
		if err == nil {
			return tab, nil
		}
		if pc.URL == "" {
			return nil, fmt.Errorf("capture: %w", err)
		}
		d.logger.Debug("capture: no matching tab, opening one", "match", pc.Match)
	}
	tab, err := browser.OpenTab(ctx, d.mgr, pc.URL, pc.ID)
	if err != nil {
		return nil, fmt.Errorf("capture: open tab: %w", err)
	}
	return tab, nil
}

// newWatcher builds the resolver, builder and state machine over page.
func (d *Daemon) newWatcher(page watcher.Page) *watcher.Watcher {
	res := resolver.New(d.cfg.Selectors)
	return watcher.New(page, watcher.Config{
		InitialDelay:   d.cfg.Polling.InitialDelay,
		TickInterval:   d.cfg.Polling.Tick,
		MaxAttempts:    d.cfg.Polling.MaxAttempts,
		SubmitSelector: d.cfg.Selectors.SubmitControl,
		Resolver:       res,
		Builder:        snapshot.New(res),
		Emit:           d.sinkR.SendSnapshot,
		NewID:          idgen.Prefixed("cyc_", idgen.Default),
		Logger:         d.logger,
	})
}

// State reports the watcher state, "idle" before Start.
func (d *Daemon) State() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.watcher == nil {
		return watcher.Idle.String()
	}
	return d.watcher.State().String()
}

// Stop removes the hook, waits for an in-flight cycle and releases the
// browser. A remote Chrome keeps running.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.observer != nil {
		d.observer.Stop()
		d.observer = nil
	}
	if d.watcher != nil {
		d.watcher.Wait()
	}
	if d.tab != nil && d.cfg.Browser.RemoteURL == "" {
		d.tab.Close()
	}
	d.tab = nil

	if err := d.sinkR.Close(); err != nil {
		d.logger.Warn("capture: close sinks", "error", err)
	}
	if err := d.mgr.Close(); err != nil {
		d.logger.Warn("capture: close browser", "error", err)
	}
}
