package observer

import (
	"sync"
	"time"
)

// debounceConfig controls how mutation signals collapse into rescans.
type debounceConfig struct {
	// Window is the quiet period after the last signal. Default: 200ms.
	Window time.Duration
	// MaxDelay bounds the wait under a continuous stream of signals. Default: 1s.
	MaxDelay time.Duration
}

func (dc *debounceConfig) defaults() {
	if dc.Window <= 0 {
		dc.Window = 200 * time.Millisecond
	}
	if dc.MaxDelay < dc.Window {
		dc.MaxDelay = 5 * dc.Window
	}
}

// debouncer runs fn once per burst of signals.
type debouncer struct {
	cfg debounceConfig
	fn  func()

	mu      sync.Mutex
	timer   *time.Timer
	first   time.Time
	gen     uint64
	stopped bool
}

func newDebouncer(cfg debounceConfig, fn func()) *debouncer {
	cfg.defaults()
	return &debouncer{cfg: cfg, fn: fn}
}

// signal records one event and (re)schedules fn.
func (d *debouncer) signal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	now := time.Now()
	if d.timer == nil {
		d.first = now
	} else {
		d.timer.Stop()
	}

	delay := d.cfg.Window
	if remaining := d.cfg.MaxDelay - now.Sub(d.first); remaining < delay {
		delay = max(remaining, 0)
	}

	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(delay, func() { d.fire(gen) })
}

func (d *debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// stop cancels any pending run. Later signals are ignored.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
