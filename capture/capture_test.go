package capture

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/codecapture/background"
	"github.com/hazyhaar/codecapture/capture/internal/watcher"
	"github.com/hazyhaar/codecapture/connectivity"
	"github.com/hazyhaar/codecapture/dbopen"
	"github.com/hazyhaar/codecapture/submission"
)

const judgedHTML = `<html><body>
	<div data-cy="question-title">1. Two Sum</div>
	<div data-track-load="description_content"><p>Find two numbers.</p><pre>Example 1:
Input: nums = [2,7], target = 9
Output: [0,1]</pre></div>
	<pre><code>class Solution: pass</code></pre>
	<div data-e2e-locator="submission-result"><span>Wrong Answer</span></div>
</body></html>`

type staticPage struct {
	mu       sync.Mutex
	html     string
	attached []watcher.ControlID
}

func (p *staticPage) URL() string { return "https://leetcode.com/problems/two-sum/" }

func (p *staticPage) HTML(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return []byte(p.html), nil
}

func (p *staticPage) FindControl(context.Context, string) (watcher.ControlID, bool, error) {
	return "node-1", true, nil
}

func (p *staticPage) Attach(_ context.Context, id watcher.ControlID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attached = append(p.attached, id)
	return nil
}

func (p *staticPage) Detach(context.Context, watcher.ControlID) error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.Polling.InitialDelay = time.Millisecond
	cfg.Polling.Tick = 5 * time.Millisecond
	cfg.Polling.MaxAttempts = 4
	return cfg
}

func TestPipeline_CallbackSink(t *testing.T) {
	var mu sync.Mutex
	var got []submission.Snapshot
	d := New(fastConfig(), discard(), NewCallbackSink(func(_ context.Context, s submission.Snapshot) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s)
		return nil
	}))

	page := &staticPage{html: judgedHTML}
	w := d.newWatcher(page)
	if err := w.Rescan(t.Context()); err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	c, err := w.RunCycle(t.Context())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if c.Attempts != 1 || !c.Emitted {
		t.Fatalf("cycle = %+v", c)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(got))
	}
	s := got[0]
	if s.Title != "1. Two Sum" || s.UserCode != "class Solution: pass" {
		t.Errorf("snapshot = %+v", s)
	}
	if s.SubmissionResult.Success || s.SubmissionResult.Error != "Wrong Answer" {
		t.Errorf("outcome = %+v", s.SubmissionResult)
	}
	if s.PageURL != page.URL() {
		t.Errorf("pageUrl = %q", s.PageURL)
	}
	if len(s.Examples) != 1 || s.Examples[0].Output != "Output: [0,1]" {
		t.Errorf("examples = %+v", s.Examples)
	}
}

func TestState_BeforeStart(t *testing.T) {
	d := New(fastConfig(), discard())
	if got := d.State(); got != "idle" {
		t.Fatalf("State() = %q", got)
	}
}

// TestRemoteBus_EndToEnd runs the capture pipeline against a coordinator
// reachable only over HTTP.
func TestRemoteBus_EndToEnd(t *testing.T) {
	coord, err := background.New(t.Context(), &background.Config{DBPath: dbopen.MemoryPath}, discard())
	if err != nil {
		t.Fatalf("background.New: %v", err)
	}
	defer coord.Close()

	srv := httptest.NewServer(connectivity.HTTPHandler(coord.Bus()))
	defer srv.Close()

	bus, err := RemoteBus(srv.URL, 5*time.Second, discard())
	if err != nil {
		t.Fatalf("RemoteBus: %v", err)
	}
	defer bus.Close()

	d := New(fastConfig(), discard(), NewBusSink(bus, discard()))
	w := d.newWatcher(&staticPage{html: judgedHTML})
	if err := w.Rescan(t.Context()); err != nil {
		t.Fatal(err)
	}
	if _, err := w.RunCycle(t.Context()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	raw, err := bus.Call(t.Context(), submission.ActionGet, []byte(`{"action":"getProblemInfo"}`))
	if err != nil {
		t.Fatalf("get over bus: %v", err)
	}
	var resp submission.GetResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.ProblemInfo == nil || resp.ProblemInfo.UserCode != "class Solution: pass" {
		t.Fatalf("stored = %+v", resp)
	}
	if resp.LastUpdated == "" {
		t.Error("lastUpdated not set")
	}
}

func TestRemoteBus_InvalidEndpoint(t *testing.T) {
	if _, err := RemoteBus("not a url", time.Second, discard()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRemoteBus_Routes(t *testing.T) {
	bus, err := RemoteBus("http://127.0.0.1:1/", time.Second, discard())
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	for _, action := range busActions {
		info, ok := bus.Inspect(action)
		if !ok {
			t.Fatalf("no route for %s", action)
		}
		if info.Endpoint != "http://127.0.0.1:1/bus/"+action {
			t.Errorf("%s endpoint = %q", action, info.Endpoint)
		}
	}
}
