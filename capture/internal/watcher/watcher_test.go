package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/codecapture/submission"
)

const (
	pendingHTML  = `<html><body><p>Judging...</p></body></html>`
	codeOnlyHTML = `<html><body><pre><code>def f(): pass</code></pre></body></html>`
	doneHTML     = `<html><body>
		<div data-cy="question-title">Two Sum</div>
		<pre><code>def f(): pass</code></pre>
		<div data-e2e-locator="submission-result"><span>Accepted</span></div>
	</body></html>`
)

// fakePage serves HTML chosen per read and records control handling.
type fakePage struct {
	mu       sync.Mutex
	reads    int
	htmlFor  func(read int) string
	control  ControlID
	attached []ControlID
	detached []ControlID
	failRead bool
}

func (p *fakePage) URL() string { return "https://judge.example/problems/two-sum" }

func (p *fakePage) HTML(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	if p.failRead {
		return nil, errors.New("tab closed")
	}
	return []byte(p.htmlFor(p.reads)), nil
}

func (p *fakePage) FindControl(context.Context, string) (ControlID, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.control, p.control != "", nil
}

func (p *fakePage) Attach(_ context.Context, id ControlID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attached = append(p.attached, id)
	return nil
}

func (p *fakePage) Detach(_ context.Context, id ControlID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detached = append(p.detached, id)
	return nil
}

func (p *fakePage) readCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// recorder collects emitted snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []submission.Snapshot
}

func (r *recorder) emit(_ context.Context, s submission.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func newArmed(t *testing.T, page *fakePage, rec *recorder, maxAttempts int) *Watcher {
	t.Helper()
	if page.control == "" {
		page.control = "btn-1"
	}
	w := New(page, Config{
		TickInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
		Emit:         rec.emit,
	})
	if err := w.Rescan(context.Background()); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if w.State() != Armed {
		t.Fatalf("state = %v, want armed", w.State())
	}
	return w
}

func TestCycle_StopsAtFirstDefinitiveTick(t *testing.T) {
	const k = 4
	page := &fakePage{htmlFor: func(read int) string {
		if read < k {
			return pendingHTML
		}
		return doneHTML
	}}
	rec := &recorder{}
	w := newArmed(t, page, rec, 20)

	c, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if c.Attempts != k {
		t.Fatalf("attempts = %d, want %d", c.Attempts, k)
	}
	if !c.Emitted || rec.count() != 1 {
		t.Fatalf("emitted = %v, snapshots = %d, want exactly 1", c.Emitted, rec.count())
	}
	if page.readCount() != k {
		t.Fatalf("page read %d times after exit, want %d", page.readCount(), k)
	}

	snap := rec.snaps[0]
	if snap.Title != "Two Sum" || snap.UserCode != "def f(): pass" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if !snap.SubmissionResult.Success {
		t.Fatalf("outcome = %+v", snap.SubmissionResult)
	}
	if snap.PageURL != page.URL() {
		t.Fatalf("PageURL = %q", snap.PageURL)
	}
	if w.State() != Armed {
		t.Fatalf("state after cycle = %v, want armed", w.State())
	}
}

func TestCycle_CeilingKeepsCodeWithPlaceholder(t *testing.T) {
	page := &fakePage{htmlFor: func(int) string { return codeOnlyHTML }}
	rec := &recorder{}
	w := newArmed(t, page, rec, 5)

	c, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if c.Attempts != 5 {
		t.Fatalf("attempts = %d, want ceiling 5", c.Attempts)
	}
	if rec.count() != 1 {
		t.Fatalf("snapshots = %d, want 1", rec.count())
	}
	got := rec.snaps[0].SubmissionResult
	if got != submission.Unknown() {
		t.Fatalf("outcome = %+v, want placeholder", got)
	}
}

func TestCycle_NoCodeEmitsNothing(t *testing.T) {
	page := &fakePage{htmlFor: func(int) string { return pendingHTML }}
	rec := &recorder{}
	w := newArmed(t, page, rec, 3)

	c, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if c.Attempts != 3 || c.Emitted {
		t.Fatalf("cycle = %+v", c)
	}
	if rec.count() != 0 {
		t.Fatalf("snapshots = %d, want 0", rec.count())
	}
	if w.State() != Armed {
		t.Fatalf("state = %v, want armed", w.State())
	}
}

func TestCycle_ReadErrorsAreMisses(t *testing.T) {
	page := &fakePage{failRead: true, htmlFor: func(int) string { return doneHTML }}
	rec := &recorder{}
	w := newArmed(t, page, rec, 3)

	c, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if c.Attempts != 3 || rec.count() != 0 {
		t.Fatalf("cycle = %+v, snapshots = %d", c, rec.count())
	}
}

func TestCycle_EmitErrorSurfaces(t *testing.T) {
	page := &fakePage{control: "btn", htmlFor: func(int) string { return doneHTML }}
	w := New(page, Config{
		TickInterval: time.Millisecond,
		Emit: func(context.Context, submission.Snapshot) error {
			return errors.New("disk full")
		},
	})
	if err := w.Rescan(context.Background()); err != nil {
		t.Fatal(err)
	}
	c, err := w.RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected emit error")
	}
	if !c.Emitted {
		t.Fatal("snapshot should have been handed off once")
	}
}

func TestRunCycle_NotArmed(t *testing.T) {
	page := &fakePage{htmlFor: func(int) string { return doneHTML }}
	w := New(page, Config{TickInterval: time.Millisecond})
	if w.State() != Idle {
		t.Fatalf("state = %v, want idle", w.State())
	}
	if _, err := w.RunCycle(context.Background()); !errors.Is(err, ErrNotArmed) {
		t.Fatalf("err = %v, want ErrNotArmed", err)
	}
	if w.Activate(context.Background()) {
		t.Fatal("Activate from idle must be ignored")
	}
}

func TestActivate_SingleFlight(t *testing.T) {
	page := &fakePage{htmlFor: func(int) string { return pendingHTML }}
	rec := &recorder{}
	w := newArmed(t, page, rec, 50)

	if !w.Activate(context.Background()) {
		t.Fatal("first activation should start a cycle")
	}
	if w.Activate(context.Background()) {
		t.Fatal("second activation must not start a concurrent cycle")
	}
	w.Wait()

	if got := page.readCount(); got != 50 {
		t.Fatalf("reads = %d, want one cycle of 50", got)
	}
	if w.State() != Armed {
		t.Fatalf("state = %v, want armed", w.State())
	}
	if !w.Activate(context.Background()) {
		t.Fatal("watcher should accept a new activation after the cycle")
	}
	w.Wait()
}

func TestActivate_ContextCancelled(t *testing.T) {
	page := &fakePage{htmlFor: func(int) string { return pendingHTML }}
	w := New(page, Config{
		InitialDelay: time.Hour,
		TickInterval: time.Millisecond,
	})
	page.control = "btn"
	if err := w.Rescan(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := w.RunCycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if c.Attempts != 0 {
		t.Fatalf("attempts = %d", c.Attempts)
	}
	if w.State() != Armed {
		t.Fatalf("state = %v, want armed", w.State())
	}
}

func TestRescan_ReplacedControl(t *testing.T) {
	page := &fakePage{control: "btn-1", htmlFor: func(int) string { return pendingHTML }}
	w := New(page, Config{})
	ctx := context.Background()

	if err := w.Rescan(ctx); err != nil {
		t.Fatal(err)
	}
	// Same control: no re-attach.
	if err := w.Rescan(ctx); err != nil {
		t.Fatal(err)
	}
	if len(page.attached) != 1 || len(page.detached) != 0 {
		t.Fatalf("attached = %v, detached = %v", page.attached, page.detached)
	}

	// The page re-rendered the control.
	page.control = "btn-2"
	if err := w.Rescan(ctx); err != nil {
		t.Fatal(err)
	}
	if len(page.detached) != 1 || page.detached[0] != "btn-1" {
		t.Fatalf("detached = %v, want [btn-1]", page.detached)
	}
	if len(page.attached) != 2 || page.attached[1] != "btn-2" {
		t.Fatalf("attached = %v", page.attached)
	}
	if id, ok := w.Control(); !ok || id != "btn-2" {
		t.Fatalf("control = %q, %v", id, ok)
	}
	if w.State() != Armed {
		t.Fatalf("state = %v", w.State())
	}
}

func TestRescan_NoControlStaysIdle(t *testing.T) {
	page := &fakePage{htmlFor: func(int) string { return pendingHTML }}
	w := New(page, Config{})
	if err := w.Rescan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if w.State() != Idle {
		t.Fatalf("state = %v, want idle", w.State())
	}
}
