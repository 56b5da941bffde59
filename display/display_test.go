package display

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/codecapture/background"
	"github.com/hazyhaar/codecapture/connectivity"
	"github.com/hazyhaar/codecapture/dbopen"
	"github.com/hazyhaar/codecapture/submission"
)

type stubReviewer struct {
	text string
	err  error
}

func (s stubReviewer) Review(context.Context, string, submission.Snapshot) (string, error) {
	return s.text, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T, r stubReviewer) (*background.Coordinator, *httptest.Server) {
	t.Helper()
	coord, err := background.New(t.Context(), &background.Config{DBPath: dbopen.MemoryPath}, discard(),
		background.WithReviewer(r))
	if err != nil {
		t.Fatalf("background.New: %v", err)
	}
	t.Cleanup(func() { coord.Close() })

	srv := httptest.NewServer(New(coord.Bus(), WithLogger(discard())).Handler())
	t.Cleanup(srv.Close)
	return coord, srv
}

func save(t *testing.T, coord *background.Coordinator, snap submission.Snapshot) {
	t.Helper()
	if _, err := coord.Save(t.Context(), snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func failed() submission.Snapshot {
	return submission.Snapshot{
		Title:            "1. Two Sum",
		UserCode:         "func twoSum() <script>alert(1)</script>",
		SubmissionResult: submission.Classify("Wrong Answer"),
		PageURL:          "https://leetcode.com/problems/two-sum/",
		CapturedAt:       "2026-03-01T12:29:00Z",
	}
}

func TestIndex_Empty(t *testing.T) {
	_, srv := setup(t, stubReviewer{})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); !strings.Contains(got, MsgNoSubmission) {
		t.Fatalf("expected empty message, got:\n%s", got)
	}
}

func TestIndex_Stored(t *testing.T) {
	coord, srv := setup(t, stubReviewer{})
	save(t, coord, failed())

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	got := body(t, resp)
	for _, want := range []string{
		"1. Two Sum",
		`<span class="error-badge">Failed</span>`,
		"<strong>Error:</strong> Wrong Answer",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		`href="https://leetcode.com/problems/two-sum/"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(got, "<script>") {
		t.Error("code must be escaped")
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}
}

func TestAnalyze_Success(t *testing.T) {
	review := "Overall fine.\n\n1. **Time Complexity**: `O(n^2)` is too slow.\n\n2. **Fix**: use a map.<img src=x onerror=alert(1)>"
	coord, srv := setup(t, stubReviewer{text: review})
	save(t, coord, failed())

	resp, err := http.PostForm(srv.URL+"/analyze", url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	got := body(t, resp)

	if !strings.Contains(got, "Analysis Results") {
		t.Fatalf("no analysis section:\n%s", got)
	}
	if n := strings.Count(got, `<div class="analysis-item">`); n != 3 {
		t.Errorf("expected 3 analysis items, got %d", n)
	}
	for _, want := range []string{"<strong>Time Complexity</strong>", "<code>O(n^2)</code>", "2. <strong>Fix</strong>"} {
		if !strings.Contains(got, want) {
			t.Errorf("analysis missing %q", want)
		}
	}
	if strings.Contains(got, "onerror") {
		t.Error("review HTML must be sanitized")
	}
}

func TestAnalyze_APIError(t *testing.T) {
	coord, srv := setup(t, stubReviewer{err: errors.New("rate limited")})
	save(t, coord, failed())

	resp, err := http.PostForm(srv.URL+"/analyze", url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); !strings.Contains(got, "Error: API Error: rate limited") {
		t.Fatalf("expected API error, got:\n%s", got)
	}
}

func TestAnalyze_NoCode(t *testing.T) {
	coord, srv := setup(t, stubReviewer{text: "unused"})

	resp, err := http.PostForm(srv.URL+"/analyze", url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); !strings.Contains(got, MsgNoCode) {
		t.Fatalf("expected no-code message, got:\n%s", got)
	}

	snap := failed()
	snap.UserCode = "  "
	save(t, coord, snap)
	resp, err = http.PostForm(srv.URL+"/analyze", url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	got := body(t, resp)
	if !strings.Contains(got, MsgNoCode) {
		t.Fatalf("blank code should not be reviewed, got:\n%s", got)
	}
}

func TestAPIProblem_GetAndDelete(t *testing.T) {
	coord, srv := setup(t, stubReviewer{})
	save(t, coord, failed())

	resp, err := http.Get(srv.URL + "/api/problem")
	if err != nil {
		t.Fatal(err)
	}
	var got submission.GetResponse
	if err := json.Unmarshal([]byte(body(t, resp)), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.ProblemInfo == nil || got.ProblemInfo.Title != "1. Two Sum" {
		t.Fatalf("get = %+v", got)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/problem", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var ack submission.SaveResponse
	if err := json.Unmarshal([]byte(body(t, resp)), &ack); err != nil {
		t.Fatal(err)
	}
	if !ack.Success || ack.Message != background.MsgCleared {
		t.Fatalf("delete = %+v", ack)
	}

	stored, err := coord.Get(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if stored.ProblemInfo != nil {
		t.Fatal("store should be empty after DELETE")
	}
}

func TestClearForm_Redirects(t *testing.T) {
	coord, srv := setup(t, stubReviewer{})
	save(t, coord, failed())

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.PostForm(srv.URL+"/clear", url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("status = %d location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestHealth(t *testing.T) {
	_, srv := setup(t, stubReviewer{})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); !strings.Contains(got, `"ok"`) {
		t.Fatalf("health = %s", got)
	}
}

func TestBusDown(t *testing.T) {
	srv := httptest.NewServer(New(connectivity.New(connectivity.WithLogger(discard())), WithLogger(discard())).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); !strings.Contains(got, "Error: ") {
		t.Fatalf("expected load error on page, got:\n%s", got)
	}

	resp, err = http.Get(srv.URL + "/api/problem")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestSplitSections(t *testing.T) {
	got := splitSections("intro\n1. **A** x\n2. **B** y\n")
	if len(got) != 3 || !strings.HasPrefix(got[1], "1. **A**") || !strings.HasPrefix(got[2], "2. **B**") {
		t.Fatalf("sections = %q", got)
	}
	if got := splitSections("   "); len(got) != 0 {
		t.Fatalf("blank text should give no sections, got %q", got)
	}
}

func TestFormatSavedOn(t *testing.T) {
	if got := formatSavedOn(""); got != "Unknown" {
		t.Errorf("empty = %q", got)
	}
	if got := formatSavedOn("garbage"); got != "garbage" {
		t.Errorf("garbage = %q", got)
	}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := formatSavedOn(ts.Format(time.RFC3339)); got != ts.Local().Format("2006-01-02 15:04:05") {
		t.Errorf("rfc3339 = %q", got)
	}
}
