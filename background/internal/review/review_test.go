package review

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/codecapture/submission"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func failedInfo() submission.Snapshot {
	return submission.Snapshot{
		Title:            "Two Sum",
		Description:      "Find two numbers.",
		SubmissionResult: submission.Classify("Wrong Answer"),
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenAI(Config{Endpoint: srv.URL, APIKey: "sk-test"}, quietLogger())
}

func TestOpenAI_Success(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"1. **Bug**: off by one"}}]}`))
	})

	text, err := c.Review(context.Background(), "def f(): pass", failedInfo())
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if text != "1. **Bug**: off by one" {
		t.Fatalf("text = %q", text)
	}
	if got.Model != DefaultOpenAIModel || got.Temperature != DefaultTemperature {
		t.Fatalf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "def f(): pass") {
		t.Fatal("user message does not carry the code")
	}
}

func TestOpenAI_StructuredErrorVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := c.Review(context.Background(), "x", failedInfo())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if err.Error() != "rate limited" || apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestOpenAI_ErrorWithoutMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	})
	_, err := c.Review(context.Background(), "x", failedInfo())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "API request failed" {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenAI_UnstructuredErrorIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err := c.Review(context.Background(), "x", failedInfo())
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Status != http.StatusBadGateway {
		t.Fatalf("err = %v, want *NetworkError 502", err)
	}
}

func TestOpenAI_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAI(Config{Endpoint: url, APIKey: "k"}, quietLogger())
	_, err := c.Review(context.Background(), "x", failedInfo())
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Status != 0 {
		t.Fatalf("err = %v, want transport *NetworkError", err)
	}
}

func TestOpenAI_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	c := NewOpenAI(Config{Endpoint: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, quietLogger())
	_, err := c.Review(context.Background(), "x", failedInfo())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
}

func TestOpenAI_EmptyCompletion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	if _, err := c.Review(context.Background(), "x", failedInfo()); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenAI_NoKey(t *testing.T) {
	c := NewOpenAI(Config{Endpoint: "http://127.0.0.1:1"}, quietLogger())
	if _, err := c.Review(context.Background(), "x", failedInfo()); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v", err)
	}
}

func TestUserPrompt(t *testing.T) {
	p := UserPrompt("print(1)", failedInfo())
	for _, want := range []string{
		"Problem Title: Two Sum",
		"Problem Description: Find two numbers.",
		"Submission Result: Failed",
		"Error: Wrong Answer",
		"print(1)",
		"5. Code style and readability improvements",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	ok := submission.Snapshot{Title: "T", SubmissionResult: submission.Classify("Accepted")}
	p = UserPrompt("x", ok)
	if !strings.Contains(p, "Problem Description: Not available") || !strings.Contains(p, "Submission Result: Accepted") {
		t.Fatalf("prompt = %s", p)
	}
	if strings.Contains(p, "Error:") {
		t.Fatal("accepted submission must not carry an error line")
	}
}

func TestNew_Providers(t *testing.T) {
	ctx := context.Background()
	r, err := New(ctx, Config{APIKey: "k"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*OpenAI); !ok {
		t.Fatalf("default provider = %T", r)
	}
	if _, err := New(ctx, Config{Provider: "llama"}, nil); err == nil {
		t.Fatal("expected unknown provider error")
	}
	if _, err := New(ctx, Config{Provider: ProviderGemini}, nil); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("gemini without key: err = %v", err)
	}
}

func TestGemini_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Looks fine."}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), Config{Endpoint: srv.URL, APIKey: "k"}, quietLogger())
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	text, err := g.Review(context.Background(), "x", failedInfo())
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if text != "Looks fine." {
		t.Fatalf("text = %q", text)
	}
}
