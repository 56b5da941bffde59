// CLAUDE:SUMMARY Display surface: local web page showing the stored submission and requesting a review through the coordinator bus.
// Package display is the user-facing surface of codecapture. It renders the
// stored submission, asks the coordinator for a review on demand, and lets
// the user clear the store. Every read and write goes through the
// coordinator's bus messages, so the server works the same against an
// in-process or a remote coordinator.
package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/codecapture/shield"
)

// Caller sends one bus message. *connectivity.Router implements it.
type Caller interface {
	Call(ctx context.Context, service string, payload []byte) ([]byte, error)
}

// Server serves the display pages.
type Server struct {
	bus    Caller
	logger *slog.Logger
	policy *bluemonday.Policy
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the time source used for the page footer.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server talking to the coordinator through bus.
func New(bus Caller, opts ...Option) *Server {
	s := &Server{
		bus:    bus,
		logger: slog.Default(),
		policy: bluemonday.UGCPolicy(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routes:
//
//	GET    /             stored submission
//	POST   /analyze      review of the stored code
//	POST   /clear        clear, then back to /
//	GET    /api/problem  stored submission as JSON
//	DELETE /api/problem  clear the store
//	GET    /health
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(s.logger) {
		r.Use(mw)
	}

	r.Get("/", s.handleIndex)
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/clear", s.handleClearForm)
	r.Get("/api/problem", s.handleGetJSON)
	r.Delete("/api/problem", s.handleClearJSON)
	r.Get("/health", s.handleHealth)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("display: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("display: serving", "addr", "http://"+ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("display: serve: %w", err)
	}
	return nil
}
