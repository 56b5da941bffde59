// CLAUDE:SUMMARY Message bus between the capture side and the coordinator: local in-process dispatch by default, HTTP when a route says so.
// Package connectivity carries the extension-style messages between the
// capture daemon and the background coordinator.
//
// Each message action is a service. The coordinator registers a local
// handler per action; a capture daemon running in another process routes
// the same actions over HTTP instead. Callers never know which one served
// them:
//
//	router := connectivity.New()
//	router.RegisterTransport("http", connectivity.HTTPFactory())
//	router.SetRoute("saveProblemInfo", connectivity.Route{Strategy: "http", Endpoint: url})
//	resp, err := router.Call(ctx, "saveProblemInfo", payload)
package connectivity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Handler is a transport-agnostic service function: JSON in, JSON out.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// TransportFactory builds a Handler for a remote endpoint. The close
// function, which may be nil, runs when the route is replaced or removed.
type TransportFactory func(endpoint string, config json.RawMessage) (handler Handler, close func(), err error)

// Route sends a service somewhere other than its local handler.
// Strategy "local" uses the local handler, "noop" drops calls, any other
// value names a registered transport.
type Route struct {
	Strategy string          `json:"strategy" yaml:"strategy"`
	Endpoint string          `json:"endpoint,omitempty" yaml:"endpoint"`
	Config   json.RawMessage `json:"config,omitempty" yaml:"-"`
}

const (
	StrategyLocal = "local"
	StrategyNoop  = "noop"
)

type remoteEntry struct {
	handler Handler
	close   func()
}

// Router dispatches service calls. Safe for concurrent use.
type Router struct {
	mu            sync.RWMutex
	localHandlers map[string]Handler
	remoteEntries map[string]remoteEntry
	routes        map[string]Route
	factories     map[string]TransportFactory
	logger        *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New creates a Router with no handlers and no routes.
func New(opts ...Option) *Router {
	r := &Router{
		localHandlers: make(map[string]Handler),
		remoteEntries: make(map[string]remoteEntry),
		routes:        make(map[string]Route),
		factories:     make(map[string]TransportFactory),
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RegisterLocal registers an in-process handler for a service.
func (r *Router) RegisterLocal(service string, h Handler) {
	r.mu.Lock()
	r.localHandlers[service] = h
	r.mu.Unlock()
}

// RegisterTransport registers a factory under a strategy name such as "http".
func (r *Router) RegisterTransport(strategy string, f TransportFactory) {
	r.mu.Lock()
	r.factories[strategy] = f
	r.mu.Unlock()
}

// SetRoute installs or replaces the route of a service. A remote strategy
// builds its handler immediately; the previous remote handler is closed.
func (r *Router) SetRoute(service string, rt Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entry remoteEntry
	remote := rt.Strategy != StrategyLocal && rt.Strategy != StrategyNoop
	if remote {
		factory, ok := r.factories[rt.Strategy]
		if !ok {
			return &ErrNoFactory{Service: service, Strategy: rt.Strategy}
		}
		h, closeFn, err := factory(rt.Endpoint, rt.Config)
		if err != nil {
			return &ErrFactoryFailed{Service: service, Strategy: rt.Strategy, Endpoint: rt.Endpoint, Cause: err}
		}
		entry = remoteEntry{handler: h, close: closeFn}
	}

	if old, ok := r.remoteEntries[service]; ok {
		if old.close != nil {
			old.close()
		}
		delete(r.remoteEntries, service)
	}
	if remote {
		r.remoteEntries[service] = entry
	}
	r.routes[service] = rt

	r.logger.Info("connectivity: route set",
		"service", service, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
	return nil
}

// RemoveRoute drops the route of a service; calls go back to the local
// handler.
func (r *Router) RemoveRoute(service string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.remoteEntries[service]; ok && old.close != nil {
		old.close()
	}
	delete(r.remoteEntries, service)
	delete(r.routes, service)
}

// Call dispatches a service call. Resolution order:
//  1. noop route: succeeds with a nil response.
//  2. remote route.
//  3. local handler.
//  4. *ErrServiceNotFound.
func (r *Router) Call(ctx context.Context, service string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	entry, hasRemote := r.remoteEntries[service]
	localH := r.localHandlers[service]
	rt, hasRoute := r.routes[service]
	r.mu.RUnlock()

	if hasRoute && rt.Strategy == StrategyNoop {
		r.logger.DebugContext(ctx, "connectivity: routing noop", "service", service)
		return nil, nil
	}
	if hasRemote {
		r.logger.DebugContext(ctx, "connectivity: routing remote",
			"service", service, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
		return entry.handler(ctx, payload)
	}
	if localH != nil {
		r.logger.DebugContext(ctx, "connectivity: routing local", "service", service)
		return localH(ctx, payload)
	}
	return nil, &ErrServiceNotFound{Service: service}
}

// Close shuts down all remote handlers.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.remoteEntries {
		if entry.close != nil {
			entry.close()
		}
	}
	r.remoteEntries = make(map[string]remoteEntry)
	r.routes = make(map[string]Route)
	return nil
}
