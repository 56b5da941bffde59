package connectivity

import (
	"iter"
	"sort"
)

// ServiceInfo describes a service as seen by the router.
type ServiceInfo struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Endpoint string `json:"endpoint,omitempty"`
	HasLocal bool   `json:"has_local"`
}

// ListServices yields every known service, routed or local-only, sorted by
// name.
func (r *Router) ListServices() iter.Seq[ServiceInfo] {
	r.mu.RLock()
	names := make([]string, 0, len(r.routes)+len(r.localHandlers))
	for name := range r.routes {
		names = append(names, name)
	}
	for name := range r.localHandlers {
		if _, routed := r.routes[name]; !routed {
			names = append(names, name)
		}
	}
	r.mu.RUnlock()
	sort.Strings(names)

	return func(yield func(ServiceInfo) bool) {
		for _, name := range names {
			info, ok := r.Inspect(name)
			if !ok {
				continue
			}
			if !yield(info) {
				return
			}
		}
	}
}

// Inspect describes one service. ok is false when it is unknown.
func (r *Router) Inspect(service string) (info ServiceInfo, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, hasRoute := r.routes[service]
	_, hasLocal := r.localHandlers[service]
	if !hasRoute && !hasLocal {
		return ServiceInfo{}, false
	}

	info = ServiceInfo{Name: service, Strategy: StrategyLocal, HasLocal: hasLocal}
	if hasRoute {
		info.Strategy = rt.Strategy
		info.Endpoint = rt.Endpoint
	}
	return info, true
}
