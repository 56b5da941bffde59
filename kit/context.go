package kit

import "context"

type contextKey string

const (
	TransportKey contextKey = "kit_transport" // "bus", "http", "mcp"
	RequestIDKey contextKey = "kit_request_id"
	CycleIDKey   contextKey = "kit_cycle_id"
)

// Transport names carried in the context.
const (
	TransportBus  = "bus"
	TransportHTTP = "http"
	TransportMCP  = "mcp"
)

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// GetTransport defaults to TransportBus.
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return TransportBus
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

// WithCycleID tags work triggered by a capture cycle.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CycleIDKey, id)
}
func GetCycleID(ctx context.Context) string {
	v, _ := ctx.Value(CycleIDKey).(string)
	return v
}
