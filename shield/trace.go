package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/codecapture/idgen"
	"github.com/hazyhaar/codecapture/kit"
)

var newRequestID = idgen.Prefixed("req_", idgen.Default)

// RequestID assigns an ID to each request and injects it into the context
// (kit.RequestIDKey), the X-Request-ID response header, and a per-request
// logger stored under LoggerKey. A nil logger uses slog.Default().
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := newRequestID()

			ctx := kit.WithRequestID(r.Context(), id)
			ctx = kit.WithTransport(ctx, kit.TransportHTTP)
			w.Header().Set("X-Request-ID", id)

			reqLogger := logger.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx = context.WithValue(ctx, LoggerKey, reqLogger)
			reqLogger.Debug("request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
