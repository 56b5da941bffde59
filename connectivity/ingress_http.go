package connectivity

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxHTTPRequestBody caps an incoming bus payload (10 MiB).
const maxHTTPRequestBody int64 = 10 << 20

// HTTPHandler exposes the router's services as POST /bus/{service}. It is
// the peer of HTTPFactory. Handler responses are written as JSON; an
// unknown service answers 404 and a handler error 502.
func HTTPHandler(router *Router) http.Handler {
	r := chi.NewRouter()
	r.Post("/bus/{service}", func(w http.ResponseWriter, req *http.Request) {
		service := chi.URLParam(req, "service")
		payload, err := io.ReadAll(io.LimitReader(req.Body, maxHTTPRequestBody))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := router.Call(req.Context(), service, payload)
		if err != nil {
			var nf *ErrServiceNotFound
			if errors.As(err, &nf) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if resp == nil {
			resp = []byte("null")
		}
		w.Write(resp)
	})
	return r
}

// ServiceURL joins a bus base URL and a service name into the endpoint
// HTTPHandler serves.
func ServiceURL(base, service string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/bus/" + service
}
