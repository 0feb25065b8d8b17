// package server contains the router, middleware and handlers of the queue protocol
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desertthunder/mpq/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Route is a single endpoint: an HTTP method, a mux path template and its handler.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Handler groups related endpoints.
type Handler interface {
	Routes() []Route // Routes returns the endpoints this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers every route of a Handler
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// NewRouter builds the protocol router: recovery, logging, metrics and rate limiting around
// every route, plus /health and /metrics.
func NewRouter(cfg shared.ServerConfig, logger *log.Logger, handlers ...Handler) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recover(logger), Logging(logger), Metrics(), RateLimit(cfg.RateLimit, cfg.Burst))

	r.Handle(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		r.Handler(h)
	}
	return r
}
