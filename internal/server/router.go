package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] method patterns, so path wildcards are available through
// [http.Request.PathValue] and unmatched methods get 405 from the mux.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
	}
}

// Use adds [Middleware] to the router's stack, applied in the order it's added.
// Only routes registered afterwards are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path, wrapped with all registered middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(strings.ToUpper(method)+" "+path, r.Apply(handler))
}

// Mount registers every route returned by [Handler.Routes].
func (r *BasicRouter) Mount(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(route.Method, route.Path, route.Handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

// NewAPIRouter builds the router served by `edbx serve`: api under /api, Prometheus
// metrics on /metrics and a liveness probe on /healthz.
func NewAPIRouter(api *API, logger *log.Logger) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recover(logger), Logging(logger), Metrics("/metrics", "/healthz"))

	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		api.respond(w, req, http.StatusOK, map[string]string{"status": "ok", "file": api.lib.Current()})
	}))
	r.Mount(api)
	return r
}
