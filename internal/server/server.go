// Package server implements the HTTP transport layer for the player
// identity lookup gateway: routing, CORS, the edge response cache, and the
// success/failure envelope mapping (§4.H, §6).
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/eugener/playerlookup/internal/analytics"
	"github.com/eugener/playerlookup/internal/cache"
	"github.com/eugener/playerlookup/internal/pipeline"
	"github.com/eugener/playerlookup/internal/telemetry"
)

// ReadyChecker reports whether the system is ready to serve traffic.
type ReadyChecker func(ctx context.Context) error

// StaticCollaborator serves any non-API path (the static site), returning
// true if it handled the request. The gateway has no opinion on what lives
// there; per §1 it is an external collaborator (§9's "inheritance collapses
// into an external collaborator interface").
type StaticCollaborator interface {
	ServeStatic(w http.ResponseWriter, r *http.Request) (handled bool)
}

// Deps holds all dependencies for the HTTP server.
type Deps struct {
	Pipeline   *pipeline.Deps
	Cache      *cache.Facade // edge response cache; nil disables it
	Static     StaticCollaborator
	Metrics        *telemetry.Metrics // nil = no Prometheus metrics
	MetricsHandler http.Handler       // nil = no /metrics endpoint
	Analytics      *analytics.Sink    // nil disables write_point (§4.J)
	Tracer         trace.Tracer       // nil = no tracing spans
	ReadyCheck     ReadyChecker       // nil = always ready
}

// New creates an http.Handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	s := &server{deps: deps}

	r := chi.NewRouter()

	r.Use(s.securityHeaders)
	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.logging)
	r.Use(s.corsPreflight)
	if deps.Tracer != nil {
		r.Use(tracingMiddleware(deps.Tracer))
	}
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/player/{platform}/{query}", s.handleLookup)
		r.NotFound(s.handleAPINotFound)
	})

	r.NotFound(s.handleStatic)

	return r
}

type server struct {
	deps Deps
}
