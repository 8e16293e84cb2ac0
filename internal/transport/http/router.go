// Package httptransport assembles the HTTP surface: shared middleware, the
// public registry routes, the bearer-protected gateway routes, probes and
// metrics. Handlers own their routes; this package only mounts them.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"didgate/pkg/platform/middleware/auth"
	request "didgate/pkg/platform/middleware/request"
	"didgate/pkg/platform/middleware/requesttime"
)

const (
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Registrar mounts a handler's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Routes groups the handlers by exposure.
type Routes struct {
	// Public routes need no bearer token.
	Public []Registrar
	// Protected routes require an organization bearer token.
	Protected []Registrar
	Health    Registrar
}

// NewRouter wires all endpoints with the middleware stack.
func NewRouter(routes Routes, tokens auth.TokenValidator, latency *request.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.ClientIP)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(request.Latency(latency, routePattern))
	r.Use(request.Timeout(requestTimeout))
	r.Use(request.BodyLimit(maxBodyBytes))
	r.Use(request.ContentTypeJSON)

	if routes.Health != nil {
		routes.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range routes.Public {
		h.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOrganization(tokens, logger))
		for _, h := range routes.Protected {
			h.Register(r)
		}
	})

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
