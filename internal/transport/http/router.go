// Package httptransport wires the chi router: global middleware, the module
// handlers, and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fabula/internal/platform/metrics"
	"fabula/pkg/platform/middleware/request"
)

// Registrar is anything that can attach its routes to the router. Every
// module handler implements it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config collects the router's collaborators.
type Config struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Handlers []Registrar

	// Checks run on /healthz; a nil map entry is skipped.
	Checks map[string]HealthChecker
}

// NewRouter builds the HTTP surface.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Timeout(30 * time.Second))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	for _, h := range cfg.Handlers {
		h.Register(r)
	}

	r.Get("/healthz", handleHealth(cfg.Logger, cfg.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func handleHealth(logger *slog.Logger, checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				logger.ErrorContext(ctx, "health check failed",
					"dependency", name,
					"error", err,
					"request_id", request.GetRequestID(ctx))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
