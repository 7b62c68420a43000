// Package metrics holds process-wide HTTP and gate metrics. Per-module
// metrics live next to their modules.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks request latency and classified authentication failures.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	AuthFailures    *prometheus.CounterVec
	UsersRegistered prometheus.Counter
}

// New creates and registers all process-wide metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fabula_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "status"}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fabula_auth_failures_total",
			Help: "Total authentication gate rejections by wire code",
		}, []string{"code"}),
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fabula_users_registered_total",
			Help: "Total number of principals registered",
		}),
	}
}

// IncAuthFailure records a gate rejection under its stable wire code.
func (m *Metrics) IncAuthFailure(code string) {
	m.AuthFailures.WithLabelValues(code).Inc()
}

// IncrementUsersRegistered records a successful registration.
func (m *Metrics) IncrementUsersRegistered() {
	m.UsersRegistered.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware observes the duration and status of every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.RequestDuration.
			WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
