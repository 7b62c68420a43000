package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tale module.
// Tracks content lifecycle counts and the cascading delete critical path.
type Metrics struct {
	TalesCreated          prometheus.Counter
	TalesDeleted          prometheus.Counter
	CacheHits             prometheus.Counter
	CacheMisses           prometheus.Counter
	CascadeDeleteDuration prometheus.Histogram
}

// New creates a new Metrics instance with all tale module metrics registered.
func New() *Metrics {
	return &Metrics{
		TalesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fabula_tales_created_total",
			Help: "Total number of folktales created",
		}),
		TalesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fabula_tales_deleted_total",
			Help: "Total number of folktales removed via cascading delete",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fabula_tale_cache_hits_total",
			Help: "Total number of tale reads served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fabula_tale_cache_misses_total",
			Help: "Total number of tale reads that fell through to storage",
		}),
		CascadeDeleteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fabula_tale_cascade_delete_duration_seconds",
			Help:    "Duration of the cascading delete transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCreated records a successful tale creation.
func (m *Metrics) IncrementCreated() {
	m.TalesCreated.Inc()
}

// IncrementDeleted records a completed cascading delete.
func (m *Metrics) IncrementDeleted() {
	m.TalesDeleted.Inc()
}

// IncrementCacheHit records a tale read served from cache.
func (m *Metrics) IncrementCacheHit() {
	m.CacheHits.Inc()
}

// IncrementCacheMiss records a tale read that fell through to storage.
func (m *Metrics) IncrementCacheMiss() {
	m.CacheMisses.Inc()
}

// ObserveCascadeDelete records the duration of a cascading delete.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCascadeDelete(start time.Time) {
	m.CascadeDeleteDuration.Observe(time.Since(start).Seconds())
}
