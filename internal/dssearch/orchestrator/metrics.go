package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation for the Ask pipeline,
// grounded on internal/escrow/metrics.go's promauto registration style.
type Metrics struct {
	AsksTotal       *prometheus.CounterVec
	AskDuration     *prometheus.HistogramVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	SearchScore     prometheus.Histogram
	ResultsReturned prometheus.Histogram
}

// NewMetrics creates and registers the orchestrator's Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		AsksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dssearch_asks_total",
				Help: "Total number of Ask calls by source and action",
			},
			[]string{"source", "action"},
		),
		AskDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dssearch_ask_duration_seconds",
				Help:    "Duration of a complete Ask pipeline run",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dssearch_cache_hits_total",
			Help: "Total number of cache hits across all tiers",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dssearch_cache_misses_total",
			Help: "Total number of cache misses",
		}),
		SearchScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dssearch_policy_search_score",
			Help:    "Distribution of policy search scores",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.55, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		ResultsReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dssearch_results_returned",
			Help:    "Number of top results returned per Ask call",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
		}),
	}
}

// RecordAsk records one completed Ask call.
func (m *Metrics) RecordAsk(source, action string, durationSeconds float64, searchScore float64, resultCount int) {
	m.AsksTotal.WithLabelValues(source, action).Inc()
	m.AskDuration.WithLabelValues(source).Observe(durationSeconds)
	m.SearchScore.Observe(searchScore)
	m.ResultsReturned.Observe(float64(resultCount))
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}
