package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Recommendation engine metrics
	RecommendationDuration prometheus.HistogramVec
	RecommendationsServed  prometheus.CounterVec
	CacheHitsTotal         prometheus.CounterVec
	CacheMissesTotal       prometheus.CounterVec

	// OpenLibrary lookup metrics
	LookupErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			RecommendationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recommendation_generation_duration_seconds",
					Help:    "End-to-end recommendation generation latency in seconds",
					Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"path"},
			),
			RecommendationsServed: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendations_served_total",
					Help: "Total recommendation lists served, by flow",
				},
				[]string{"path"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendation_cache_hits_total",
					Help: "Recommendation cache hits",
				},
				[]string{"backend"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendation_cache_misses_total",
					Help: "Recommendation cache misses (absent or expired)",
				},
				[]string{"backend"},
			),
			LookupErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "openlibrary_lookup_errors_total",
					Help: "Failed OpenLibrary API calls, by operation",
				},
				[]string{"operation"},
			),
		}
	})
	return instance
}

// The helpers below are no-ops until Initialize runs, so library code and
// tests can record freely.

// RecordGeneration records one served recommendation list and its latency.
// path is "cache", "personalized", or "general".
func RecordGeneration(path string, duration time.Duration) {
	if instance == nil {
		return
	}
	instance.RecommendationsServed.WithLabelValues(path).Inc()
	instance.RecommendationDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordCacheHit records a recommendation cache hit.
func RecordCacheHit(backend string) {
	if instance == nil {
		return
	}
	instance.CacheHitsTotal.WithLabelValues(backend).Inc()
}

// RecordCacheMiss records a recommendation cache miss.
func RecordCacheMiss(backend string) {
	if instance == nil {
		return
	}
	instance.CacheMissesTotal.WithLabelValues(backend).Inc()
}

// RecordLookupError records a failed OpenLibrary call.
func RecordLookupError(operation string) {
	if instance == nil {
		return
	}
	instance.LookupErrorsTotal.WithLabelValues(operation).Inc()
}
