package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Recommendation and catalog Prometheus metrics.
var (
	CatalogFetchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "catalog_fetch_failures_total",
			Help:      "Catalog fetches that failed and produced an empty ranking",
		},
		[]string{"operation"}, // "popular" / "related"
	)

	RankingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courserec",
			Name:      "ranking_duration_seconds",
			Help:      "Time spent ranking a catalog snapshot, excluding the fetch",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)

	RelatedPoolTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "related_pool_total",
			Help:      "Related rankings by candidate pool",
		},
		[]string{"pool"}, // "category" / "fallback"
	)

	CatalogBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "courserec",
			Name:      "catalog_breaker_state",
			Help:      "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CatalogBreakerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "catalog_breaker_requests_total",
			Help:      "Catalog reads through the circuit breaker by outcome",
		},
		[]string{"name", "result"}, // "success" / "failure" / "rejected"
	)
)

var registerRecommendOnce sync.Once

// RegisterRecommendMetrics registers recommendation and catalog metrics on the default registry.
func RegisterRecommendMetrics() {
	registerRecommendOnce.Do(func() {
		prometheus.MustRegister(
			CatalogFetchFailuresTotal,
			RankingDuration,
			RelatedPoolTotal,
			CatalogBreakerState,
			CatalogBreakerRequestsTotal,
		)
	})
}
