package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Search controller Prometheus metrics.
var (
	SearchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetsearch",
			Name:      "search_outcomes_total",
			Help:      "Search triggers by outcome",
		},
		[]string{"outcome"}, // "issued" / "duplicate" / "empty"
	)

	SearchResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetsearch",
			Name:      "search_responses_total",
			Help:      "Search responses by disposition",
		},
		[]string{"disposition"}, // "applied" / "stale" / "error"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facetsearch",
			Name:      "search_duration_seconds",
			Help:      "Time from issuing a search until its response settles",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PagerPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetsearch",
			Name:      "pager_pages_total",
			Help:      "Endless scroll pages by result",
		},
		[]string{"result"}, // "appended" / "ended" / "stale" / "error"
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetsearch",
			Name:      "backend_requests_total",
			Help:      "Requests to the results backend",
		},
		[]string{"endpoint", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facetsearch",
			Name:      "backend_request_duration_seconds",
			Help:      "Results backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	GeocodeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetsearch",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocode cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	DevIndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facetsearch",
			Name:      "devindex_documents",
			Help:      "Documents loaded into the development index",
		},
	)
)

var searchMetricsRegistered bool

func searchCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		SearchOutcomesTotal,
		SearchResponsesTotal,
		SearchDuration,
		PagerPagesTotal,
		BackendRequestsTotal,
		BackendRequestDuration,
		GeocodeCacheTotal,
		DevIndexDocuments,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	}
}

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	for _, c := range searchCollectors() {
		prometheus.MustRegister(c)
	}
	searchMetricsRegistered = true
}

// RegisterSearchMetricsOn registers the search metrics on reg.
// Collectors already registered there are left as they are.
func RegisterSearchMetricsOn(reg prometheus.Registerer) error {
	for _, c := range searchCollectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("register search metric: %w", err)
		}
	}
	return nil
}
