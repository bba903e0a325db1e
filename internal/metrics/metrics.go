// Package metrics exposes Prometheus collectors for the data-fetch
// pipeline and the relay server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts snapshot cache hits per dataset.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_cache_hits_total",
		Help: "Snapshot cache hits by dataset.",
	}, []string{"dataset"})

	// CacheMisses counts snapshot cache misses per dataset, including
	// expired, outdated and corrupt entries.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_cache_misses_total",
		Help: "Snapshot cache misses by dataset.",
	}, []string{"dataset"})

	// CatalogRequests counts outbound catalog API requests per source.
	CatalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_catalog_requests_total",
		Help: "Outbound catalog API requests by source.",
	}, []string{"source"})

	// RelayRequests counts requests proxied to the completion endpoint.
	RelayRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_upstream_requests_total",
		Help: "Requests forwarded to the completion endpoint.",
	})

	// RelayFailures counts proxied requests that failed in transport.
	RelayFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_upstream_failures_total",
		Help: "Forwarded requests that failed before an upstream response.",
	})

	// RelayDuration observes upstream round-trip latency.
	RelayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_upstream_duration_seconds",
		Help:    "Latency of completion endpoint round trips.",
		Buckets: prometheus.DefBuckets,
	})
)
