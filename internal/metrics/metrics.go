package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexgate_upstream_requests_total",
			Help: "Total number of upstream HTTP attempts by host and outcome",
		},
		[]string{"host", "outcome"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexgate_cache_hits_total",
			Help: "Total number of cache hits by cache kind",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexgate_cache_misses_total",
			Help: "Total number of cache misses by cache kind",
		},
		[]string{"cache"},
	)

	StaleServes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexgate_stale_serves_total",
			Help: "Total number of responses served from an expired cache entry after a failed refresh",
		},
		[]string{"cache"},
	)

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexgate_quote_requests_total",
			Help: "Total number of quote resolutions by path and outcome",
		},
		[]string{"path", "status"},
	)

	// HTTP metrics
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dexgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)
