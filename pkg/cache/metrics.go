package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh cache hits by store backend.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_hits_total",
			Help: "Total number of fresh cache hits",
		},
		[]string{"store"}, // "memory", "redis"
	)

	// CacheMisses tracks cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// StaleHits tracks entries served past their TTL by the fallback path.
	StaleHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_cache_stale_hits_total",
			Help: "Total number of expired entries served via the stale fallback",
		},
	)

	// CacheErrors tracks cache operation errors (swallowed, never surfaced).
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "get_stale", "set", "delete", "flush"
	)

	// SweptEntries tracks entries removed by the periodic sweep.
	SweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_cache_swept_entries_total",
			Help: "Total number of entries removed by the memory store sweep",
		},
	)
)
