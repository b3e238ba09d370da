// Package observability holds Prometheus metric definitions for the parse
// pipeline. Exposition is left to the embedding process; this package only
// registers collectors on the default registry.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompileInvocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mibflat_compile_invocations_total",
		Help: "Total number of external schema compiler invocations.",
	})

	CompileFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mibflat_compile_failures_total",
		Help: "Total number of failed module compilations.",
	})

	SymbolIndexHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mibflat_symbol_index_hits_total",
		Help: "Total number of shared symbol index cache hits.",
	})

	SymbolIndexMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mibflat_symbol_index_misses_total",
		Help: "Total number of shared symbol index cache misses.",
	})

	ResultCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mibflat_result_cache_hits_total",
		Help: "Total number of file result cache hits.",
	})

	ResultCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mibflat_result_cache_misses_total",
		Help: "Total number of file result cache misses.",
	})

	ResultCacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mibflat_result_cache_evictions_total",
		Help: "Total number of file result cache entries evicted.",
	})

	ParseDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mibflat_parse_seconds",
		Help:    "Time spent parsing a single MIB file end to end.",
		Buckets: prometheus.DefBuckets,
	})
)
