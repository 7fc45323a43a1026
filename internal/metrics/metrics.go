// Package metrics exposes the Prometheus metrics the Scheduler, Write
// Batcher, and Correlator increment, following the teacher's
// promauto-backed registry pattern (internal/metrics/metrics.go) adapted to
// this domain's tickers and flushes instead of HTTP/cache metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed Client.
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_feed_fetches_total",
			Help: "Total upstream feed fetch attempts by outcome",
		},
		[]string{"outcome"},
	)
	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestd_feed_fetch_duration_seconds",
			Help:    "Upstream feed fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
	FeedRecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_feed_records_skipped_total",
			Help: "Total records dropped at parse time for failing schema validation",
		},
		[]string{"entity"},
	)

	// Filter Pipeline.
	FilterIncludedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_filter_included_total",
			Help: "Total entities included by the filter pipeline",
		},
		[]string{"entity"},
	)
	FilterExcludedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_filter_excluded_total",
			Help: "Total entities excluded by the filter pipeline",
		},
		[]string{"entity"},
	)
	FilterUncertainTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestd_filter_uncertain_total",
			Help: "Total flights included conservatively as uncertain",
		},
	)

	// Snapshot Coalescer / Lifecycle Engine.
	FlightsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingestd_flights_by_status",
			Help: "Current in-memory flight count by status",
		},
		[]string{"status"},
	)
	LifecycleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_lifecycle_transitions_total",
			Help: "Total flight status transitions by from/to status",
		},
		[]string{"from", "to"},
	)

	// Write Batcher.
	BatchFlushesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestd_batch_flushes_total",
			Help: "Total write batcher flush attempts",
		},
	)
	BatchFlushFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestd_batch_flush_failures_total",
			Help: "Total per-table flush failures after exhausting retries",
		},
	)
	BatchPendingRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingestd_batch_pending_records",
			Help: "Current number of records buffered across all pending tables",
		},
	)

	// Correlator.
	CorrelatorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestd_correlator_duration_seconds",
			Help:    "ATC coverage correlation computation time in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
	)

	// Cache.
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_cache_hits_total",
			Help: "Total cache hits by key pattern",
		},
		[]string{"cache_key_pattern"},
	)
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_cache_misses_total",
			Help: "Total cache misses by key pattern",
		},
		[]string{"cache_key_pattern"},
	)

	// Completion-event worker.
	CompletionEventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_completion_events_processed_total",
			Help: "Total completion events processed by outcome",
		},
		[]string{"outcome"},
	)
	CompletionEventsClaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestd_completion_events_claimed_total",
			Help: "Total completion events reclaimed from a dead consumer",
		},
	)

	// Scheduler / Orchestrator.
	TickErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_ticker_errors_total",
			Help: "Total errors observed inside a ticker's run loop",
		},
		[]string{"ticker"},
	)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingestd_circuit_breaker_state",
			Help: "Circuit breaker state by ticker (0=closed,1=open,2=half-open)",
		},
		[]string{"ticker"},
	)
)
