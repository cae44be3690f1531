// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics for the Hall of Fame backend.
// This package instruments:
// - Screenshot ingest (C10)
// - DuckDB query performance (C1)
// - Similarity embedding worker health (C9)
// - Event bus publish/consume (internal/events)
// - Stats reconciliation (C8)
// - Ban/creator-registry cache efficiency (C4/C6)

var (
	// Ingest Metrics
	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Duration of screenshot ingest requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_requests_total",
			Help: "Total number of screenshot ingest requests",
		},
		[]string{"result"}, // "accepted", "healthcheck", "rejected"
	)

	IngestImageBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_image_bytes",
			Help:    "Size in bytes of uploaded source images",
			Buckets: []float64{64 << 10, 256 << 10, 1 << 20, 4 << 20, 8 << 20, 16 << 20, 32 << 20},
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Similarity Engine / Embedding Worker Metrics
	EmbedWorkerCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embed_worker_circuit_state",
			Help: "Embedding worker circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	EmbedWorkerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_worker_requests_total",
			Help: "Total number of embedding inference requests sent to the worker subprocess",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	EmbedWorkerRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embed_worker_restarts_total",
			Help: "Total number of times the embedding worker subprocess was respawned after exiting",
		},
	)

	EmbedBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embed_batch_size",
			Help:    "Number of images per batch sent to the embedding worker",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the event bus",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of events consumed from the event bus",
		},
		[]string{"topic", "result"}, // result: "success", "failure"
	)

	EventProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Duration of background job event handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	// Stats Reconciler Metrics
	StatsReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stats_reconcile_duration_seconds",
			Help:    "Duration of a stats reconciliation pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StatsReconcileDirtyIDs = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stats_reconcile_dirty_ids",
			Help:    "Number of dirty screenshot ids drained per reconciliation pass",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500, 1000},
		},
	)

	// Cache Metrics (Ban Registry + View Tracker)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "ban", "view"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)
)

// RecordIngest records the outcome and duration of a screenshot ingest
// request.
func RecordIngest(result string, duration time.Duration, imageBytes int) {
	IngestTotal.WithLabelValues(result).Inc()
	IngestDuration.Observe(duration.Seconds())
	if imageBytes > 0 {
		IngestImageBytes.Observe(float64(imageBytes))
	}
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordEmbedWorkerRequest records the outcome of one embedding-inference
// call to the worker subprocess.
func RecordEmbedWorkerRequest(result string, batchSize int) {
	EmbedWorkerRequests.WithLabelValues(result).Inc()
	if batchSize > 0 {
		EmbedBatchSize.Observe(float64(batchSize))
	}
}

// RecordEmbedWorkerRestart records the worker subprocess being respawned.
func RecordEmbedWorkerRestart() {
	EmbedWorkerRestarts.Inc()
}

// SetEmbedWorkerCircuitState sets the breaker state gauge (0/1/2).
func SetEmbedWorkerCircuitState(state int) {
	EmbedWorkerCircuitState.Set(float64(state))
}

// RecordEventPublished records an event publish to the given topic.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventConsumed records an event handler's outcome and duration.
func RecordEventConsumed(topic string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsConsumed.WithLabelValues(topic, result).Inc()
	EventProcessingDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordStatsReconcile records one reconciliation pass.
func RecordStatsReconcile(duration time.Duration, dirtyIDs int) {
	StatsReconcileDuration.Observe(duration.Seconds())
	StatsReconcileDirtyIDs.Observe(float64(dirtyIDs))
}

// RecordCacheHit records a cache hit for cacheType ("ban" or "view").
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for cacheType ("ban" or "view").
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}
