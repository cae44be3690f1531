// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package metrics provides Prometheus instrumentation for the Hall of Fame
backend.

Metrics are exposed at /metrics in Prometheus text format by the
excluded external HTTP router; this package only owns the collectors and
the Record*/Set* helpers that call sites use to populate them.

# Families

  - Ingest (C10): ingest_duration_seconds, ingest_requests_total{result},
    ingest_image_bytes — recorded by internal/screenshots around Ingest.
  - DuckDB (C1): duckdb_query_duration_seconds{operation},
    duckdb_query_errors_total{operation} — recorded by RunTx around every
    transaction.
  - Embedding worker (C9): embed_worker_circuit_state,
    embed_worker_requests_total{result}, embed_worker_restarts_total,
    embed_batch_size — recorded by internal/similarity's WorkerClient and
    internal/supervisor's EmbedWorkerService.
  - Event bus: events_published_total{topic},
    events_consumed_total{topic,result}, event_processing_duration_seconds{topic}
    — recorded by internal/events' Bus and Consumer.
  - Stats reconciler (C8): stats_reconcile_duration_seconds,
    stats_reconcile_dirty_ids — recorded by internal/stats' Reconciler.
  - Cache (ban registry C4, view tracker C6): cache_hits_total{cache_type},
    cache_misses_total{cache_type} — recorded by internal/bans and
    internal/views around their ValueLRU lookups.

# Usage

	metrics.RecordIngest("accepted", time.Since(start), len(imageBytes))
	metrics.RecordDBQuery("transaction", time.Since(start), err)
	metrics.RecordCacheHit("ban")

All recording functions are safe for concurrent use; the underlying
client_golang collectors handle their own synchronization.
*/
package metrics
