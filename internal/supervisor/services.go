// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cartographus/internal/events"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/similarity"
	"github.com/tomtom215/cartographus/internal/stats"
)

// StatsReconcilerService adapts stats.Reconciler's Start/Stop lifecycle to
// suture.Service's Serve(ctx) error contract, for the jobs layer.
type StatsReconcilerService struct {
	reconciler *stats.Reconciler
}

// NewStatsReconcilerService wraps reconciler for supervision.
func NewStatsReconcilerService(reconciler *stats.Reconciler) *StatsReconcilerService {
	return &StatsReconcilerService{reconciler: reconciler}
}

// Serve starts the reconciler's cron loops and blocks until ctx is canceled.
func (s *StatsReconcilerService) Serve(ctx context.Context) error {
	if err := s.reconciler.Start(ctx); err != nil {
		return fmt.Errorf("start stats reconciler: %w", err)
	}
	<-ctx.Done()
	s.reconciler.Stop()
	return ctx.Err()
}

func (s *StatsReconcilerService) String() string { return "stats-reconciler" }

// EventConsumerService adapts events.Consumer's Run/Close lifecycle to
// suture.Service, for the jobs layer.
type EventConsumerService struct {
	consumer *events.Consumer
}

// NewEventConsumerService wraps consumer for supervision.
func NewEventConsumerService(consumer *events.Consumer) *EventConsumerService {
	return &EventConsumerService{consumer: consumer}
}

// Serve runs the event consumer's router until ctx is canceled.
func (s *EventConsumerService) Serve(ctx context.Context) error {
	return s.consumer.Run(ctx)
}

func (s *EventConsumerService) String() string { return "event-consumer" }

// EmbeddingEngine is the slice of similarity.Engine the worker restart loop
// needs to rewire a freshly spawned sidecar into.
type EmbeddingEngine interface {
	SetWorker(worker *similarity.WorkerClient)
}

// EmbedWorkerService owns the embedding worker sidecar's process restart
// loop (spec.md §4.9: the worker process is supervised and restarted on
// unexpected exit). Each call to Serve spawns a fresh subprocess, hands it
// to engine, and blocks until the subprocess exits or ctx is canceled; a
// nonzero return lets suture restart it under the jobs tree's failure
// policy rather than this type re-implementing backoff itself.
type EmbedWorkerService struct {
	binaryPath     string
	requestTimeout time.Duration
	engine         EmbeddingEngine
}

// NewEmbedWorkerService builds a service that (re)spawns binaryPath and
// wires it into engine every time it is started.
func NewEmbedWorkerService(binaryPath string, requestTimeout time.Duration, engine EmbeddingEngine) *EmbedWorkerService {
	return &EmbedWorkerService{binaryPath: binaryPath, requestTimeout: requestTimeout, engine: engine}
}

// Serve spawns the worker subprocess, swaps it into the engine, and blocks
// until either the subprocess exits unexpectedly (returning an error so
// suture restarts this service) or ctx is canceled (in which case the
// subprocess is asked to exit cleanly).
func (s *EmbedWorkerService) Serve(ctx context.Context) error {
	client, err := similarity.NewWorkerClient(s.binaryPath, s.requestTimeout)
	if err != nil {
		return fmt.Errorf("spawn embedding worker: %w", err)
	}
	metrics.RecordEmbedWorkerRestart()
	s.engine.SetWorker(client)
	logging.Info().Str("binary", s.binaryPath).Msg("embedding worker sidecar started")

	exited := make(chan struct{})
	go func() {
		<-client.Exited()
		close(exited)
	}()

	select {
	case <-ctx.Done():
		if err := client.Shutdown(); err != nil {
			logging.Warn().Err(err).Msg("embedding worker shutdown reported an error")
		}
		return ctx.Err()
	case <-exited:
		return fmt.Errorf("embedding worker sidecar exited unexpectedly")
	}
}

func (s *EmbedWorkerService) String() string { return "embed-worker" }
