// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package main is the composition root for the Hall of Fame screenshot
// gallery backend. It wires the ten core components (Persistence Gateway,
// Blob Store Gateway, Image Processor, Ban Registry, Creator Registry,
// View Tracker, Favorite Tracker, Stats Reconciler, Similarity Engine,
// Screenshot Engine) together with the authorization guard, the event bus,
// and the audit trail, then starts the suture supervisor tree that runs
// the stats-reconciliation cron, the event consumer, and the embedding
// worker sidecar restart loop for the lifetime of the process.
//
// This binary is a library entry point, not an HTTP server: the router
// that would accept creator uploads and bind against these types is an
// excluded external collaborator (spec.md §1). Components builds the full
// component graph so such a router, compiled into the same binary or a
// sibling one, has everything it needs to serve requests; nothing in this
// package itself listens on a socket.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cartographus/internal/access"
	"github.com/tomtom215/cartographus/internal/audit"
	"github.com/tomtom215/cartographus/internal/bans"
	"github.com/tomtom215/cartographus/internal/blobstore"
	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/creators"
	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/events"
	"github.com/tomtom215/cartographus/internal/favorites"
	"github.com/tomtom215/cartographus/internal/imaging"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/screenshots"
	"github.com/tomtom215/cartographus/internal/similarity"
	"github.com/tomtom215/cartographus/internal/stats"
	"github.com/tomtom215/cartographus/internal/supervisor"
	"github.com/tomtom215/cartographus/internal/views"
)

// Components is the fully-wired component graph: everything an external
// HTTP router (spec.md §1) would need to serve requests, plus the handles
// main needs to register background services with the supervisor tree.
type Components struct {
	DB          *database.DB
	Blobs       *blobstore.Store
	Bans        *bans.Registry
	Creators    *creators.Registry
	Guard       *access.Guard
	Views       *views.Tracker
	Favorites   *favorites.Tracker
	Stats       *stats.Reconciler
	Similarity  *similarity.Engine
	Screenshots *screenshots.Engine
	Audit       *audit.Logger
	Bus         *events.Bus

	ledger *stats.DirtyLedger
}

// buildComponents wires C1..C10 plus the authorization guard, event bus,
// and audit trail from cfg. Callers must invoke Close when done.
func buildComponents(ctx context.Context, cfg *config.Config) (*Components, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	blobs, err := blobstore.New(ctx, &cfg.Blob)
	if err != nil {
		return nil, err
	}

	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(ctx); err != nil {
		return nil, err
	}
	auditLogger := audit.NewLogger(auditStore, audit.DefaultConfig())
	auditLogger.StartCleanupRoutine(ctx)

	bus, err := events.New(cfg.NATS)
	if err != nil {
		return nil, err
	}

	banRegistry := bans.New(db, auditLogger)
	creatorRegistry := creators.New(db, bus, auditLogger)
	guard := access.New(banRegistry, creatorRegistry)

	viewTracker := views.New(db)
	favoriteTracker := favorites.New(db)

	ledger, err := stats.OpenDirtyLedger(cfg.Stats.LedgerPath)
	if err != nil {
		return nil, err
	}
	reconciler := stats.New(db, ledger, cfg.Stats.NiceMode)

	similarityEngine := similarity.NewEngine(db, blobs, nil)
	if cfg.Similarity.WarmupAtBoot {
		if err := similarityEngine.WarmUp(ctx); err != nil {
			logging.Warn().Err(err).Msg("failed to warm up similarity index")
		}
	}

	processor := imaging.NewProcessor(&cfg.Screenshots)
	screenshotEngine := screenshots.New(db, blobs, processor, viewTracker, bus, reconciler, auditLogger, &cfg.Screenshots)

	return &Components{
		DB:          db,
		Blobs:       blobs,
		Bans:        banRegistry,
		Creators:    creatorRegistry,
		Guard:       guard,
		Views:       viewTracker,
		Favorites:   favoriteTracker,
		Stats:       reconciler,
		Similarity:  similarityEngine,
		Screenshots: screenshotEngine,
		Audit:       auditLogger,
		Bus:         bus,
		ledger:      ledger,
	}, nil
}

// Close releases every resource buildComponents opened.
func (c *Components) Close() {
	if err := c.Bus.Close(); err != nil {
		logging.Error().Err(err).Msg("error closing event bus")
	}
	if err := c.Audit.Close(); err != nil {
		logging.Error().Err(err).Msg("error closing audit logger")
	}
	if err := c.ledger.Close(); err != nil {
		logging.Error().Err(err).Msg("error closing stats ledger")
	}
	if err := c.DB.Close(); err != nil {
		logging.Error().Err(err).Msg("error closing database")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("env", cfg.Env).Msg("starting hall of fame backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildComponents(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to wire components")
	}
	defer app.Close()

	translator := newOpenAITranslator(cfg.OpenAI.APIKey, app.DB)
	consumer, err := events.NewConsumer(app.Bus.Subscriber(), translator, app.Similarity)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build event consumer")
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddJobsService(supervisor.NewStatsReconcilerService(app.Stats))
	tree.AddJobsService(supervisor.NewEventConsumerService(consumer))
	if cfg.Similarity.WorkerBinaryPath != "" {
		tree.AddWorkerService(supervisor.NewEmbedWorkerService(
			cfg.Similarity.WorkerBinaryPath, cfg.Similarity.RequestTimeout, app.Similarity,
		))
	} else {
		logging.Warn().Msg("no similarity worker binary configured, embeddings disabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("application stopped gracefully")
}
