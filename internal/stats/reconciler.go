// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package stats

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// Per spec.md §4.8.1: "launch dates: 2024-09-23 for views, 2024-10-05 for
// favorites".
var (
	viewsLaunchDate     = time.Date(2024, time.September, 23, 0, 0, 0, 0, time.UTC)
	favoritesLaunchDate = time.Date(2024, time.October, 5, 0, 0, 0, 0, time.UTC)
)

const (
	drainCron      = "*/5 * * * *"
	dailyCron      = "2 0 * * *"
	hourlyCron     = "0 * * * *"
	writeDelayNice = 100 * time.Millisecond
)

// Reconciler is the Stats Reconciler (C8). Its lifecycle mirrors the
// teacher's newsletter scheduler: a ticker-driven loop per cron, stopped
// with a close-and-wait channel pair.
type Reconciler struct {
	db     *database.DB
	ledger *DirtyLedger
	nice   bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New builds a Reconciler. ledger may be nil, in which case
// RequestStatsUpdate is a no-op and only the daily/hourly crons run.
func New(db *database.DB, ledger *DirtyLedger, niceMode bool) *Reconciler {
	return &Reconciler{db: db, ledger: ledger, nice: niceMode}
}

// RequestStatsUpdate appends id to the dirty set drained by the
// five-minute cron (spec.md §4.8).
func (r *Reconciler) RequestStatsUpdate(id string) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.MarkDirty(id); err != nil {
		logging.Warn().Err(err).Str("screenshot_id", id).Msg("failed to mark screenshot dirty for stats reconciliation")
	}
}

// ReconcileNow synchronously recomputes and applies counters for ids,
// bypassing the dirty ledger. Used by the merge path (spec.md §4.10.5),
// which needs the target screenshot's counters correct before it returns
// rather than waiting for the next five-minute drain.
func (r *Reconciler) ReconcileNow(ctx context.Context, ids []string) {
	r.reconcile(ctx, ids)
}

// Start launches the three cron loops and returns immediately.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("stats reconciler already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	drain, err := parseCron(drainCron)
	if err != nil {
		return err
	}
	daily, err := parseCron(dailyCron)
	if err != nil {
		return err
	}
	hourly, err := parseCron(hourlyCron)
	if err != nil {
		return err
	}

	go r.run(ctx, drain, daily, hourly)
	return nil
}

// Stop stops all cron loops and waits for them to exit.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *Reconciler) run(ctx context.Context, drain, daily, hourly *cronExpression) {
	defer close(r.doneCh)

	now := time.Now().UTC()
	nextDrain := drain.nextRun(now)
	nextDaily := daily.nextRun(now)
	nextHourly := hourly.nextRun(now)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			t = t.UTC()
			if !t.Before(nextDrain) {
				r.drainDirty(ctx)
				nextDrain = drain.nextRun(t)
			}
			if !t.Before(nextDaily) {
				r.reconcileAll(ctx)
				nextDaily = daily.nextRun(t)
			}
			if !t.Before(nextHourly) {
				r.recomputeDerivedAverages(ctx)
				nextHourly = hourly.nextRun(t)
			}
		}
	}
}

// drainDirty reconciles just the ids accumulated since the last drain.
func (r *Reconciler) drainDirty(ctx context.Context) {
	if r.ledger == nil {
		return
	}
	ids, err := r.ledger.DrainAll()
	if err != nil {
		logging.Error().Err(err).Msg("failed to drain dirty id ledger")
		return
	}
	if len(ids) == 0 {
		return
	}
	r.reconcile(ctx, ids)
}

// reconcileAll reconciles every screenshot, per the daily 00:02 UTC cron.
func (r *Reconciler) reconcileAll(ctx context.Context) {
	r.reconcile(ctx, nil)
}

// reconcile runs the single aggregation query for ids (nil means every
// screenshot) and writes back only the rows that drifted, one at a time
// (spec.md §4.8.1).
func (r *Reconciler) reconcile(ctx context.Context, ids []string) {
	start := time.Now()
	defer func() { metrics.RecordStatsReconcile(time.Since(start), len(ids)) }()

	counters, err := r.db.RecomputeCounters(ctx, ids)
	if err != nil {
		logging.Error().Err(err).Msg("failed to recompute stats counters")
		return
	}

	for _, c := range counters {
		if err := r.db.ApplyCounters(ctx, c); err != nil {
			logging.Error().Err(err).Str("screenshot_id", c.ScreenshotID).Msg("failed to apply recomputed counters")
		}
		if r.nice {
			time.Sleep(writeDelayNice)
		}
	}

	if len(counters) > 0 {
		logging.Info().Int("count", len(counters)).Msg("reconciled screenshot stats counters")
	}
}

// recomputeDerivedAverages is the hourly cron: viewsPerDay, favoritesPerDay,
// and favoritingPercentage for every screenshot with nonzero counters.
func (r *Reconciler) recomputeDerivedAverages(ctx context.Context) {
	shots, err := r.db.ListScreenshotsForDerivedAverages(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("failed to list screenshots for derived averages")
		return
	}

	now := time.Now().UTC()
	for _, s := range shots {
		row := computeDerivedAverages(s, now)
		if !derivedAveragesDrifted(s, row) {
			continue
		}
		if err := r.db.ApplyDerivedAverages(ctx, row); err != nil {
			logging.Error().Err(err).Str("screenshot_id", s.ID).Msg("failed to apply derived averages")
		}
		if r.nice {
			time.Sleep(writeDelayNice)
		}
	}
}

func computeDerivedAverages(s *database.Screenshot, now time.Time) database.DerivedAverageRow {
	viewsSince := maxTime(s.CreatedAt, viewsLaunchDate)
	favoritesSince := maxTime(s.CreatedAt, favoritesLaunchDate)

	viewsDays := daysSince(viewsSince, now)
	favoritesDays := daysSince(favoritesSince, now)

	var viewsPerDay, favoritesPerDay float64
	if viewsDays > 0 {
		viewsPerDay = roundToOneDecimal(float64(s.ViewsCount) / viewsDays)
	}
	if favoritesDays > 0 {
		favoritesPerDay = roundToOneDecimal(float64(s.FavoritesCount) / favoritesDays)
	}

	var percentage int64
	if s.UniqueViewsCount > 0 {
		percentage = int64(math.Round(100 * float64(s.FavoritesCount) / float64(s.UniqueViewsCount)))
	}

	return database.DerivedAverageRow{
		ScreenshotID:    s.ID,
		ViewsPerDay:     viewsPerDay,
		FavoritesPerDay: favoritesPerDay,
		Favoriting:      percentage,
	}
}

// derivedAveragesDrifted reports whether the recomputed row differs from
// the stored one by more than the spec's 0.1 tolerance for per-day
// averages, or at all for the percentage.
func derivedAveragesDrifted(s *database.Screenshot, row database.DerivedAverageRow) bool {
	if math.Abs(s.ViewsPerDay-row.ViewsPerDay) > 0.1 {
		return true
	}
	if math.Abs(s.FavoritesPerDay-row.FavoritesPerDay) > 0.1 {
		return true
	}
	return s.FavoritingPercentage != row.Favoriting
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func daysSince(t, now time.Time) float64 {
	d := now.Sub(t).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
