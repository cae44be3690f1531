// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package stats

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: t.TempDir() + "/test.duckdb", Threads: 1})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReconcileFixesDriftedCounters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := New(db, nil, false)

	creator := &database.Creator{CreatorID: "3a3e1234-0000-4000-8000-000000000020", CreatorIDProvider: "paradox", IPs: []string{"1.1.1.1"}}
	if err := db.InsertCreator(ctx, creator); err != nil {
		t.Fatalf("InsertCreator: %v", err)
	}

	shot := &database.Screenshot{CreatorID: creator.ID, CityName: "Driftville", IP: "1.1.1.1"}
	_, err := database.RunTx(ctx, db, 0, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		return struct{}{}, database.InsertScreenshotTx(ctx, tx, shot)
	})
	if err != nil {
		t.Fatalf("InsertScreenshotTx: %v", err)
	}

	viewer := &database.Creator{CreatorID: "3a3e1234-0000-4000-8000-000000000021", CreatorIDProvider: "paradox", IPs: []string{"2.2.2.2"}}
	if err := db.InsertCreator(ctx, viewer); err != nil {
		t.Fatalf("InsertCreator: %v", err)
	}
	_, err = database.RunTx(ctx, db, 0, func(ctx context.Context, tx *sql.Tx) (bool, error) {
		return database.MarkViewedTx(ctx, tx, shot.ID, viewer.ID)
	})
	if err != nil {
		t.Fatalf("MarkViewedTx: %v", err)
	}

	// Simulate a stale eagerly-maintained counter that the reconciler must
	// fix back to the true aggregated value (0, since viewsCount is only
	// bumped by internal/views, not by this raw MarkViewedTx call).
	r.reconcile(ctx, []string{shot.ID})

	got, err := db.GetScreenshotByID(ctx, shot.ID)
	if err != nil {
		t.Fatalf("GetScreenshotByID: %v", err)
	}
	if got.UniqueViewsCount != 1 {
		t.Fatalf("expected uniqueViewsCount=1 after reconciliation, got %d", got.UniqueViewsCount)
	}
}

func TestComputeDerivedAveragesRoundsToOneDecimal(t *testing.T) {
	s := &database.Screenshot{
		ID:               "s1",
		CreatedAt:        viewsLaunchDate,
		ViewsCount:       7,
		FavoritesCount:   3,
		UniqueViewsCount: 4,
	}
	now := viewsLaunchDate.Add(48 * time.Hour)

	row := computeDerivedAverages(s, now)
	if row.ViewsPerDay != 3.5 {
		t.Fatalf("expected viewsPerDay=3.5, got %v", row.ViewsPerDay)
	}
	if row.Favoriting != 75 {
		t.Fatalf("expected favoriting=75, got %v", row.Favoriting)
	}
}
