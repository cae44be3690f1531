// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package views

import (
	"context"
	"database/sql"
	"testing"

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

func insertTestCreatorAndScreenshot(t *testing.T, db *database.DB) (creatorID, screenshotID string) {
	t.Helper()
	ctx := context.Background()

	c := &database.Creator{CreatorID: "3a3e1234-0000-4000-8000-000000000001", CreatorIDProvider: "paradox", IPs: []string{"1.2.3.4"}}
	if err := db.InsertCreator(ctx, c); err != nil {
		t.Fatalf("InsertCreator: %v", err)
	}

	hwid := "H1"
	shot := &database.Screenshot{CreatorID: c.ID, CityName: "Testville", IP: "1.2.3.4", HWID: &hwid}
	_, err := database.RunTx(ctx, db, 0, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		return struct{}{}, database.InsertScreenshotTx(ctx, tx, shot)
	})
	if err != nil {
		t.Fatalf("InsertScreenshotTx: %v", err)
	}

	return c.ID, shot.ID
}

func TestMarkViewedCreatesRowBumpsCountAndCaches(t *testing.T) {
	db := newTestDB(t)
	tr := New(db)
	ctx := context.Background()

	creatorID, screenshotID := insertTestCreatorAndScreenshot(t, db)

	if err := tr.MarkViewed(ctx, screenshotID, creatorID); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}

	s, err := db.GetScreenshotByID(ctx, screenshotID)
	if err != nil {
		t.Fatalf("GetScreenshotByID: %v", err)
	}
	if s.ViewsCount != 1 {
		t.Fatalf("expected viewsCount=1 after first view, got %d", s.ViewsCount)
	}

	// Re-viewing touches viewedAt but must not bump viewsCount again.
	if err := tr.MarkViewed(ctx, screenshotID, creatorID); err != nil {
		t.Fatalf("MarkViewed (re-view): %v", err)
	}
	s, err = db.GetScreenshotByID(ctx, screenshotID)
	if err != nil {
		t.Fatalf("GetScreenshotByID: %v", err)
	}
	if s.ViewsCount != 1 {
		t.Fatalf("expected viewsCount to stay at 1 after re-view, got %d", s.ViewsCount)
	}

	ids, err := tr.GetViewedScreenshotIDs(ctx, creatorID, 0)
	if err != nil {
		t.Fatalf("GetViewedScreenshotIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != screenshotID {
		t.Fatalf("expected cached viewed ids to contain %s, got %v", screenshotID, ids)
	}
}

func TestGetViewedScreenshotIDsEmptyForUnknownCreator(t *testing.T) {
	db := newTestDB(t)
	tr := New(db)
	ids, err := tr.GetViewedScreenshotIDs(context.Background(), "nonexistent-creator-id", 0)
	if err != nil {
		t.Fatalf("GetViewedScreenshotIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no viewed ids, got %v", ids)
	}
}
