// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import (
	"context"
	"fmt"
)

// ScreenshotCounters is the recomputed set of denormalised counters C8
// compares against the stored row (spec.md §4.8.1 "Reconciliation").
type ScreenshotCounters struct {
	ScreenshotID     string
	ViewsCount       int64
	UniqueViewsCount int64
	FavoritesCount   int64
	Favoriting       int64
}

// RecomputeCounters joins each screenshot against its views and favorites
// and returns only rows where any counter disagrees with the stored value,
// per the single server-side aggregation spec.md §4.8.1 describes.
func (db *DB) RecomputeCounters(ctx context.Context, screenshotIDs []string) ([]ScreenshotCounters, error) {
	query := `
		SELECT
			s.id,
			coalesce(v.views_count, 0) AS views_count,
			coalesce(v.unique_views_count, 0) AS unique_views_count,
			coalesce(f.favorites_count, 0) AS favorites_count,
			CASE WHEN coalesce(v.unique_views_count, 0) > 0
				THEN round(100.0 * coalesce(f.favorites_count, 0) / v.unique_views_count)
				ELSE 0
			END AS favoriting_percentage
		FROM screenshots s
		LEFT JOIN (
			SELECT screenshot_id, count(*) AS views_count, count(DISTINCT creator_id) AS unique_views_count
			FROM views GROUP BY screenshot_id
		) v ON v.screenshot_id = s.id
		LEFT JOIN (
			SELECT screenshot_id, count(*) AS favorites_count
			FROM favorites GROUP BY screenshot_id
		) f ON f.screenshot_id = s.id
		WHERE
			coalesce(v.views_count, 0) != s.views_count
			OR coalesce(v.unique_views_count, 0) != s.unique_views_count
			OR coalesce(f.favorites_count, 0) != s.favorites_count
			OR (CASE WHEN coalesce(v.unique_views_count, 0) > 0
				THEN round(100.0 * coalesce(f.favorites_count, 0) / v.unique_views_count)
				ELSE 0
			END) != s.favoriting_percentage`

	var args []any
	if len(screenshotIDs) > 0 {
		placeholders, idArgs := inClausePlaceholders(screenshotIDs)
		query += ` AND s.id IN (` + placeholders + `)`
		args = idArgs
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute counters: %w", err)
	}
	defer rows.Close()

	var out []ScreenshotCounters
	for rows.Next() {
		var c ScreenshotCounters
		if err := rows.Scan(&c.ScreenshotID, &c.ViewsCount, &c.UniqueViewsCount, &c.FavoritesCount, &c.Favoriting); err != nil {
			return nil, fmt.Errorf("failed to scan recomputed counters: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ApplyCounters writes one screenshot's recomputed counters back, called
// serially ("written one by one") per spec.md §4.8.1.
func (db *DB) ApplyCounters(ctx context.Context, c ScreenshotCounters) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE screenshots SET views_count = ?, unique_views_count = ?, favorites_count = ?, favoriting_percentage = ?
		WHERE id = ?`, c.ViewsCount, c.UniqueViewsCount, c.FavoritesCount, c.Favoriting, c.ScreenshotID)
	if err != nil {
		return fmt.Errorf("failed to apply recomputed counters: %w", err)
	}
	return nil
}

// DerivedAverageRow is one screenshot's eligible-for-update derived
// per-day averages (spec.md §4.8.1's hourly cron).
type DerivedAverageRow struct {
	ScreenshotID    string
	ViewsPerDay     float64
	FavoritesPerDay float64
	Favoriting      int64
}

// ListScreenshotsForDerivedAverages returns every screenshot with nonzero
// counters, for the hourly derived-average recompute.
func (db *DB) ListScreenshotsForDerivedAverages(ctx context.Context) ([]*Screenshot, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+screenshotColumns+` FROM screenshots WHERE views_count > 0 OR favorites_count > 0`)
	if err != nil {
		return nil, fmt.Errorf("failed to list screenshots for derived averages: %w", err)
	}
	defer rows.Close()

	var out []*Screenshot
	for rows.Next() {
		s, err := scanScreenshotRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ApplyDerivedAverages writes viewsPerDay/favoritesPerDay/favoritingPercentage
// back for one screenshot.
func (db *DB) ApplyDerivedAverages(ctx context.Context, r DerivedAverageRow) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE screenshots SET views_per_day = ?, favorites_per_day = ?, favoriting_percentage = ?
		WHERE id = ?`, r.ViewsPerDay, r.FavoritesPerDay, r.Favoriting, r.ScreenshotID)
	if err != nil {
		return fmt.Errorf("failed to apply derived averages: %w", err)
	}
	return nil
}
