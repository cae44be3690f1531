// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MarkViewedTx creates a View row for (screenshotId, creatorId) if one does
// not exist, or touches viewedAt if it does (spec.md §4.6). Returns whether
// a new row was created, so callers can decide whether to bump viewsCount.
// Bumping the counter is left to the caller (internal/views) rather than
// folded in here, since the C6 in-memory seen-set update needs to happen in
// the same breath and this package has no business knowing about caches.
func MarkViewedTx(ctx context.Context, tx *sql.Tx, screenshotID, creatorID string) (created bool, err error) {
	var existingID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM views WHERE screenshot_id = ? AND creator_id = ?`,
		screenshotID, creatorID).Scan(&existingID)

	switch {
	case err == sql.ErrNoRows:
		id, genErr := NewObjectID()
		if genErr != nil {
			return false, genErr
		}
		_, insErr := tx.ExecContext(ctx, `
			INSERT INTO views (id, screenshot_id, creator_id, viewed_at) VALUES (?, ?, ?, ?)`,
			id, screenshotID, creatorID, time.Now().UTC())
		if insErr != nil {
			return false, fmt.Errorf("failed to insert view: %w", insErr)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up view: %w", err)
	default:
		_, updErr := tx.ExecContext(ctx, `UPDATE views SET viewed_at = ? WHERE id = ?`, time.Now().UTC(), existingID)
		if updErr != nil {
			return false, fmt.Errorf("failed to touch view: %w", updErr)
		}
		return false, nil
	}
}

// BumpViewsCountTx increments the screenshot's eagerly-maintained
// viewsCount counter (spec.md §4.6: "counter maintained eagerly;
// uniqueViewsCount is reconciled by C8").
func BumpViewsCountTx(ctx context.Context, tx *sql.Tx, screenshotID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE screenshots SET views_count = views_count + 1 WHERE id = ?`, screenshotID)
	if err != nil {
		return fmt.Errorf("failed to bump views count: %w", err)
	}
	return nil
}

// GetViewedScreenshotIDs returns the set of screenshot ids viewed by
// creatorID within maxAgeDays (0 means open-ended), for C6's cache-miss
// path.
func (db *DB) GetViewedScreenshotIDs(ctx context.Context, creatorID string, maxAgeDays int) ([]string, error) {
	query := `SELECT screenshot_id FROM views WHERE creator_id = ?`
	args := []any{creatorID}
	if maxAgeDays > 0 {
		query += ` AND viewed_at >= ?`
		args = append(args, time.Now().UTC().AddDate(0, 0, -maxAgeDays))
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query viewed screenshot ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan viewed screenshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
