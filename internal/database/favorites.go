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

	"github.com/tomtom215/cartographus/internal/apperr"
)

// FindFavoriteByIdentity returns the favorite row for screenshotID matching
// any of the identity keys (creatorId OR hwid ∈ hwids OR ip ∈ ips), or nil
// if none exists. This is "one identity, one favorite" (spec.md §4.7).
func (db *DB) FindFavoriteByIdentity(ctx context.Context, tx *sql.Tx, screenshotID, creatorID string, ips, hwids []string) (*Favorite, error) {
	query := `SELECT id, screenshot_id, creator_id, ip, hwid, favorited_at FROM favorites WHERE screenshot_id = ? AND (creator_id = ?`
	args := []any{screenshotID, creatorID}
	if len(ips) > 0 {
		placeholders, iargs := inClausePlaceholders(ips)
		query += ` OR ip IN (` + placeholders + `)`
		args = append(args, iargs...)
	}
	if len(hwids) > 0 {
		placeholders, hargs := inClausePlaceholders(hwids)
		query += ` OR hwid IN (` + placeholders + `)`
		args = append(args, hargs...)
	}
	query += `)`

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, args...)
	} else {
		row = db.conn.QueryRowContext(ctx, query, args...)
	}

	var f Favorite
	err := row.Scan(&f.ID, &f.ScreenshotID, &f.CreatorID, &f.IP, &f.HWID, &f.FavoritedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up favorite: %w", err)
	}
	return &f, nil
}

// AddFavoriteTx inserts a Favorite row and increments favoritesCount,
// raising already-favorited if the identity already has a row (spec.md
// §4.7).
func AddFavoriteTx(ctx context.Context, tx *sql.Tx, db *DB, screenshotID, creatorID, ip string, hwid *string, ips, hwids []string) error {
	existing, err := db.FindFavoriteByIdentity(ctx, tx, screenshotID, creatorID, ips, hwids)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.New(apperr.AlreadyFavorited, "this identity has already favorited this screenshot")
	}

	id, err := NewObjectID()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO favorites (id, screenshot_id, creator_id, ip, hwid, favorited_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, screenshotID, creatorID, ip, hwid, time.Now().UTC())
	if err != nil {
		return translateErr(err, apperr.AlreadyFavorited, "this identity has already favorited this screenshot")
	}

	_, err = tx.ExecContext(ctx, `UPDATE screenshots SET favorites_count = favorites_count + 1 WHERE id = ?`, screenshotID)
	if err != nil {
		return fmt.Errorf("failed to bump favorites count: %w", err)
	}
	return nil
}

// RemoveFavoriteTx deletes the identity's Favorite row and decrements
// favoritesCount, raising not-favorited if none exists.
func RemoveFavoriteTx(ctx context.Context, tx *sql.Tx, db *DB, screenshotID, creatorID string, ips, hwids []string) error {
	existing, err := db.FindFavoriteByIdentity(ctx, tx, screenshotID, creatorID, ips, hwids)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.New(apperr.NotFavorited, "this identity has not favorited this screenshot")
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, existing.ID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	_, err = tx.ExecContext(ctx, `UPDATE screenshots SET favorites_count = favorites_count - 1 WHERE id = ?`, screenshotID)
	if err != nil {
		return fmt.Errorf("failed to decrement favorites count: %w", err)
	}
	return nil
}

// IsFavoriteBatch returns, in input order, whether each screenshot id has a
// Favorite row matching the given identity.
func (db *DB) IsFavoriteBatch(ctx context.Context, screenshotIDs []string, creatorID string, ips, hwids []string) ([]bool, error) {
	out := make([]bool, len(screenshotIDs))
	if len(screenshotIDs) == 0 {
		return out, nil
	}

	placeholders, idArgs := inClausePlaceholders(screenshotIDs)
	query := `SELECT screenshot_id FROM favorites WHERE screenshot_id IN (` + placeholders + `) AND (creator_id = ?`
	args := append(idArgs, creatorID)
	if len(ips) > 0 {
		p, iargs := inClausePlaceholders(ips)
		query += ` OR ip IN (` + p + `)`
		args = append(args, iargs...)
	}
	if len(hwids) > 0 {
		p, hargs := inClausePlaceholders(hwids)
		query += ` OR hwid IN (` + p + `)`
		args = append(args, hargs...)
	}
	query += `)`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-check favorites: %w", err)
	}
	defer rows.Close()

	matched := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite id: %w", err)
		}
		matched[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range screenshotIDs {
		out[i] = matched[id]
	}
	return out, nil
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}
