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

// FindBan looks up a ban row matching any of the provided identifiers,
// returning nil if none match (spec.md §4.4).
func (db *DB) FindBan(ctx context.Context, creatorID, ip, hwid *string) (*Ban, error) {
	query := `SELECT id, creator_id, ip, hwid, reason, banned_at FROM bans WHERE false`
	var args []any
	if creatorID != nil {
		query += ` OR creator_id = ?`
		args = append(args, *creatorID)
	}
	if ip != nil {
		query += ` OR ip = ?`
		args = append(args, *ip)
	}
	if hwid != nil {
		query += ` OR hwid = ?`
		args = append(args, *hwid)
	}
	query += ` LIMIT 1`

	row := db.conn.QueryRowContext(ctx, query, args...)
	var b Ban
	err := row.Scan(&b.ID, &b.CreatorID, &b.IP, &b.HWID, &b.Reason, &b.BannedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up ban: %w", err)
	}
	return &b, nil
}

// InsertBans writes one row per identifier in a single batch transaction,
// matching banCreator's "creatorId + each known IP + each known HWID" write
// (spec.md §4.4).
func (db *DB) InsertBans(ctx context.Context, creatorID string, ips, hwids []string, reason string) error {
	_, err := RunTx(ctx, db, 0, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		now := time.Now().UTC()

		id, genErr := NewObjectID()
		if genErr != nil {
			return struct{}{}, genErr
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO bans (id, creator_id, reason, banned_at) VALUES (?, ?, ?, ?)`,
			id, creatorID, reason, now); err != nil {
			return struct{}{}, fmt.Errorf("failed to insert creator ban: %w", err)
		}

		for _, ip := range ips {
			id, genErr := NewObjectID()
			if genErr != nil {
				return struct{}{}, genErr
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO bans (id, ip, reason, banned_at) VALUES (?, ?, ?, ?)`,
				id, ip, reason, now); err != nil {
				return struct{}{}, fmt.Errorf("failed to insert ip ban: %w", err)
			}
		}

		for _, hwid := range hwids {
			id, genErr := NewObjectID()
			if genErr != nil {
				return struct{}{}, genErr
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO bans (id, hwid, reason, banned_at) VALUES (?, ?, ?, ?)`,
				id, hwid, reason, now); err != nil {
				return struct{}{}, fmt.Errorf("failed to insert hwid ban: %w", err)
			}
		}

		return struct{}{}, nil
	})
	return err
}
