// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// MergeFavoritesTx re-parents every favorite on targetID and sourceIDs onto
// targetID, collapsing rows that share an identity (creatorId, hwid, or ip)
// down to the one with the earliest favoritedAt (spec.md §4.10.5).
func MergeFavoritesTx(ctx context.Context, tx *sql.Tx, targetID string, sourceIDs []string) error {
	allIDs := append([]string{targetID}, sourceIDs...)
	placeholders, args := inClausePlaceholders(allIDs)

	rows, err := tx.QueryContext(ctx, `SELECT id, screenshot_id, creator_id, ip, hwid, favorited_at FROM favorites WHERE screenshot_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to list favorites for merge: %w", err)
	}
	var all []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.ScreenshotID, &f.CreatorID, &f.IP, &f.HWID, &f.FavoritedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan favorite for merge: %w", err)
		}
		all = append(all, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	kept := dedupeByIdentity(all, func(f Favorite) []string {
		keys := []string{"creator:" + f.CreatorID, "ip:" + f.IP}
		if f.HWID != nil {
			keys = append(keys, "hwid:"+*f.HWID)
		}
		return keys
	}, func(f Favorite) int64 { return f.FavoritedAt.UnixNano() })

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE screenshot_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to clear favorites for merge: %w", err)
	}
	for _, f := range kept {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO favorites (id, screenshot_id, creator_id, ip, hwid, favorited_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, targetID, f.CreatorID, f.IP, f.HWID, f.FavoritedAt)
		if err != nil {
			return fmt.Errorf("failed to reinsert merged favorite: %w", err)
		}
	}
	return nil
}

// MergeViewsTx re-parents every view on targetID and sourceIDs onto
// targetID, collapsing rows that share a creatorId down to the one with
// the earliest viewedAt (spec.md §4.10.5).
func MergeViewsTx(ctx context.Context, tx *sql.Tx, targetID string, sourceIDs []string) error {
	allIDs := append([]string{targetID}, sourceIDs...)
	placeholders, args := inClausePlaceholders(allIDs)

	rows, err := tx.QueryContext(ctx, `SELECT id, screenshot_id, creator_id, viewed_at FROM views WHERE screenshot_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to list views for merge: %w", err)
	}
	var all []View
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.ScreenshotID, &v.CreatorID, &v.ViewedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan view for merge: %w", err)
		}
		all = append(all, v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	kept := dedupeByIdentity(all, func(v View) []string {
		return []string{"creator:" + v.CreatorID}
	}, func(v View) int64 { return v.ViewedAt.UnixNano() })

	if _, err := tx.ExecContext(ctx, `DELETE FROM views WHERE screenshot_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to clear views for merge: %w", err)
	}
	for _, v := range kept {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO views (id, screenshot_id, creator_id, viewed_at)
			VALUES (?, ?, ?, ?)`,
			v.ID, targetID, v.CreatorID, v.ViewedAt)
		if err != nil {
			return fmt.Errorf("failed to reinsert merged view: %w", err)
		}
	}
	return nil
}

// dedupeByIdentity collapses rows into connected components joined by any
// shared identity key, keeping the component member with the lowest
// orderKey (earliest timestamp). A union-find over the keys, since identity
// equality is the OR of several attributes and therefore transitive: two
// rows with no attribute in common can still end up in the same group via
// a third row that shares one key with each.
func dedupeByIdentity[T any](rows []T, keysOf func(T) []string, orderKey func(T) int64) []T {
	parent := make(map[string]string)
	var find func(string) string
	find = func(k string) string {
		if parent[k] != k {
			parent[k] = find(parent[k])
		}
		return parent[k]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	rowKeys := make([][]string, len(rows))
	for i, r := range rows {
		keys := keysOf(r)
		rowKeys[i] = keys
		for _, k := range keys {
			if _, ok := parent[k]; !ok {
				parent[k] = k
			}
		}
		for j := 1; j < len(keys); j++ {
			union(keys[0], keys[j])
		}
	}

	best := make(map[string]int) // root key -> index in rows of best candidate so far
	var order []string
	for i := range rows {
		if len(rowKeys[i]) == 0 {
			continue
		}
		root := find(rowKeys[i][0])
		if existing, ok := best[root]; !ok {
			best[root] = i
			order = append(order, root)
		} else if orderKey(rows[i]) < orderKey(rows[existing]) {
			best[root] = i
		}
	}

	out := make([]T, 0, len(order))
	for _, r := range order {
		out = append(out, rows[best[r]])
	}
	return out
}
