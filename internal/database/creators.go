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

	json "github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/apperr"
)

// InsertCreator inserts a new Creator row, generating its id.
func (db *DB) InsertCreator(ctx context.Context, c *Creator) error {
	id, err := NewObjectID()
	if err != nil {
		return err
	}
	c.ID = id
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	ipsJSON, err := json.Marshal(c.IPs)
	if err != nil {
		return fmt.Errorf("failed to marshal ips: %w", err)
	}
	hwidsJSON, err := json.Marshal(c.HWIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal hwids: %w", err)
	}
	socialsJSON, err := json.Marshal(c.Socials)
	if err != nil {
		return fmt.Errorf("failed to marshal socials: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO creators (
			id, creator_id, creator_id_provider, creator_name, creator_name_slug,
			ips, hwids, is_supporter, allow_creator_id_reset,
			name_locale, name_latinized, name_translated, needs_translation,
			socials, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CreatorID, c.CreatorIDProvider, c.CreatorName, c.CreatorNameSlug,
		string(ipsJSON), string(hwidsJSON), c.IsSupporter, c.AllowCreatorIDReset,
		c.NameLocale, c.NameLatinized, c.NameTranslated, c.NeedsTranslation,
		string(socialsJSON), c.CreatedAt,
	)
	if err != nil {
		return translateErr(err, apperr.Conflict, "creator already exists")
	}
	return nil
}

// GetCreatorByCreatorID looks up a Creator by its externally issued id.
func (db *DB) GetCreatorByCreatorID(ctx context.Context, creatorID string) (*Creator, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, creator_id, creator_id_provider, creator_name, creator_name_slug,
			ips, hwids, is_supporter, allow_creator_id_reset,
			name_locale, name_latinized, name_translated, needs_translation,
			socials, created_at
		FROM creators WHERE creator_id = ?`, creatorID)
	return scanCreator(row)
}

// GetCreatorByID looks up a Creator by its internal ObjectId.
func (db *DB) GetCreatorByID(ctx context.Context, id string) (*Creator, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, creator_id, creator_id_provider, creator_name, creator_name_slug,
			ips, hwids, is_supporter, allow_creator_id_reset,
			name_locale, name_latinized, name_translated, needs_translation,
			socials, created_at
		FROM creators WHERE id = ?`, id)
	return scanCreator(row)
}

// FindCreatorsByIDOrNameOrSlug returns every Creator matching the presented
// creatorId, creatorName, or creatorNameSlug -- used by the mod auth
// variant's reconciliation logic (spec.md §4.5).
func (db *DB) FindCreatorsByIDOrNameOrSlug(ctx context.Context, creatorID, name, slug string) ([]*Creator, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, creator_id, creator_id_provider, creator_name, creator_name_slug,
			ips, hwids, is_supporter, allow_creator_id_reset,
			name_locale, name_latinized, name_translated, needs_translation,
			socials, created_at
		FROM creators
		WHERE creator_id = ? OR creator_name = ? OR creator_name_slug = ?`,
		creatorID, name, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to query creators: %w", err)
	}
	defer rows.Close()

	var out []*Creator
	for rows.Next() {
		c, err := scanCreatorRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCreator writes every mutable field of c back to the row identified
// by c.ID. Callers are expected to have already computed the merged field
// values (spec.md §4.5's "update mutating fields only when changed").
func (db *DB) UpdateCreator(ctx context.Context, c *Creator) error {
	ipsJSON, err := json.Marshal(c.IPs)
	if err != nil {
		return fmt.Errorf("failed to marshal ips: %w", err)
	}
	hwidsJSON, err := json.Marshal(c.HWIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal hwids: %w", err)
	}
	socialsJSON, err := json.Marshal(c.Socials)
	if err != nil {
		return fmt.Errorf("failed to marshal socials: %w", err)
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE creators SET
			creator_id = ?, creator_id_provider = ?, creator_name = ?, creator_name_slug = ?,
			ips = ?, hwids = ?, is_supporter = ?, allow_creator_id_reset = ?,
			name_locale = ?, name_latinized = ?, name_translated = ?, needs_translation = ?,
			socials = ?
		WHERE id = ?`,
		c.CreatorID, c.CreatorIDProvider, c.CreatorName, c.CreatorNameSlug,
		string(ipsJSON), string(hwidsJSON), c.IsSupporter, c.AllowCreatorIDReset,
		c.NameLocale, c.NameLatinized, c.NameTranslated, c.NeedsTranslation,
		string(socialsJSON), c.ID,
	)
	if err != nil {
		return translateErr(err, apperr.Conflict, "creator update conflicted")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperr.New(apperr.CreatorNotFound, "creator not found")
	}
	return nil
}

// ListSupporterCreators returns every creator flagged isSupporter, the
// candidate pool the `supporter` selection algorithm samples from (spec.md
// §4.10.4).
func (db *DB) ListSupporterCreators(ctx context.Context) ([]*Creator, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, creator_id, creator_id_provider, creator_name, creator_name_slug,
			ips, hwids, is_supporter, allow_creator_id_reset,
			name_locale, name_latinized, name_translated, needs_translation,
			socials, created_at
		FROM creators WHERE is_supporter = true`)
	if err != nil {
		return nil, fmt.Errorf("failed to list supporter creators: %w", err)
	}
	defer rows.Close()

	var out []*Creator
	for rows.Next() {
		c, err := scanCreatorRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCreator(row *sql.Row) (*Creator, error) {
	var c Creator
	var ipsJSON, hwidsJSON, socialsJSON string
	err := row.Scan(
		&c.ID, &c.CreatorID, &c.CreatorIDProvider, &c.CreatorName, &c.CreatorNameSlug,
		&ipsJSON, &hwidsJSON, &c.IsSupporter, &c.AllowCreatorIDReset,
		&c.NameLocale, &c.NameLatinized, &c.NameTranslated, &c.NeedsTranslation,
		&socialsJSON, &c.CreatedAt,
	)
	if err != nil {
		return nil, translateErr(err, apperr.CreatorNotFound, "creator not found")
	}
	if err := unmarshalCreatorJSON(&c, ipsJSON, hwidsJSON, socialsJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCreatorRows(rows *sql.Rows) (*Creator, error) {
	var c Creator
	var ipsJSON, hwidsJSON, socialsJSON string
	err := rows.Scan(
		&c.ID, &c.CreatorID, &c.CreatorIDProvider, &c.CreatorName, &c.CreatorNameSlug,
		&ipsJSON, &hwidsJSON, &c.IsSupporter, &c.AllowCreatorIDReset,
		&c.NameLocale, &c.NameLatinized, &c.NameTranslated, &c.NeedsTranslation,
		&socialsJSON, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan creator row: %w", err)
	}
	if err := unmarshalCreatorJSON(&c, ipsJSON, hwidsJSON, socialsJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

func unmarshalCreatorJSON(c *Creator, ipsJSON, hwidsJSON, socialsJSON string) error {
	if err := json.Unmarshal([]byte(ipsJSON), &c.IPs); err != nil {
		return fmt.Errorf("failed to unmarshal ips: %w", err)
	}
	if err := json.Unmarshal([]byte(hwidsJSON), &c.HWIDs); err != nil {
		return fmt.Errorf("failed to unmarshal hwids: %w", err)
	}
	if err := json.Unmarshal([]byte(socialsJSON), &c.Socials); err != nil {
		return fmt.Errorf("failed to unmarshal socials: %w", err)
	}
	return nil
}
