// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import "fmt"

// createSchema creates every table and index required by spec.md §6.
func (db *DB) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS creators (
			id TEXT PRIMARY KEY,
			creator_id TEXT NOT NULL,
			creator_id_provider TEXT NOT NULL,
			creator_name TEXT,
			creator_name_slug TEXT,
			ips TEXT NOT NULL DEFAULT '[]',
			hwids TEXT NOT NULL DEFAULT '[]',
			is_supporter BOOLEAN NOT NULL DEFAULT false,
			allow_creator_id_reset BOOLEAN NOT NULL DEFAULT false,
			name_locale TEXT,
			name_latinized TEXT,
			name_translated TEXT,
			needs_translation BOOLEAN NOT NULL DEFAULT false,
			socials TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_creators_creator_id ON creators (creator_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_creators_name_slug ON creators (creator_name_slug) WHERE creator_name_slug IS NOT NULL`,

		`CREATE TABLE IF NOT EXISTS screenshots (
			id TEXT PRIMARY KEY,
			creator_id TEXT NOT NULL,
			city_name TEXT NOT NULL,
			city_milestone INTEGER NOT NULL,
			city_population BIGINT NOT NULL,
			blob_thumbnail TEXT NOT NULL DEFAULT '',
			blob_fhd TEXT NOT NULL DEFAULT '',
			blob_4k TEXT NOT NULL DEFAULT '',
			hwid TEXT,
			ip TEXT NOT NULL,
			mod_ids TEXT NOT NULL DEFAULT '[]',
			render_settings TEXT NOT NULL DEFAULT '{}',
			metadata TEXT NOT NULL DEFAULT '{}',
			is_approved BOOLEAN NOT NULL DEFAULT false,
			is_reported BOOLEAN NOT NULL DEFAULT false,
			reported_by_id TEXT,
			favorites_count BIGINT NOT NULL DEFAULT 0,
			views_count BIGINT NOT NULL DEFAULT 0,
			unique_views_count BIGINT NOT NULL DEFAULT 0,
			favoriting_percentage BIGINT NOT NULL DEFAULT 0,
			views_per_day DOUBLE NOT NULL DEFAULT 0,
			favorites_per_day DOUBLE NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE INDEX IF NOT EXISTS idx_screenshots_reported_favoriting ON screenshots (is_reported, favoriting_percentage)`,
		`CREATE INDEX IF NOT EXISTS idx_screenshots_reported_created ON screenshots (is_reported, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_screenshots_reported_views_created ON screenshots (is_reported, views_count, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_screenshots_creator ON screenshots (creator_id)`,

		`CREATE TABLE IF NOT EXISTS favorites (
			id TEXT PRIMARY KEY,
			screenshot_id TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			ip TEXT NOT NULL,
			hwid TEXT,
			favorited_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_favorites_screenshot_creator ON favorites (screenshot_id, creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_screenshot ON favorites (screenshot_id)`,

		`CREATE TABLE IF NOT EXISTS views (
			id TEXT PRIMARY KEY,
			screenshot_id TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			viewed_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_views_screenshot_creator ON views (screenshot_id, creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_views_creator ON views (creator_id)`,

		`CREATE TABLE IF NOT EXISTS bans (
			id TEXT PRIMARY KEY,
			creator_id TEXT,
			ip TEXT,
			hwid TEXT,
			reason TEXT NOT NULL,
			banned_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bans_creator ON bans (creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bans_ip ON bans (ip)`,
		`CREATE INDEX IF NOT EXISTS idx_bans_hwid ON bans (hwid)`,

		`CREATE TABLE IF NOT EXISTS feature_embeddings (
			id TEXT PRIMARY KEY,
			screenshot_id TEXT NOT NULL,
			vector BLOB NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_embeddings_screenshot ON feature_embeddings (screenshot_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed (%.60s...): %w", stmt, err)
		}
	}
	return nil
}
