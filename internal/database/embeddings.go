// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// UpsertFeatureEmbedding writes or replaces the stored vector for a
// screenshot (C9 publishes one after its worker computes it).
func (db *DB) UpsertFeatureEmbedding(ctx context.Context, screenshotID string, vector []float32) error {
	existing, err := db.GetFeatureEmbedding(ctx, screenshotID)
	if err != nil {
		return err
	}

	blob := encodeVector(vector)
	if existing != nil {
		_, err := db.conn.ExecContext(ctx, `UPDATE feature_embeddings SET vector = ? WHERE screenshot_id = ?`, blob, screenshotID)
		if err != nil {
			return fmt.Errorf("failed to update feature embedding: %w", err)
		}
		return nil
	}

	id, err := newShortID()
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `INSERT INTO feature_embeddings (id, screenshot_id, vector) VALUES (?, ?, ?)`,
		id, screenshotID, blob)
	if err != nil {
		return fmt.Errorf("failed to insert feature embedding: %w", err)
	}
	return nil
}

// GetFeatureEmbedding returns the stored vector for a screenshot, or nil if
// none has been computed yet.
func (db *DB) GetFeatureEmbedding(ctx context.Context, screenshotID string) (*FeatureEmbedding, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT id, screenshot_id, vector FROM feature_embeddings WHERE screenshot_id = ?`, screenshotID)
	var e FeatureEmbedding
	var blob []byte
	if err := row.Scan(&e.ID, &e.ScreenshotID, &blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feature embedding: %w", err)
	}
	e.Vector = decodeVector(blob)
	return &e, nil
}

// ListFeatureEmbeddings returns every stored embedding, for the in-memory
// cosine-similarity index C9 builds at startup and refreshes incrementally.
func (db *DB) ListFeatureEmbeddings(ctx context.Context) ([]*FeatureEmbedding, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, screenshot_id, vector FROM feature_embeddings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feature embeddings: %w", err)
	}
	defer rows.Close()

	var out []*FeatureEmbedding
	for rows.Next() {
		var e FeatureEmbedding
		var blob []byte
		if err := rows.Scan(&e.ID, &e.ScreenshotID, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan feature embedding row: %w", err)
		}
		e.Vector = decodeVector(blob)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// DeleteFeatureEmbedding removes a screenshot's vector, called on screenshot
// delete outside the owning transaction (vectors are cache state, not
// authoritative data).
func (db *DB) DeleteFeatureEmbedding(ctx context.Context, screenshotID string) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM feature_embeddings WHERE screenshot_id = ?`, screenshotID)
	if err != nil {
		return fmt.Errorf("failed to delete feature embedding: %w", err)
	}
	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
