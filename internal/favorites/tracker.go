// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package favorites

import (
	"context"
	"database/sql"

	"github.com/tomtom215/cartographus/internal/database"
)

// Tracker is the Favorite Tracker (C7).
type Tracker struct {
	db *database.DB
}

// New builds a Tracker backed by db.
func New(db *database.DB) *Tracker {
	return &Tracker{db: db}
}

// AddFavorite records screenshotID as favorited by creatorID, using the
// creator's most-recent ip (required) and most-recent hwid (nullable) for
// the row, and raises apperr.AlreadyFavorited if any of the creator's
// identities (creatorId, ips, hwids) already has a favorite on this
// screenshot (spec.md §4.7).
func (t *Tracker) AddFavorite(ctx context.Context, screenshotID, creatorID string) error {
	c, err := t.db.GetCreatorByID(ctx, creatorID)
	if err != nil {
		return err
	}

	ip := ""
	if len(c.IPs) > 0 {
		ip = c.IPs[0]
	}
	var hwid *string
	if len(c.HWIDs) > 0 {
		hwid = &c.HWIDs[0]
	}

	_, err = database.RunTx(ctx, t.db, 0, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		return struct{}{}, database.AddFavoriteTx(ctx, tx, t.db, screenshotID, creatorID, ip, hwid, c.IPs, c.HWIDs)
	})
	return err
}

// RemoveFavorite is the mirror of AddFavorite, raising apperr.NotFavorited
// if none of the creator's identities has a favorite on this screenshot.
func (t *Tracker) RemoveFavorite(ctx context.Context, screenshotID, creatorID string) error {
	c, err := t.db.GetCreatorByID(ctx, creatorID)
	if err != nil {
		return err
	}

	_, err = database.RunTx(ctx, t.db, 0, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		return struct{}{}, database.RemoveFavoriteTx(ctx, tx, t.db, screenshotID, creatorID, c.IPs, c.HWIDs)
	})
	return err
}

// IsFavorite reports whether creatorID's identity has favorited
// screenshotID.
func (t *Tracker) IsFavorite(ctx context.Context, screenshotID, creatorID string) (bool, error) {
	results, err := t.IsFavoriteBatch(ctx, []string{screenshotID}, creatorID)
	if err != nil {
		return false, err
	}
	return results[0], nil
}

// IsFavoriteBatch reports, in input order, whether creatorID's identity has
// favorited each of screenshotIDs.
func (t *Tracker) IsFavoriteBatch(ctx context.Context, screenshotIDs []string, creatorID string) ([]bool, error) {
	c, err := t.db.GetCreatorByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return t.db.IsFavoriteBatch(ctx, screenshotIDs, creatorID, c.IPs, c.HWIDs)
}
