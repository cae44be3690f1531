// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package views

import (
	"context"
	"database/sql"
	"time"

	"github.com/tomtom215/cartographus/internal/cache"
	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// Per spec.md §4.6: "max 100 creators, ~10k ids total, 2-hour TTL". The
// ~10k-ids-total figure is an expected aggregate, not a second capacity
// dimension the cache itself enforces.
const (
	cacheCapacity = 100
	cacheTTL      = 2 * time.Hour
)

// Tracker is the View Tracker (C6).
type Tracker struct {
	db    *database.DB
	cache *cache.ValueLRU[[]string]
}

// New builds a Tracker backed by db.
func New(db *database.DB) *Tracker {
	return &Tracker{
		db:    db,
		cache: cache.NewValueLRU[[]string](cacheCapacity, cacheTTL),
	}
}

// MarkViewed creates or touches a view row for (screenshotId, creatorId),
// bumps viewsCount on first view, and updates the per-creator seen-set
// cache in place (spec.md §4.6).
func (t *Tracker) MarkViewed(ctx context.Context, screenshotID, creatorID string) error {
	created, err := database.RunTx(ctx, t.db, 0, func(ctx context.Context, tx *sql.Tx) (bool, error) {
		created, err := database.MarkViewedTx(ctx, tx, screenshotID, creatorID)
		if err != nil {
			return false, err
		}
		if created {
			if err := database.BumpViewsCountTx(ctx, tx, screenshotID); err != nil {
				return false, err
			}
		}
		return created, nil
	})
	if err != nil {
		return err
	}

	t.addToCache(creatorID, screenshotID)
	return nil
}

func (t *Tracker) addToCache(creatorID, screenshotID string) {
	ids, ok := t.cache.Get(creatorID)
	if !ok {
		// Cache miss: leave population to the next GetViewedScreenshotIDs
		// call rather than guessing at the full set from a single id.
		return
	}
	for _, id := range ids {
		if id == screenshotID {
			return
		}
	}
	t.cache.Add(creatorID, append(ids, screenshotID))
}

// GetViewedScreenshotIDs returns the set of screenshot ids viewed by
// creatorID within maxAgeDays (0 means open-ended). Only the open-ended
// query is cached; bounded windows always hit the database since the
// cache does not retain per-id timestamps.
func (t *Tracker) GetViewedScreenshotIDs(ctx context.Context, creatorID string, maxAgeDays int) ([]string, error) {
	if maxAgeDays != 0 {
		return t.db.GetViewedScreenshotIDs(ctx, creatorID, maxAgeDays)
	}

	if ids, ok := t.cache.Get(creatorID); ok {
		metrics.RecordCacheHit("view")
		return ids, nil
	}
	metrics.RecordCacheMiss("view")

	ids, err := t.db.GetViewedScreenshotIDs(ctx, creatorID, 0)
	if err != nil {
		return nil, err
	}
	t.cache.Add(creatorID, ids)
	return ids, nil
}
