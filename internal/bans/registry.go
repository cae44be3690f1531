// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package bans

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tomtom215/cartographus/internal/apperr"
	"github.com/tomtom215/cartographus/internal/audit"
	"github.com/tomtom215/cartographus/internal/cache"
	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/metrics"
)

const (
	cacheCapacity = 200
	cacheTTL      = 5 * time.Minute
)

// BanAuditor is the narrow slice of internal/audit.Logger BanCreator needs.
type BanAuditor interface {
	LogBanCreated(ctx context.Context, creatorID, reason string, source audit.Source)
}

// Registry is the Ban Registry (C4). A nil cached value means "confirmed
// unbanned"; a non-nil cached *apperr.Error means "confirmed banned".
type Registry struct {
	db    *database.DB
	cache *cache.ValueLRU[*apperr.Error]
	audit BanAuditor
}

// New builds a Registry backed by db. auditor may be nil in tests that
// don't exercise the audit trail.
func New(db *database.DB, auditor BanAuditor) *Registry {
	return &Registry{
		db:    db,
		cache: cache.NewValueLRU[*apperr.Error](cacheCapacity, cacheTTL),
		audit: auditor,
	}
}

// EnsureNotBanned raises BannedCreator or BannedIdentity if ip or hwid
// match a ban row, short-circuiting on cache hits (spec.md §4.4).
func (r *Registry) EnsureNotBanned(ctx context.Context, ip string, hwid *string) error {
	if cached, ok := r.cache.Get(ip); ok {
		metrics.RecordCacheHit("ban")
		return asError(cached)
	}
	if hwid != nil {
		if cached, ok := r.cache.Get(*hwid); ok {
			metrics.RecordCacheHit("ban")
			return asError(cached)
		}
	}
	metrics.RecordCacheMiss("ban")

	ban, err := r.db.FindBan(ctx, nil, &ip, hwid)
	if err != nil {
		return fmt.Errorf("failed to check ban registry: %w", err)
	}

	banErr, err := r.resolveBanError(ctx, ban)
	if err != nil {
		return err
	}

	r.cache.Add(ip, banErr)
	if hwid != nil {
		r.cache.Add(*hwid, banErr)
	}
	return asError(banErr)
}

// EnsureCreatorNotBanned raises BannedCreator if the creator's id is
// banned, short-circuiting on a cache hit.
func (r *Registry) EnsureCreatorNotBanned(ctx context.Context, creatorID string) error {
	if cached, ok := r.cache.Get(creatorID); ok {
		metrics.RecordCacheHit("ban")
		return asError(cached)
	}
	metrics.RecordCacheMiss("ban")

	ban, err := r.db.FindBan(ctx, &creatorID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to check ban registry: %w", err)
	}

	banErr, err := r.resolveBanError(ctx, ban)
	if err != nil {
		return err
	}

	r.cache.Add(creatorID, banErr)
	return asError(banErr)
}

// resolveBanError turns a ban row into the appropriate *apperr.Error: if
// the row carries a creatorId, resolve that creator so the message can
// name them and raise the creator-specific variant; otherwise raise the
// IP/HWID variant (spec.md §4.4).
func (r *Registry) resolveBanError(ctx context.Context, ban *database.Ban) (*apperr.Error, error) {
	if ban == nil {
		return nil, nil
	}
	if ban.CreatorID != nil {
		name := *ban.CreatorID
		creator, err := r.db.GetCreatorByCreatorID(ctx, *ban.CreatorID)
		if err != nil && !apperr.Is(err, apperr.CreatorNotFound) {
			return nil, fmt.Errorf("failed to resolve banned creator: %w", err)
		}
		if creator != nil && creator.CreatorName != nil {
			name = *creator.CreatorName
		}
		return apperr.New(apperr.BannedCreator, fmt.Sprintf("creator %q is banned: %s", name, ban.Reason)), nil
	}
	return apperr.New(apperr.BannedIdentity, "this identity is banned: "+ban.Reason), nil
}

func asError(e *apperr.Error) error {
	if e == nil {
		return nil
	}
	return e
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeReason trims, collapses whitespace, lowercases, and strips a
// trailing period (spec.md §4.4).
func normalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	reason = whitespaceRun.ReplaceAllString(reason, " ")
	reason = strings.ToLower(reason)
	reason = strings.TrimSuffix(reason, ".")
	return reason
}

// BanCreator normalises reason and writes one ban row per identifier
// (creatorId + each known IP + each known HWID) in a single batch,
// invalidating each cache key first (spec.md §4.4).
func (r *Registry) BanCreator(ctx context.Context, creator *database.Creator, reason string) error {
	reason = normalizeReason(reason)

	r.cache.Remove(creator.CreatorID)
	for _, ip := range creator.IPs {
		r.cache.Remove(ip)
	}
	for _, hwid := range creator.HWIDs {
		r.cache.Remove(hwid)
	}

	if err := r.db.InsertBans(ctx, creator.CreatorID, creator.IPs, creator.HWIDs, reason); err != nil {
		return err
	}

	if r.audit != nil {
		r.audit.LogBanCreated(ctx, creator.CreatorID, reason, audit.Source{})
	}
	return nil
}
