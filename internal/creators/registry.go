// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package creators

import (
	"context"
	"fmt"

	"github.com/tomtom215/cartographus/internal/apperr"
	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/logging"
)

// TranslationScheduler is implemented by internal/events; kept as an
// interface here so this package does not import the event bus directly.
type TranslationScheduler interface {
	ScheduleNameTranslation(ctx context.Context, creatorID string) error
}

// IDResetAuditor is the narrow slice of internal/audit.Logger the
// creator-id-reset path needs, to record a creator.id_reset event.
type IDResetAuditor interface {
	LogCreatorIDReset(ctx context.Context, creatorDBID, oldCreatorID, newCreatorID string)
}

// Registry is the Creator Registry (C5).
type Registry struct {
	db           *database.DB
	translations TranslationScheduler
	audit        IDResetAuditor
}

// New builds a Registry. translations and audit may be nil in tests that
// don't care about those side effects.
func New(db *database.DB, translations TranslationScheduler, audit IDResetAuditor) *Registry {
	return &Registry{db: db, translations: translations, audit: audit}
}

// AuthenticateSimple is the `simple` variant (spec.md §4.5): look up by
// creatorId, prepend+dedup+clamp the current ip.
func (r *Registry) AuthenticateSimple(ctx context.Context, creatorID, ip string) (*database.Creator, error) {
	if !IsValidCreatorID(creatorID) {
		return nil, apperr.New(apperr.InvalidCreatorID, "creatorId must be a UUID-v4")
	}

	c, err := r.db.GetCreatorByCreatorID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	newIPs := prependDedupClamp(c.IPs, ip)
	if !stringsEqual(newIPs, c.IPs) {
		c.IPs = newIPs
		if err := r.db.UpdateCreator(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ModAuthInput is the input to AuthenticateMod.
type ModAuthInput struct {
	CreatorID         string
	CreatorIDProvider string
	CreatorName       *string
	HWID              string
	IP                string
}

// AuthenticateMod is the `mod` variant (spec.md §4.5). It handles all four
// row-count cases and the race-retry-once rule for the create path.
func (r *Registry) AuthenticateMod(ctx context.Context, in ModAuthInput) (*database.Creator, error) {
	if !IsValidCreatorID(in.CreatorID) {
		return nil, apperr.New(apperr.InvalidCreatorID, "creatorId must be a UUID-v4")
	}

	name := ""
	if in.CreatorName != nil {
		name = *in.CreatorName
	}
	if name != "" && !IsValidCreatorName(name) {
		return nil, apperr.New(apperr.InvalidCreatorName, "creatorName fails validation")
	}
	slug := Slug(name)

	c, err := r.authenticateModOnce(ctx, in, name, slug)
	if err == nil {
		return c, nil
	}
	if !apperr.Is(err, apperr.Conflict) {
		return nil, err
	}

	// The whole mod flow may race with itself: a unique-constraint
	// violation from the create path is recovered by retrying the
	// lookup+update path exactly once (spec.md §4.5).
	logging.Warn().Str("creator_id", in.CreatorID).Msg("mod auth create raced, retrying lookup once")
	return r.authenticateModOnce(ctx, in, name, slug)
}

func (r *Registry) authenticateModOnce(ctx context.Context, in ModAuthInput, name, slug string) (*database.Creator, error) {
	matches, err := r.db.FindCreatorsByIDOrNameOrSlug(ctx, in.CreatorID, name, slug)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return r.createCreator(ctx, in, name, slug)
	case 1:
		return r.authenticateExisting(ctx, matches[0], in, name, slug)
	case 2:
		return nil, &apperr.Error{
			Kind:              apperr.IncorrectCreatorID,
			Message:           "this name is already claimed by another account",
			ConflictCreatorID: conflictingCreatorID(matches, in.CreatorID),
		}
	default:
		return nil, fmt.Errorf("invariant violation: %d creators matched id/name/slug for %s", len(matches), in.CreatorID)
	}
}

func (r *Registry) createCreator(ctx context.Context, in ModAuthInput, name, slug string) (*database.Creator, error) {
	c := &database.Creator{
		CreatorID:         in.CreatorID,
		CreatorIDProvider: in.CreatorIDProvider,
		IPs:               []string{in.IP},
		HWIDs:             []string{in.HWID},
	}
	if name != "" {
		c.CreatorName = &name
		c.CreatorNameSlug = &slug
		c.NeedsTranslation = true
	}

	if err := r.db.InsertCreator(ctx, c); err != nil {
		return nil, err
	}

	if name != "" && r.translations != nil {
		if err := r.translations.ScheduleNameTranslation(ctx, c.ID); err != nil {
			logging.Warn().Err(err).Str("creator_id", c.ID).Msg("failed to schedule name translation")
		}
	}
	return c, nil
}

func (r *Registry) authenticateExisting(ctx context.Context, c *database.Creator, in ModAuthInput, name, slug string) (*database.Creator, error) {
	if c.CreatorID != in.CreatorID && !c.AllowCreatorIDReset {
		return nil, &apperr.Error{
			Kind:              apperr.IncorrectCreatorID,
			Message:           "creatorId does not match the account on file",
			ConflictCreatorID: c.CreatorID,
		}
	}

	changed := false
	nameChanged := false
	idReset := false
	oldCreatorID := c.CreatorID

	if name != "" {
		currentName := ""
		if c.CreatorName != nil {
			currentName = *c.CreatorName
		}
		if name != currentName {
			c.CreatorName = &name
			c.CreatorNameSlug = &slug
			nameChanged = true
			changed = true
		}
	}

	newIPs := prependDedupClamp(c.IPs, in.IP)
	if !stringsEqual(newIPs, c.IPs) {
		c.IPs = newIPs
		changed = true
	}
	newHWIDs := prependDedupClamp(c.HWIDs, in.HWID)
	if !stringsEqual(newHWIDs, c.HWIDs) {
		c.HWIDs = newHWIDs
		changed = true
	}

	if c.AllowCreatorIDReset {
		c.CreatorID = in.CreatorID
		c.AllowCreatorIDReset = false
		changed = true
		idReset = true
	}
	if c.CreatorIDProvider != in.CreatorIDProvider {
		c.CreatorIDProvider = in.CreatorIDProvider
		changed = true
	}

	if changed {
		if err := r.db.UpdateCreator(ctx, c); err != nil {
			return nil, err
		}
	}

	if nameChanged && r.translations != nil {
		if err := r.translations.ScheduleNameTranslation(ctx, c.ID); err != nil {
			logging.Warn().Err(err).Str("creator_id", c.ID).Msg("failed to schedule name translation")
		}
	}

	if idReset && r.audit != nil {
		r.audit.LogCreatorIDReset(ctx, c.ID, oldCreatorID, c.CreatorID)
	}

	return c, nil
}

func conflictingCreatorID(matches []*database.Creator, presentedID string) string {
	for _, m := range matches {
		if m.CreatorID != presentedID {
			return m.CreatorID
		}
	}
	return ""
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
