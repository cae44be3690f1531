// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package access

import (
	"context"
	"net/url"
	"strings"

	"github.com/tomtom215/cartographus/internal/apperr"
	"github.com/tomtom215/cartographus/internal/bans"
	"github.com/tomtom215/cartographus/internal/creators"
	"github.com/tomtom215/cartographus/internal/database"
)

type contextKey string

// CreatorContextKey is where Authorize attaches the authenticated creator.
const CreatorContextKey contextKey = "access.creator"

// CreatorFromContext returns the creator attached by a prior Authorize
// call. ok is false for an anonymous request (no header was presented).
func CreatorFromContext(ctx context.Context) (*database.Creator, bool) {
	c, ok := ctx.Value(CreatorContextKey).(*database.Creator)
	return c, ok
}

// Guard is the §4.11 authorisation surface, composing the Ban Registry (C4)
// and the Creator Registry (C5).
type Guard struct {
	bans     *bans.Registry
	creators *creators.Registry
}

// New builds a Guard.
func New(b *bans.Registry, c *creators.Registry) *Guard {
	return &Guard{bans: b, creators: c}
}

// Authorize parses header (the raw Authorization header value) and ip (the
// caller's remote address), runs the ban and authentication checks, and
// returns a context with the authenticated creator attached. A missing
// header is anonymous pass-through: Authorize returns ctx unchanged and a
// nil error, leaving it to the caller to decide whether anonymity is
// acceptable for the operation at hand (spec.md §4.11).
func (g *Guard) Authorize(ctx context.Context, header, ip string) (context.Context, error) {
	if header == "" {
		return ctx, nil
	}

	switch {
	case strings.HasPrefix(header, "Creator "):
		return g.authorizeMod(ctx, strings.TrimPrefix(header, "Creator "), ip)
	case strings.HasPrefix(header, "CreatorID "):
		return g.authorizeSimple(ctx, strings.TrimPrefix(header, "CreatorID "), ip)
	default:
		return ctx, apperr.New(apperr.InvalidPayload, "unrecognized Authorization scheme")
	}
}

// authorizeSimple handles `CreatorID <uuid4>` (spec.md §6).
func (g *Guard) authorizeSimple(ctx context.Context, creatorID, ip string) (context.Context, error) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return ctx, apperr.New(apperr.InvalidPayload, "CreatorID scheme requires a uuid4")
	}

	if err := g.bans.EnsureNotBanned(ctx, ip, nil); err != nil {
		return ctx, err
	}

	c, err := g.creators.AuthenticateSimple(ctx, creatorID, ip)
	if err != nil {
		return ctx, err
	}

	if err := g.bans.EnsureCreatorNotBanned(ctx, c.CreatorID); err != nil {
		return ctx, err
	}

	return context.WithValue(ctx, CreatorContextKey, c), nil
}

// authorizeMod handles `Creator name=<urlenc>&id=<uuid4>&provider=paradox|local&hwid=<non-empty>`
// (spec.md §6). name may be empty (anonymous creator).
func (g *Guard) authorizeMod(ctx context.Context, body, ip string) (context.Context, error) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return ctx, apperr.New(apperr.InvalidPayload, "malformed Creator authorization header")
	}

	id := values.Get("id")
	provider := values.Get("provider")
	hwid := values.Get("hwid")
	name := values.Get("name")

	if id == "" {
		return ctx, apperr.New(apperr.InvalidPayload, "Creator scheme requires id")
	}
	if provider != "paradox" && provider != "local" {
		return ctx, apperr.New(apperr.InvalidPayload, "provider must be paradox or local")
	}
	if hwid == "" {
		return ctx, apperr.New(apperr.InvalidPayload, "Creator scheme requires a non-empty hwid")
	}

	hwidPtr := &hwid
	if err := g.bans.EnsureNotBanned(ctx, ip, hwidPtr); err != nil {
		return ctx, err
	}

	in := creators.ModAuthInput{
		CreatorID:         id,
		CreatorIDProvider: provider,
		HWID:              hwid,
		IP:                ip,
	}
	if name != "" {
		in.CreatorName = &name
	}

	c, err := g.creators.AuthenticateMod(ctx, in)
	if err != nil {
		return ctx, err
	}

	if err := g.bans.EnsureCreatorNotBanned(ctx, c.CreatorID); err != nil {
		return ctx, err
	}

	return context.WithValue(ctx, CreatorContextKey, c), nil
}
