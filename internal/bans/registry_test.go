// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package bans

import (
	"context"
	"testing"

	"github.com/tomtom215/cartographus/internal/apperr"
	"github.com/tomtom215/cartographus/internal/audit"
	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/database"
)

func newTestRegistry(t *testing.T) (*Registry, *database.DB) {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: t.TempDir() + "/test.duckdb", Threads: 1})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, nil), db
}

type fakeAuditor struct {
	calls     int
	creatorID string
	reason    string
}

func (f *fakeAuditor) LogBanCreated(ctx context.Context, creatorID, reason string, source audit.Source) {
	f.calls++
	f.creatorID = creatorID
	f.reason = reason
}

func TestNormalizeReason(t *testing.T) {
	cases := map[string]string{
		"  Spam  Bot.   ": "spam bot",
		"ALREADY LOWER":   "already lower",
		"no trailing dot": "no trailing dot",
	}
	for in, want := range cases {
		if got := normalizeReason(in); got != want {
			t.Errorf("normalizeReason(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnsureNotBannedThenBanCreator(t *testing.T) {
	r, db := newTestRegistry(t)
	ctx := context.Background()

	name := "Alice"
	slug := "alice"
	c := &database.Creator{
		CreatorID:         "creator-a",
		CreatorIDProvider: "paradox",
		CreatorName:       &name,
		CreatorNameSlug:   &slug,
		IPs:               []string{"1.2.3.4"},
		HWIDs:             []string{"H1"},
	}
	if err := db.InsertCreator(ctx, c); err != nil {
		t.Fatalf("InsertCreator: %v", err)
	}

	if err := r.EnsureNotBanned(ctx, "1.2.3.4", nil); err != nil {
		t.Fatalf("expected no ban yet, got %v", err)
	}

	if err := r.BanCreator(ctx, c, "Spam.  "); err != nil {
		t.Fatalf("BanCreator: %v", err)
	}

	err := r.EnsureNotBanned(ctx, "1.2.3.4", nil)
	if !apperr.Is(err, apperr.BannedIdentity) {
		t.Fatalf("expected BannedIdentity, got %v", err)
	}

	err = r.EnsureCreatorNotBanned(ctx, "creator-a")
	if !apperr.Is(err, apperr.BannedCreator) {
		t.Fatalf("expected BannedCreator, got %v", err)
	}
}

func TestBanCreatorLogsAuditEvent(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: t.TempDir() + "/test.duckdb", Threads: 1})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	auditor := &fakeAuditor{}
	r := New(db, auditor)
	ctx := context.Background()

	name := "Bob"
	slug := "bob"
	c := &database.Creator{
		CreatorID:         "creator-b",
		CreatorIDProvider: "paradox",
		CreatorName:       &name,
		CreatorNameSlug:   &slug,
		IPs:               []string{"5.6.7.8"},
	}
	if err := db.InsertCreator(ctx, c); err != nil {
		t.Fatalf("InsertCreator: %v", err)
	}

	if err := r.BanCreator(ctx, c, "Spam.  "); err != nil {
		t.Fatalf("BanCreator: %v", err)
	}

	if auditor.calls != 1 {
		t.Fatalf("expected 1 audit call, got %d", auditor.calls)
	}
	if auditor.creatorID != "creator-b" {
		t.Fatalf("expected creatorID creator-b, got %q", auditor.creatorID)
	}
	if auditor.reason != "spam" {
		t.Fatalf("expected normalized reason %q, got %q", "spam", auditor.reason)
	}
}
