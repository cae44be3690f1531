// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package testinfra

import "testing"

func TestNewTestDB(t *testing.T) {
	db := NewTestDB(t)
	if db == nil {
		t.Fatal("NewTestDB returned nil")
	}
	if err := db.OnStartup(t.Context()); err != nil {
		t.Fatalf("database did not come up cleanly: %v", err)
	}
}
