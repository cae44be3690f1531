// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package testinfra

import (
	"testing"

	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/database"
)

// NewTestDB opens a real DuckDB file under t.TempDir() and schedules it to
// close on test cleanup. Every domain package's own tests build this same
// way (a per-test file rather than an in-memory fake), since DuckDB's
// pragma/extension behavior doesn't reliably reproduce against a stub.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:    t.TempDir() + "/test.duckdb",
		Threads: 1,
	})
	if err != nil {
		t.Fatalf("testinfra: failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}
