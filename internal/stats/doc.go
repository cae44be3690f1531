// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package stats implements the Stats Reconciler (C8): an in-process dirty
// id set durably backed by BadgerDB, a five-minute drain cron, a daily
// full reconcile, and an hourly derived-average recompute.
package stats
