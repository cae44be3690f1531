// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package views implements the View Tracker (C6): markViewed semantics and
// a per-creator seen-set cache backed by the generic LRU adaptation in
// internal/cache.
package views
