// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package favorites implements the Favorite Tracker (C7): "one identity,
// one favorite" add/remove and batched isFavorite lookups, resolving the
// acting creator's most-recent ip/hwid for the row it writes.
package favorites
