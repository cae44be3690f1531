// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package bans implements the Ban Registry (C4): a TTL-LRU-cached lookup
// over the bans table, keyed by IP, HWID, or creator id and valued by
// either a confirmed-unbanned marker or a cached ban error.
package bans
