// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package cache provides a thread-safe, generic, TTL-bounded LRU cache.

ValueLRU is used by the Ban Registry (internal/bans) to cache recent
ban/not-banned lookups per ip/hwid/creatorId, and by the View Tracker
(internal/views) to cache the per-creator set of screenshot ids seen
within the current view-dedup window. Both reuse the same doubly-linked-
list-plus-map design over an arbitrary value type, so a ban lookup caches
an *apperr.Error and a view lookup caches a []string without either
caller needing its own eviction bookkeeping.
*/
package cache
