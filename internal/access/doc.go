// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package access implements the single authorisation guard that runs before
// any writeable screenshot-lifecycle operation (spec.md §4.11): parse the
// Authorization header, check IP/HWID and creator bans (C4), authenticate
// the creator (C5), check creator bans again, and attach the result to the
// context. A missing header is anonymous pass-through; callers decide
// whether that is acceptable for the operation at hand.
package access
