// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package creators implements the Creator Registry (C5): the simple and
// mod authentication variants, identity-list maintenance (ips/hwids
// prepend+dedup+clamp to three), and slug derivation. The dispatch shape
// is grounded on the teacher's multi-authenticator chain-of-responsibility,
// narrowed to the two header-scheme variants this domain actually has.
package creators
