// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package database implements the Persistence Gateway (C1): typed CRUD,
// aggregation queries, and a transaction primitive over an embedded DuckDB
// file standing in for the document store described in spec.md §6. ObjectId
// values are 24-hex strings; JSON-shaped fields (renderSettings, metadata,
// socials, ip/hwid lists) are stored as TEXT columns marshaled with
// goccy/go-json, the same pattern the teacher uses for its own JSON
// columns (see newsletter.go in the original).
package database
