// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package similarity implements the Similarity Engine (C9): the main-process
// side of the feature-vector IPC protocol, an in-memory cosine-distance
// vector index, and batch embedding maintenance.
package similarity
