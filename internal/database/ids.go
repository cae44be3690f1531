// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewObjectID returns a fresh 24-hex-character identifier, matching the
// document-store ObjectId convention spec.md assumes throughout (spec.md
// §3, §6): 12 random bytes hex-encoded, not a Mongo ObjectID's
// timestamp+counter layout, since nothing in the engine depends on
// lexicographic time ordering of the ID itself.
func NewObjectID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate object id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsValidObjectID reports whether s is a well-formed 24-hex-character id.
func IsValidObjectID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

// newShortID returns a fresh 16-hex-character identifier, the narrower id
// spec.md §4.9 calls for on feature_embeddings rows specifically ("a fresh
// 16-hex id on create") rather than the 24-hex ObjectId convention used
// everywhere else.
func newShortID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate short id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
