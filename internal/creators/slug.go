// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package creators

import (
	"regexp"
	"strings"
)

var (
	creatorNamePattern = regexp.MustCompile(`^[\p{L}\p{N} '’\-_.]{1,25}$`)
	uuidV4Pattern      = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)
	slugSeparatorRun   = regexp.MustCompile(`[\s-]+`)
)

// IsValidCreatorID reports whether id is a well-formed UUID-v4 (spec.md
// §4.5: "both validated with creatorId ≡ UUID-v4").
func IsValidCreatorID(id string) bool {
	return uuidV4Pattern.MatchString(id)
}

// IsValidCreatorName reports whether name satisfies the 1-25 code-point
// restricted-regex constraint of spec.md §3.
func IsValidCreatorName(name string) bool {
	return creatorNamePattern.MatchString(name)
}

// Slug derives creatorNameSlug per spec.md §4.5: strip ' and ’, collapse
// runs of spaces or hyphens to a single hyphen, trim leading/trailing
// hyphens, case-fold. Null/empty input yields an empty slug.
func Slug(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ReplaceAll(name, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	s = slugSeparatorRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ToLower(s)
}
