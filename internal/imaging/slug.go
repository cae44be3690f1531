// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package imaging

import (
	"strings"
	"unicode"
)

// ContextSlug builds the ASCII transliteration of "{cityName}-by-{creatorName}"
// used in blob filenames (spec.md §4.2). When transliteration of the
// combined string yields nothing usable, it falls back to the cityName
// slug alone, then the creatorName slug, then the literal "screenshot".
func ContextSlug(cityName, creatorName string) string {
	combined := asciiSlug(cityName + "-by-" + creatorName)
	if combined != "" {
		return combined
	}
	if s := asciiSlug(cityName); s != "" {
		return s
	}
	if s := asciiSlug(creatorName); s != "" {
		return s
	}
	return "screenshot"
}

// asciiSlug lowercases, strips to ASCII letters/digits/hyphens, collapses
// runs of separators to a single hyphen, and trims leading/trailing
// hyphens. Non-Latin input transliterates to nothing, which callers use as
// the signal to fall back (spec.md §4.2).
func asciiSlug(s string) string {
	var b strings.Builder
	lastWasSep := true // so leading separators are dropped
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasSep = false
		case unicode.IsSpace(r), r == '-', r == '_':
			if !lastWasSep {
				b.WriteByte('-')
				lastWasSep = true
			}
		default:
			// non-ASCII / punctuation: dropped, not substituted, so that
			// pure non-Latin input collapses to empty and triggers fallback.
		}
	}
	return strings.Trim(b.String(), "-")
}
