// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package creators

// prependDedupClamp prepends value to list (if non-empty), deduplicates
// while preserving the newest-first order, and clamps to at most three
// entries -- the "up to three most-recent IPs/HWIDs" rule of spec.md §3.
func prependDedupClamp(list []string, value string) []string {
	if value == "" {
		return list
	}
	if len(list) > 0 && list[0] == value {
		return list
	}

	out := make([]string, 0, len(list)+1)
	out = append(out, value)
	for _, v := range list {
		if v == value {
			continue
		}
		out = append(out, v)
	}

	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
