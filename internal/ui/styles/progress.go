// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "strings"

// Progress bar glyphs, ASCII-safe.
const (
	ProgressFull  = "#"
	ProgressEmpty = "-"
)

// RenderProgressBar renders a bar width characters wide with fraction
// (0 to 1) of it filled. Out-of-range fractions are clamped.
func RenderProgressBar(width int, fraction float64) string {
	if width <= 0 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := int(float64(width)*fraction + 0.5)
	return strings.Repeat(ProgressFull, filled) + strings.Repeat(ProgressEmpty, width-filled)
}
