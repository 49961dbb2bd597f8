// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the idlewatch terminal host.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Theme probes the terminal with termenv; tests build one for a
fixed profile with NewThemeWithProfile.

# Colors (colors.go)

  - Emerald - session active
  - Amber - idle warning and countdown
  - Rose - signed out
  - Purple, Cyan - titles and key hints

Status indicators ([OK], [X], [!]) accompany color so state is readable
without it.
*/
package styles
