// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the host's keyboard bindings.
type KeyMap struct {
	Continue key.Binding
	Logout   key.Binding
	SignIn   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Continue: key.NewBinding(
			key.WithKeys("enter", "c"),
			key.WithHelp("Enter/c", "stay signed in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log out now"),
		),
		SignIn: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "sign in again"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the session view footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Logout, k.Quit}
}
