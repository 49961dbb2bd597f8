// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual pieces of the idlewatch terminal host.

Components are plain values with Set* mutators and a View method; the host
model owns them and feeds them state from the session supervisor.

  - Header (header.go) - brand and the active idle policy.
  - StatusBar (statusbar.go) - session state, idle time and countdown.
  - TimeoutOverlay (timeout_overlay.go) - countdown modal and the
    signed-out notice.
*/
package components
