// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds the file helpers shared by the config and audit
// packages.
//
//   - EnsurePrivateDir: create a directory only the owner can read
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
package util
