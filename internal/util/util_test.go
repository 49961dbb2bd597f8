// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := AtomicWriteFile(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile overwrite failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != "second" {
		t.Errorf("Content = %q, want %q", content, "second")
	}
}

func TestAtomicWriteFile_CreatesPrivateParent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".idlewatch")
	path := filepath.Join(dir, "config.yaml")

	if err := AtomicWriteFile(path, []byte("session: {}\n"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("parent not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != PrivateDirPerm {
		t.Errorf("parent perm = %v, want %v", info.Mode().Perm(), PrivateDirPerm)
	}
}

func TestAtomicWriteFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	for i := 0; i < 3; i++ {
		if err := AtomicWriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("AtomicWriteFile failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only config.toml", len(entries))
	}
}

func TestAtomicWriteFile_MissingTargetDirIsNotAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	// A regular file where the parent directory should be.
	if err := AtomicWriteFile(filepath.Join(blocker, "config.toml"), []byte("x"), 0o600); err == nil {
		t.Error("expected an error when the parent is a file")
	}
}
