// idlewatch - an idle-timeout session supervisor for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/idlewatch/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildDate = ""
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(cli.Execute())
}
