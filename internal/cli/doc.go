// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the idlewatch command line with Cobra.

	idlewatch [run]            run the session host in this terminal
	idlewatch simulate         replay a usage script on simulated time
	idlewatch config show      print the effective configuration
	idlewatch config get       print one configuration value
	idlewatch config path      print the config file location
	idlewatch config validate  check a config file
	idlewatch config init      write a default config file
	idlewatch audit list       list recorded session events
	idlewatch version          print version information

Every command accepts --json, which writes a single JSONResponse envelope
to stdout. Errors map to exit codes through GetExitCode.
*/
package cli
