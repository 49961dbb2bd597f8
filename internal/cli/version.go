// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}
			if e.jsonOut {
				return outputJSON(cmd.OutOrStdout(), "version", data)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "idlewatch %s\n", data.Version)
			if data.GitCommit != "" {
				fmt.Fprintf(out, "  commit: %s\n", data.GitCommit)
			}
			if data.BuildDate != "" {
				fmt.Fprintf(out, "  built:  %s\n", data.BuildDate)
			}
			fmt.Fprintf(out, "  go:     %s\n", data.GoVersion)
			return nil
		},
	}
}
