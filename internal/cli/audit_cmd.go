// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/idlewatch/internal/audit"
	"github.com/jeranaias/idlewatch/internal/log"
)

func newAuditCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect recorded session events",
	}
	cmd.AddCommand(newAuditListCmd(e))
	return cmd
}

func newAuditListCmd(e *env) *cobra.Command {
	var f audit.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List session events, newest first",
		Example: `  idlewatch audit list
  idlewatch audit list --type SESSION_EXPIRED --limit 5
  idlewatch audit list --session 0f8fad5b-d9cb-469f-a165-70867728950e --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			path := cfg.Audit.Path
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no audit log at %s: %w", path, ErrNotFound)
			}

			store, err := audit.Open(path, audit.WithLogger(log.Logger()))
			if err != nil {
				return NewCommandError("audit", "list", "cannot open audit log", err)
			}
			defer store.Close()

			f.Type = strings.ToUpper(f.Type)
			events, err := store.Query(cmd.Context(), f)
			if err != nil {
				return NewCommandError("audit", "list", "query failed", err)
			}
			if e.jsonOut {
				return outputJSON(cmd.OutOrStdout(), "audit list", events)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, DimStyle.Render("No session events recorded."))
				return nil
			}
			for _, ev := range events {
				typ := ev.Type
				pad := ""
				if n := 18 - len(typ); n > 0 {
					pad = strings.Repeat(" ", n)
				}
				fmt.Fprintf(out, "%s  %s  %s%s%s\n",
					ev.At.Local().Format(time.DateTime),
					shortSession(ev.SessionID),
					RenderEvent(typ), pad,
					formatDetail(ev.Detail))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.SessionID, "session", "", "only events of this session")
	cmd.Flags().StringVar(&f.Type, "type", "", "only events of this type, e.g. SESSION_EXPIRED")
	cmd.Flags().IntVarP(&f.Limit, "limit", "n", 20, "maximum number of events")
	return cmd
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return fmt.Sprintf("%-8s", id)
}

// formatDetail renders detail as sorted key=value pairs.
func formatDetail(detail map[string]string) string {
	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+detail[k])
	}
	return strings.Join(parts, " ")
}
