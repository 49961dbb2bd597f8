// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/idlewatch/internal/audit"
	"github.com/jeranaias/idlewatch/internal/log"
	"github.com/jeranaias/idlewatch/internal/ui/app"
)

type hostFlags struct {
	noWatch bool
	noAudit bool
}

func newRunCmd(e *env) *cobra.Command {
	var flags hostFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the session host in this terminal",
		Long: `Run the session host in this terminal.

Key presses and mouse input count as activity. When the warning appears,
press Enter or c to stay signed in, or l to sign out now. After a
sign-out, Enter starts a new session.

Changes to the config file apply from the next session.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"interactive": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd, e, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.noWatch, "no-watch", false, "do not reload the config file while running")
	cmd.Flags().BoolVar(&flags.noAudit, "no-audit", false, "do not record session events")
	return cmd
}

func runHost(cmd *cobra.Command, e *env, flags hostFlags) error {
	if err := RequiresTTY("run the session host"); err != nil {
		return err
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	opts := app.Options{
		Policy: policy,
		Logger: log.Logger(),
	}
	if cfg.AuditEnabled() && !flags.noAudit {
		store, err := audit.Open(cfg.Audit.Path, audit.WithLogger(log.Logger()))
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer store.Close()
		opts.Store = store
	}

	watchPath := ""
	if !flags.noWatch {
		if _, err := os.Stat(e.path); err == nil {
			watchPath = e.path
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()
	return app.Run(ctx, opts, watchPath)
}
