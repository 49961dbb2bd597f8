// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/idlewatch/internal/config"
	"github.com/jeranaias/idlewatch/internal/log"
)

// Version information set at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// env is what the root command resolved before a subcommand runs.
type env struct {
	verbose    bool
	jsonOut    bool
	configPath string

	// path is the config file in use; it may not exist yet.
	path    string
	loadErr error
}

// config returns the loaded configuration, or the error that prevented
// loading it.
func (e *env) config() (*config.Config, error) {
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	return config.Global(), nil
}

func (e *env) setup(cmd *cobra.Command) error {
	applyColorProfile()

	e.path = e.configPath
	if e.path == "" {
		p, err := config.ActivePath()
		if err != nil {
			return err
		}
		e.path = p
	}

	var cfg *config.Config
	if _, statErr := os.Stat(e.path); statErr == nil {
		cfg, e.loadErr = config.LoadFromPath(e.path)
	} else if e.configPath != "" {
		e.loadErr = fmt.Errorf("config file %s: %w", e.path, ErrNotFound)
	} else {
		cfg, e.loadErr = config.Load()
	}

	logOpts := log.Options{
		Verbose:     e.verbose,
		JSONFormat:  e.jsonOut,
		Interactive: cmd.Annotations["interactive"] == "true",
		Stderr:      cmd.ErrOrStderr(),
	}
	if cfg != nil {
		config.SetGlobal(cfg)
		logOpts.Verbose = logOpts.Verbose || cfg.Log.Verbose
		logOpts.JSONFormat = logOpts.JSONFormat || cfg.Log.JSON
		logOpts.DebugDir = cfg.Log.DebugDir
		logOpts.RetentionDays = cfg.Log.RetentionDays
	}
	if err := log.Init(logOpts); err != nil {
		cmd.PrintErrf("Warning: failed to initialize debug logging: %v\n", err)
	}
	return nil
}

// NewRootCmd builds the idlewatch command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "idlewatch",
		Short: "Sign a terminal session out after a period of inactivity",
		Long: `idlewatch supervises an interactive session and signs it out after a
period without user activity. A warning with a live countdown is shown
before the session ends; answering it keeps the session alive.

Without a subcommand idlewatch runs the session host in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{"interactive": "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd, e, hostFlags{})
		},
	}

	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&e.jsonOut, "json", false, "output in JSON format")
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "config file (default ~/.idlewatch/config.toml)")

	root.AddCommand(newRunCmd(e))
	root.AddCommand(newSimulateCmd(e))
	root.AddCommand(newConfigCmd(e))
	root.AddCommand(newAuditCmd(e))
	root.AddCommand(newVersionCmd(e))
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	jsonMode, _ := root.PersistentFlags().GetBool("json")
	if jsonMode {
		DisplayError(root.OutOrStdout(), err, true)
	} else {
		DisplayError(root.ErrOrStderr(), err, false)
	}
	return GetExitCode(err)
}
