// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/idlewatch/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, check and create the configuration file",
	}
	cmd.AddCommand(newConfigShowCmd(e))
	cmd.AddCommand(newConfigGetCmd(e))
	cmd.AddCommand(newConfigPathCmd(e))
	cmd.AddCommand(newConfigValidateCmd(e))
	cmd.AddCommand(newConfigInitCmd(e))
	return cmd
}

func newConfigShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			if e.jsonOut {
				return outputJSON(cmd.OutOrStdout(), "config show", cfg)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}

func newConfigGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Example: `  idlewatch config get session.idle_timeout
  idlewatch config get audit.path --json`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			key := strings.ToLower(args[0])
			value, err := cfg.Get(key)
			if err != nil {
				return NewCommandError("config", "get", err.Error()+" (keys: "+strings.Join(config.Keys(), ", ")+")", ErrNotFound)
			}
			text := formatValue(value)
			if e.jsonOut {
				return outputJSON(cmd.OutOrStdout(), "config get", ConfigValueData{Key: key, Value: text})
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

// formatValue renders a config value the way it is written in the file.
func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case encoding.TextMarshaler:
		b, err := v.MarshalText()
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	case []string:
		return strings.Join(v, ",")
	default:
		return fmt.Sprint(v)
	}
}

func newConfigPathCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, statErr := os.Stat(e.path)
			data := ConfigPathData{Path: e.path, Exists: statErr == nil}
			if e.jsonOut {
				return outputJSON(cmd.OutOrStdout(), "config path", data)
			}
			fmt.Fprintln(cmd.OutOrStdout(), data.Path)
			if !data.Exists {
				fmt.Fprintln(cmd.ErrOrStderr(), DimStyle.Render("(not created yet; run 'idlewatch config init')"))
			}
			return nil
		},
	}
}

func newConfigValidateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a config file without starting a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.path
			cfg, err := e.config()
			if len(args) == 1 {
				path = args[0]
				cfg, err = config.LoadFromPath(path)
			}
			if err != nil {
				return err
			}
			policy, err := cfg.Policy()
			if err == nil {
				err = policy.Validate()
			}
			if err != nil {
				return err
			}

			var data ValidateData
			data.Path = path
			data.Valid = true
			data.Policy.IdleTimeout = policy.TotalIdleTimeout.String()
			data.Policy.WarningLead = policy.WarningLeadTime.String()
			for _, k := range policy.ActivitySignals {
				data.Policy.ActivitySignals = append(data.Policy.ActivitySignals, string(k))
			}
			if e.jsonOut {
				return outputJSON(cmd.OutOrStdout(), "config validate", data)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("[OK]"), path)
			fmt.Fprintf(out, "%s%s\n", RenderLabel("Idle timeout"), ValueStyle.Render(data.Policy.IdleTimeout))
			fmt.Fprintf(out, "%s%s (at %s idle)\n", RenderLabel("Warning lead"),
				ValueStyle.Render(data.Policy.WarningLead), policy.WarningAfter().Round(time.Second))
			fmt.Fprintf(out, "%s%s\n", RenderLabel("Activity signals"), strings.Join(data.Policy.ActivitySignals, ", "))
			return nil
		},
	}
}

func newConfigInitCmd(e *env) *cobra.Command {
	var (
		format string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.configPath
			if path == "" {
				var err error
				switch strings.ToLower(format) {
				case "toml":
					path, err = config.ConfigPathTOML()
				case "yaml", "yml":
					path, err = config.ConfigPathYAML()
				default:
					return NewCommandError("config", "init", "unsupported format "+format+" (use toml or yaml)", nil)
				}
				if err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			if e.jsonOut {
				return outputJSON(cmd.OutOrStdout(), "config init", ConfigPathData{Path: path, Exists: true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "toml", "file format: toml or yaml")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
