// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/idlewatch/internal/log"
	"github.com/jeranaias/idlewatch/internal/sim"
)

// DefaultScript walks through a warning, a continue and a sign-out.
const DefaultScript = "29m +10s continue 58m10s 59m10s"

type simulateFlags struct {
	file        string
	idleTimeout time.Duration
	warningLead time.Duration
	ticks       bool
}

func newSimulateCmd(e *env) *cobra.Command {
	var flags simulateFlags

	cmd := &cobra.Command{
		Use:   "simulate [steps...]",
		Short: "Replay a usage script on simulated time",
		Long: `Replay a usage script against the idle policy on simulated time and print
what the supervisor does.

Steps:
  29m                  advance until 29 minutes have passed
  +10s                 advance by 10 seconds
  continue             answer the warning
  activity:<kind>      ambient input (key-press, pointer-move, scroll, ...)
  hide, show           the host loses and regains the foreground
  logout               sign out now

Without steps or --file the default script is used:
  ` + DefaultScript,
		Example: `  idlewatch simulate
  idlewatch simulate 10m activity:key-press 45m
  idlewatch simulate hide 29m30s show --ticks
  idlewatch simulate --file scenario.txt --idle-timeout 15m --warning-lead 2m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, e, flags, args)
		},
	}
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "read steps from a file (- for stdin)")
	cmd.Flags().DurationVar(&flags.idleTimeout, "idle-timeout", 0, "override session.idle_timeout")
	cmd.Flags().DurationVar(&flags.warningLead, "warning-lead", 0, "override session.warning_lead")
	cmd.Flags().BoolVar(&flags.ticks, "ticks", false, "show every countdown value")
	return cmd
}

func runSimulate(cmd *cobra.Command, e *env, flags simulateFlags, args []string) error {
	cfg, err := e.config()
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	if flags.idleTimeout != 0 {
		policy.TotalIdleTimeout = flags.idleTimeout
	}
	if flags.warningLead != 0 {
		policy.WarningLeadTime = flags.warningLead
	}

	script, err := readScript(cmd.InOrStdin(), flags.file, args)
	if err != nil {
		return err
	}
	steps, err := sim.Parse(script)
	if err != nil {
		return err
	}

	res, err := sim.Run(cmd.Context(), policy, steps, sim.Options{
		Ticks:  flags.ticks,
		Logger: log.Logger(),
	})
	if err != nil {
		return err
	}

	if e.jsonOut {
		return outputJSON(cmd.OutOrStdout(), "simulate", res)
	}
	printTranscript(cmd.OutOrStdout(), script, res)
	return nil
}

func readScript(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading script from stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading script: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return DefaultScript, nil
	}
}

func printTranscript(w io.Writer, script string, res *sim.Result) {
	fmt.Fprintln(w, TitleStyle.Render("Session simulation"))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Script"), ValueStyle.Render(strings.Join(strings.Fields(script), " ")))
	fmt.Fprintln(w, RenderSeparator(60))

	for _, ev := range res.Events {
		pad := ""
		if n := 12 - len(ev.Type); n > 0 {
			pad = strings.Repeat(" ", n)
		}
		fmt.Fprintf(w, "%10s  %s%s%s\n", ev.Offset, RenderEvent(ev.Type), pad, ev.Detail)
	}

	fmt.Fprintln(w, RenderSeparator(60))
	outcome := res.FinalState
	if t := res.Termination; t != nil {
		outcome = fmt.Sprintf("%s (%s at %s)", res.FinalState, t.Reason, t.At.Format(time.TimeOnly))
	}
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Final state"), ValueStyle.Render(outcome))
}
