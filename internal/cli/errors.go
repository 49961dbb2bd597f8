// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit codes for idlewatch commands.
//
// Commands always return errors; Execute decides how to show them and
// which exit code to use.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/idlewatch/internal/config"
	"github.com/jeranaias/idlewatch/internal/idle"
	"github.com/jeranaias/idlewatch/internal/sim"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNotFound     = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrNotFound is returned when a requested file or record does not exist.
var ErrNotFound = errors.New("not found")

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "audit"
	Action  string // e.g. "list"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a CommandError.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w in the requested format.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		resp := NewJSONErrorResponse("", err)
		resp.Fields = errorFields(err)
		resp.Write(w)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

func errorFields(err error) map[string]string {
	fields := map[string]string{"error_type": "generic_error"}

	var cmdErr *CommandError
	var valErrs config.ValidateErrors
	var tty *TTYRequiredError
	switch {
	case errors.As(err, &cmdErr):
		fields["error_type"] = "command_error"
		fields["command"] = cmdErr.Command
		fields["action"] = cmdErr.Action
	case errors.As(err, &valErrs):
		fields["error_type"] = "validation_error"
		if len(valErrs) > 0 {
			fields["field"] = valErrs[0].Field
		}
	case errors.Is(err, idle.ErrInvalidPolicy):
		fields["error_type"] = "validation_error"
	case errors.As(err, &tty):
		fields["error_type"] = "tty_required"
	}
	return fields
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var tty *TTYRequiredError
	var valErrs config.ValidateErrors
	switch {
	case errors.As(err, &tty), errors.Is(err, sim.ErrBadStep):
		return ExitUsageError
	case errors.As(err, &valErrs), errors.Is(err, idle.ErrInvalidPolicy):
		return ExitConfigError
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	}
	return ExitGeneralError
}
