// json_output.go - JSON output support for idlewatch commands.
//
// Every command accepts --json and then writes one JSONResponse envelope
// to stdout; human-readable text goes to stderr.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Fields carries structured error details
	Fields map[string]string `json:"error_details,omitempty"`

	// Timestamp is the RFC 3339 time the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// now is replaced in tests.
var now = time.Now

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write outputs the response as indented JSON.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// outputJSON writes a success envelope for command with data.
func outputJSON(w io.Writer, command string, data interface{}) error {
	return NewJSONResponse(command, data).Write(w)
}

// =============================================================================
// RESPONSE DATA TYPES
// =============================================================================

// VersionData is the data payload for version --json.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

// ConfigPathData is the data payload for config path --json.
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// ConfigValueData is the data payload for config get --json.
type ConfigValueData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ValidateData is the data payload for config validate --json.
type ValidateData struct {
	Path   string `json:"path"`
	Valid  bool   `json:"valid"`
	Policy struct {
		IdleTimeout     string   `json:"idle_timeout"`
		WarningLead     string   `json:"warning_lead"`
		ActivitySignals []string `json:"activity_signals"`
	} `json:"policy"`
}
