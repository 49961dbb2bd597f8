// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sim

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/idlewatch/internal/activity"
)

// ErrBadStep is returned for a script token that cannot be parsed.
var ErrBadStep = errors.New("invalid simulation step")

// Op is the kind of a script step.
type Op int

const (
	OpAdvanceTo Op = iota // "29m": advance until this much time has passed
	OpAdvanceBy           // "+10s": advance by this much
	OpContinue            // "continue": answer the warning
	OpActivity            // "activity:<kind>": ambient user input
	OpHide                // "hide": host loses the foreground
	OpShow                // "show": host regains the foreground
	OpLogout              // "logout": sign out now
)

// Step is one parsed script instruction.
type Step struct {
	Op       Op
	Duration time.Duration
	Kind     activity.Kind
	Raw      string
}

// Parse reads a script. Steps are separated by whitespace, commas or
// newlines; "#" starts a comment that runs to the end of the line.
func Parse(script string) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(strings.NewReader(script))
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		for _, tok := range fields {
			st, err := ParseStep(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			steps = append(steps, st)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

// ParseStep parses a single token.
func ParseStep(tok string) (Step, error) {
	raw := tok
	tok = strings.ToLower(strings.TrimSpace(tok))

	switch tok {
	case "continue", "reset":
		return Step{Op: OpContinue, Raw: raw}, nil
	case "hide":
		return Step{Op: OpHide, Raw: raw}, nil
	case "show":
		return Step{Op: OpShow, Raw: raw}, nil
	case "logout":
		return Step{Op: OpLogout, Raw: raw}, nil
	}

	if name, ok := strings.CutPrefix(tok, "activity:"); ok {
		kind, err := activity.ParseKind(name)
		if err != nil {
			return Step{}, fmt.Errorf("%w %q: %v", ErrBadStep, raw, err)
		}
		return Step{Op: OpActivity, Kind: kind, Raw: raw}, nil
	}

	op := OpAdvanceTo
	if rest, ok := strings.CutPrefix(tok, "+"); ok {
		op = OpAdvanceBy
		tok = rest
	}
	d, err := time.ParseDuration(tok)
	if err != nil || d < 0 {
		return Step{}, fmt.Errorf("%w %q", ErrBadStep, raw)
	}
	return Step{Op: op, Duration: d, Raw: raw}, nil
}
