// Package report renders a command's outcome as colorized text or JSON,
// selected by the CLI's --format flag.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Status is the outcome of a command run.
type Status string

const (
	StatusOK    Status = "ok"
	StatusNoop  Status = "noop"
	StatusError Status = "error"
)

// Summary is the machine- and human-readable result of one command
// invocation. Details holds command-specific key/value pairs (e.g. a
// migration version, a table count) rendered as an indented list in text
// mode and as a nested object in JSON mode.
type Summary struct {
	Command string         `json:"command"`
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Write renders s to w according to format ("text" or "json"); any other
// value falls back to text. noColor disables ANSI codes in text mode.
func Write(w io.Writer, format string, noColor bool, s Summary) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	return writeText(w, noColor, s)
}

func writeText(w io.Writer, noColor bool, s Summary) error {
	prevNoColor := color.NoColor
	color.NoColor = noColor
	defer func() { color.NoColor = prevNoColor }()

	label := color.New(color.FgGreen, color.Bold).SprintFunc()
	switch s.Status {
	case StatusError:
		label = color.New(color.FgRed, color.Bold).SprintFunc()
	case StatusNoop:
		label = color.New(color.FgYellow, color.Bold).SprintFunc()
	}

	fmt.Fprintf(w, "%s %s", label(strings.ToUpper(string(s.Status))), s.Command)
	if s.Message != "" {
		fmt.Fprintf(w, ": %s", s.Message)
	}
	fmt.Fprintln(w)

	keys := make([]string, 0, len(s.Details))
	for k := range s.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, s.Details[k])
	}
	return nil
}
