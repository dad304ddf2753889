// Package logging builds the slog.Logger used throughout Strata, with
// verbosity controlled by the CLI's --verbose flag or STRATA_VERBOSE.
package logging

import (
	"log/slog"
	"os"
)

// New returns a text-handler logger writing to stderr. verbose selects
// slog.LevelDebug (showing per-statement and per-transition detail);
// otherwise slog.LevelInfo.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
