package logging_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stratadb/strata/internal/logging"
)

func TestNewVerboseEnablesDebugLevel(t *testing.T) {
	logger := logging.New(true)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("expected debug level enabled when verbose=true")
	}
}

func TestNewNonVerboseDisablesDebugLevel(t *testing.T) {
	logger := logging.New(false)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("expected debug level disabled when verbose=false")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("expected info level enabled when verbose=false")
	}
}
