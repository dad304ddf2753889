package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stratadb/strata/internal/config"
	"github.com/stratadb/strata/internal/dbconn"
	"github.com/stratadb/strata/internal/logging"
	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/yamlschema"
)

// parseTimeoutFlag parses a --timeout flag's raw string value, returning 0
// (meaning "use the environment's default") when empty or invalid.
func parseTimeoutFlag(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// loadProjectConfig reads and validates the project config at the --config
// path, or at DefaultConfigFile when the flag is unset.
func loadProjectConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isVerbose reports whether verbose output was requested by flag or by
// STRATA_VERBOSE.
func isVerbose() bool {
	return verbose || config.Verbose()
}

func newLogger() *slog.Logger {
	return logging.New(isVerbose())
}

// snapshotPath is where the previous generate's canonical schema lives,
// under the project's .strata state directory next to its config file.
func snapshotPath(_ *config.Config) string {
	root := configPath
	if root == "" {
		root = config.DefaultConfigFile
	}
	return filepath.Join(filepath.Dir(root), config.StateDir, "schema_snapshot.yaml")
}

// loadPreviousSchema reads the last generate's snapshot, returning nil (not
// an error) if none has been written yet.
func loadPreviousSchema(cfg *config.Config) (*schema.Schema, error) {
	path := snapshotPath(cfg)
	s, err := yamlschema.ReadSnapshot(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// writeSnapshot records s as the new canonical schema for the next generate.
func writeSnapshot(cfg *config.Config, s *schema.Schema) error {
	path := snapshotPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cli: creating state directory: %w", err)
	}
	return yamlschema.WriteSnapshot(path, s)
}

// schemaValidationError renders a ValidationResult's violations as a single
// error, one line per violation.
func schemaValidationError(result *schema.ValidationResult) error {
	msg := fmt.Sprintf("schema has %d violation(s):", len(result.Violations))
	for _, v := range result.Violations {
		loc := v.Location.Table
		if v.Location.Column != "" {
			loc = fmt.Sprintf("%s.%s", loc, v.Location.Column)
		}
		msg += fmt.Sprintf("\n  [%s] %s: %s", v.Category, loc, v.Message)
		if v.Suggestion != "" {
			msg += fmt.Sprintf(" (suggestion: %s)", v.Suggestion)
		}
	}
	return fmt.Errorf("%s", msg)
}

// openPool opens a database connection pool for the named environment,
// applying --timeout if given.
func openPool(ctx context.Context, cfg *config.Config, envName string, timeoutSeconds int) (*dbconn.Pool, func(), error) {
	dc, err := cfg.GetDatabaseConfig(envName)
	if err != nil {
		return nil, nil, err
	}
	if timeoutSeconds > 0 {
		dc.Timeout = time.Duration(timeoutSeconds) * time.Second
	}

	pool, err := dbconn.Open(ctx, cfg.Dialect, *dc)
	if err != nil {
		return nil, nil, err
	}
	return pool, func() { pool.Close() }, nil
}
