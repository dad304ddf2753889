// Package generator turns a schema diff into an on-disk migration
// directory: up.sql, down.sql, and .meta.yaml, named by a 14-digit
// timestamp version and a slug derived from the migration's description.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/stratadb/strata/internal/checksum"
	"github.com/stratadb/strata/internal/destructive"
	"github.com/stratadb/strata/internal/migration"
	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/schemadiff"
	"github.com/stratadb/strata/internal/sqlgen"
)

// Options configures a single generate run.
type Options struct {
	MigrationsDir                string
	Description                  string
	Dialect                      schema.Dialect
	OldSchema                    *schema.Schema // nil for the first migration
	NewSchema                    *schema.Schema
	AllowDestructiveEnumRecreate bool
	Now                          func() time.Time // defaults to time.Now; overridable in tests
}

// Result reports what Generate wrote, or that there was nothing to write.
type Result struct {
	Dir       string
	Version   string
	UpSQL     string
	DownSQL   string
	Report    *destructive.Report
	NoChanges bool
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(description string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(description), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "migration"
	}
	return s
}

// Generate diffs opts.OldSchema against opts.NewSchema, renders dialect SQL
// for both directions, and writes a new migration directory. It returns a
// Result with NoChanges set (and no directory written) when the schemas
// are identical.
func Generate(opts Options) (*Result, error) {
	old := opts.OldSchema
	if old == nil {
		old = schema.New(opts.NewSchema.Version)
	}

	diff, err := schemadiff.Diff(old, opts.NewSchema)
	if err != nil {
		return nil, fmt.Errorf("generator: diffing schemas: %w", err)
	}
	if diff.IsEmpty() {
		return &Result{NoChanges: true}, nil
	}

	up, down, err := sqlgen.Generate(diff, opts.Dialect, old, opts.NewSchema, opts.AllowDestructiveEnumRecreate)
	if err != nil {
		return nil, fmt.Errorf("generator: rendering SQL: %w", err)
	}

	report := destructive.Classify(diff)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	version := now().UTC().Format("20060102150405")
	name := fmt.Sprintf("%s_%s", version, slugify(opts.Description))
	dir := filepath.Join(opts.MigrationsDir, name)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("generator: creating migration directory %s: %w", dir, err)
	}

	upSQL := strings.Join(up, ";\n") + ";\n"
	downSQL := strings.Join(down, ";\n") + ";\n"
	sum := checksum.Compute(opts.NewSchema)

	if err := os.WriteFile(filepath.Join(dir, "up.sql"), []byte(upSQL), 0o644); err != nil {
		return nil, fmt.Errorf("generator: writing up.sql: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "down.sql"), []byte(downSQL), 0o644); err != nil {
		return nil, fmt.Errorf("generator: writing down.sql: %w", err)
	}
	if err := migration.WriteMetaFile(filepath.Join(dir, ".meta.yaml"), opts.Description, sum, report); err != nil {
		return nil, err
	}

	return &Result{
		Dir:     dir,
		Version: version,
		UpSQL:   upSQL,
		DownSQL: downSQL,
		Report:  report,
	}, nil
}
