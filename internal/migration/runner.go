package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/sqlsplit"
)

// schemaMigrationsDDL is dialect-agnostic enough to run unmodified on
// PostgreSQL, MySQL, and SQLite: all three accept this column set under
// CREATE TABLE IF NOT EXISTS.
const schemaMigrationsDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version VARCHAR(32) PRIMARY KEY,
	description VARCHAR(255) NOT NULL,
	checksum VARCHAR(64) NOT NULL,
	applied_at TIMESTAMP NOT NULL
)`

// MigrationError reports a failed statement within a migration, carrying
// enough context (which migration, which statement) for the CLI to print
// a precise diagnostic.
type MigrationError struct {
	Version       string
	Err           error
	SQLStatement  string
	CorrelationID string
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s failed [%s]: %v\n  statement: %s", e.Version, e.CorrelationID, e.Err, e.SQLStatement)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// DestructiveChangeError is returned when a migration declares destructive
// changes and the caller has not opted in with allowDestructive.
type DestructiveChangeError struct {
	Version    string
	Categories []string
}

func (e *DestructiveChangeError) Error() string {
	return fmt.Sprintf("migration %s contains destructive changes (%v); re-run with --allow-destructive to proceed", e.Version, e.Categories)
}

// DB is the subset of *sql.DB the Runner needs; satisfied by *sql.DB and
// easily faked with go-sqlmock in tests.
type DB interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Runner executes migrations against a live database connection, one
// transaction per migration.
type Runner struct {
	db               DB
	dialect          schema.Dialect
	logger           *slog.Logger
	allowDestructive bool
	dryRun           bool
}

// NewRunner creates a Runner bound to db, rendering parameter placeholders
// (INSERT/DELETE against schema_migrations) for the given dialect.
func NewRunner(db DB, dialect schema.Dialect) *Runner {
	return &Runner{db: db, dialect: dialect, logger: slog.Default()}
}

// placeholder renders the nth (1-based) bind parameter for r's dialect:
// PostgreSQL uses $1, $2, ...; MySQL and SQLite use a bare ?.
func (r *Runner) placeholder(n int) string {
	if r.dialect == schema.Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// WithLogger returns a copy of r using l for log output.
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	cp := *r
	cp.logger = l
	return &cp
}

// WithAllowDestructive returns a copy of r that will run migrations whose
// .meta.yaml declares destructive changes, instead of refusing them.
func (r *Runner) WithAllowDestructive(allow bool) *Runner {
	cp := *r
	cp.allowDestructive = allow
	return &cp
}

// WithDryRun returns a copy of r that parses and validates each migration
// without executing any statement against the database.
func (r *Runner) WithDryRun(dryRun bool) *Runner {
	cp := *r
	cp.dryRun = dryRun
	return &cp
}

// DryRunResult captures what Apply would do without running it.
type DryRunResult struct {
	Version        string
	Statements     []string
	Destructive    bool
	DestructiveErr error
}

// ApplyAll runs every pending migration in ascending version order. It
// stops at the first failure, leaving later migrations un-applied.
func (r *Runner) ApplyAll(ctx context.Context, pending []PlannedMigration) error {
	for _, p := range pending {
		if err := r.Apply(ctx, p.File); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs one migration's up.sql inside a single transaction.
func (r *Runner) Apply(ctx context.Context, f File) error {
	if f.Meta.Destructive && !r.allowDestructive {
		return &DestructiveChangeError{Version: f.Version, Categories: destructiveCategories(f.Meta)}
	}

	statements := sqlsplit.Split(f.UpSQL)

	if r.dryRun {
		r.logger.Info("dry run: would apply migration", "version", f.Version, "statements", len(statements))
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: beginning transaction: %w", f.Version, err)
	}

	if _, err := tx.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %s: ensuring schema_migrations table: %w", f.Version, err)
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return &MigrationError{Version: f.Version, Err: err, SQLStatement: stmt, CorrelationID: uuid.NewString()}
		}
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO schema_migrations (version, description, checksum, applied_at) VALUES (%s, %s, %s, CURRENT_TIMESTAMP)",
		r.placeholder(1), r.placeholder(2), r.placeholder(3))
	if _, err := tx.ExecContext(ctx, insertSQL, f.Version, f.Meta.Description, f.Checksum); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %s: recording application: %w", f.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %s: committing transaction: %w", f.Version, err)
	}

	r.logger.Info("applied migration", "version", f.Version, "description", f.Meta.Description)
	return nil
}

// RollbackAll runs down.sql for each planned migration in the order given
// (callers pass RollbackPlan's already-reversed order).
func (r *Runner) RollbackAll(ctx context.Context, planned []PlannedMigration) error {
	for _, p := range planned {
		if err := r.Rollback(ctx, p.File); err != nil {
			return err
		}
	}
	return nil
}

// Rollback runs one migration's down.sql inside a single transaction and
// removes its schema_migrations row.
func (r *Runner) Rollback(ctx context.Context, f File) error {
	if f.Meta.Destructive && !r.allowDestructive {
		return &DestructiveChangeError{Version: f.Version, Categories: destructiveCategories(f.Meta)}
	}

	statements := sqlsplit.Split(f.DownSQL)

	if r.dryRun {
		r.logger.Info("dry run: would roll back migration", "version", f.Version, "statements", len(statements))
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: beginning transaction: %w", f.Version, err)
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return &MigrationError{Version: f.Version, Err: err, SQLStatement: stmt, CorrelationID: uuid.NewString()}
		}
	}

	deleteSQL := fmt.Sprintf("DELETE FROM schema_migrations WHERE version = %s", r.placeholder(1))
	if _, err := tx.ExecContext(ctx, deleteSQL, f.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %s: deleting migration record: %w", f.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %s: committing rollback transaction: %w", f.Version, err)
	}

	r.logger.Info("rolled back migration", "version", f.Version, "description", f.Meta.Description)
	return nil
}

// DryRunApply parses and splits a migration's up.sql without touching the
// database, surfacing the exact statements that would run plus its
// destructive-change report.
func DryRunApply(f File) DryRunResult {
	result := DryRunResult{
		Version:     f.Version,
		Statements:  sqlsplit.Split(f.UpSQL),
		Destructive: f.Meta.Destructive,
	}
	if f.Meta.Destructive {
		result.DestructiveErr = &DestructiveChangeError{Version: f.Version, Categories: destructiveCategories(f.Meta)}
	}
	return result
}

// LoadApplied ensures the schema_migrations table exists and returns its
// rows, for reconciling against discovered migration files.
func LoadApplied(ctx context.Context, db DB) ([]AppliedRecord, error) {
	if _, err := db.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return nil, fmt.Errorf("migration: ensuring schema_migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version, checksum FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("migration: reading schema_migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedRecord
	for rows.Next() {
		var rec AppliedRecord
		if err := rows.Scan(&rec.Version, &rec.Checksum); err != nil {
			return nil, fmt.Errorf("migration: scanning schema_migrations row: %w", err)
		}
		applied = append(applied, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("migration: iterating schema_migrations: %w", err)
	}
	return applied, nil
}

func destructiveCategories(m Meta) []string {
	if m.Report == nil {
		return nil
	}
	var categories []string
	if len(m.Report.TablesDropped) > 0 {
		categories = append(categories, "tables_dropped")
	}
	if len(m.Report.ColumnsDropped) > 0 {
		categories = append(categories, "columns_dropped")
	}
	if len(m.Report.ColumnsRenamed) > 0 {
		categories = append(categories, "columns_renamed")
	}
	if len(m.Report.EnumsDropped) > 0 {
		categories = append(categories, "enums_dropped")
	}
	if len(m.Report.EnumsRecreated) > 0 {
		categories = append(categories, "enums_recreated")
	}
	return categories
}
