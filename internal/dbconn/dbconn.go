// Package dbconn maps a Dialect to its database/sql driver and DSN
// construction, and wraps *sql.DB with the health-check and transaction
// entry points the rest of Strata needs, independent of driver quirks.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/stratadb/strata/internal/config"
	"github.com/stratadb/strata/internal/schema"
)

// DSN builds the database/sql data source name for dc under dialect d.
func DSN(d schema.Dialect, dc config.DatabaseConfig) (string, error) {
	timeout := dc.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	switch d {
	case schema.Postgres:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?connect_timeout=%d",
			dc.User, dc.Password, dc.Host, dc.Port, dc.Database, int(timeout.Seconds())), nil
	case schema.MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?timeout=%s&parseTime=true",
			dc.User, dc.Password, dc.Host, dc.Port, dc.Database, timeout), nil
	case schema.SQLite:
		return dc.Database, nil
	default:
		return "", fmt.Errorf("dbconn: unknown dialect %q", d)
	}
}

// Pool wraps *sql.DB with the dialect it was opened for, so callers never
// need to thread both around separately.
type Pool struct {
	DB      *sql.DB
	Dialect schema.Dialect
}

// Open opens a connection pool for dc under dialect d and pings it once to
// fail fast on bad credentials or an unreachable host, rather than letting
// the first query surface the error.
func Open(ctx context.Context, d schema.Dialect, dc config.DatabaseConfig) (*Pool, error) {
	driver, err := sqlDriverName(d)
	if err != nil {
		return nil, err
	}
	dsn, err := DSN(d, dc)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("dbconn: opening %s connection: %w", d, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbconn: pinging %s database: %w", d, err)
	}

	return &Pool{DB: db, Dialect: d}, nil
}

// sqlDriverName returns the database/sql driver name registered for d.
// PostgreSQL uses pgx's stdlib adapter (registered as "pgx" by its own
// init); MySQL uses go-sql-driver; SQLite uses modernc.org/sqlite, the
// pure-Go driver requiring no cgo toolchain.
func sqlDriverName(d schema.Dialect) (string, error) {
	switch d {
	case schema.Postgres:
		return "pgx", nil
	case schema.MySQL:
		return "mysql", nil
	case schema.SQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("dbconn: unknown dialect %q", d)
	}
}

// Close closes the underlying connection pool.
func (p *Pool) Close() error {
	return p.DB.Close()
}

// BeginTx starts a transaction, satisfying the migration.DB interface.
func (p *Pool) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return p.DB.BeginTx(ctx, opts)
}

// ExecContext satisfies the migration.DB interface.
func (p *Pool) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.DB.ExecContext(ctx, query, args...)
}

// QueryContext satisfies the migration.DB interface and introspect.Querier.
func (p *Pool) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.DB.QueryContext(ctx, query, args...)
}
