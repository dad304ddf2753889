// Package introspect reads a live database's schema back into the Schema
// Model, so it can be diffed, checksummed, or exported the same way a
// project's declarative schema files are.
package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stratadb/strata/internal/schema"
)

// Querier is the subset of *sql.DB the readers need, letting tests swap in
// go-sqlmock without pulling in a live driver.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Options narrows what Read returns, mirroring the export command's
// --tables/--exclude-tables flags.
type Options struct {
	IncludeTables []string
	ExcludeTables []string
}

func (o Options) included(name string) bool {
	if len(o.IncludeTables) > 0 {
		found := false
		for _, t := range o.IncludeTables {
			if t == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, t := range o.ExcludeTables {
		if t == name {
			return false
		}
	}
	return true
}

// Read introspects db's current schema for the given dialect.
func Read(ctx context.Context, db Querier, dialect schema.Dialect, opts Options) (*schema.Schema, error) {
	switch dialect {
	case schema.Postgres:
		return readPostgres(ctx, db, opts)
	case schema.MySQL:
		return readMySQL(ctx, db, opts)
	case schema.SQLite:
		return readSQLite(ctx, db, opts)
	default:
		return nil, fmt.Errorf("introspect: unknown dialect %q", dialect)
	}
}
