// Package typemap maps Strata's portable ColumnType values to and from
// dialect-native SQL type strings, and quotes identifiers per dialect.
package typemap

import (
	"strings"

	"github.com/stratadb/strata/internal/schema"
)

// QuoteIdentifier quotes name the way d's SQL dialect expects: double
// quotes with "" escaping for PostgreSQL and SQLite, backticks with ``
// escaping for MySQL.
func QuoteIdentifier(d schema.Dialect, name string) string {
	switch d {
	case schema.MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default: // postgres, sqlite
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QuoteIdentifiers quotes and comma-joins a column list.
func QuoteIdentifiers(d schema.Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdentifier(d, n)
	}
	return strings.Join(quoted, ", ")
}
