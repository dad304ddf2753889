package introspect

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/typemap"
)

func readMySQL(ctx context.Context, db Querier, opts Options) (*schema.Schema, error) {
	s := schema.New("introspected")

	tableNames, err := mysqlTableNames(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("introspect: listing mysql tables: %w", err)
	}

	for _, name := range tableNames {
		if !opts.included(name) {
			continue
		}
		table := &schema.Table{Name: name}

		cols, err := mysqlColumns(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading columns for %q: %w", name, err)
		}
		table.Columns = cols

		indexes, pk, err := mysqlIndexes(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading indexes for %q: %w", name, err)
		}
		table.Indexes = indexes
		table.PrimaryKey = pk

		constraints, err := mysqlConstraints(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading constraints for %q: %w", name, err)
		}
		table.Constraints = constraints

		s.AddTable(table)
	}

	return s, nil
}

func mysqlTableNames(ctx context.Context, db Querier) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		AND TABLE_NAME != 'schema_migrations'
		ORDER BY TABLE_NAME`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func mysqlColumns(ctx context.Context, db Querier, table string) ([]*schema.Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT COLUMN_NAME, IS_NULLABLE, COLUMN_DEFAULT, EXTRA, COLUMN_TYPE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []*schema.Column
	for rows.Next() {
		var name, isNullable, extra string
		var columnDefault *[]byte
		var columnTypeRaw []byte

		if err := rows.Scan(&name, &isNullable, &columnDefault, &extra, &columnTypeRaw); err != nil {
			return nil, err
		}

		columnType := decodeMySQLBytes(columnTypeRaw)

		col := &schema.Column{
			Name:          name,
			Type:          typemap.FromNative(schema.MySQL, columnType),
			Nullable:      isNullable == "YES",
			AutoIncrement: strings.Contains(extra, "auto_increment"),
		}
		if columnDefault != nil {
			col.HasDefault = true
			col.Default = decodeMySQLBytes(*columnDefault)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// decodeMySQLBytes decodes a []byte value returned by the MySQL driver for
// text-ish columns (COLUMN_TYPE, COLUMN_DEFAULT) as UTF-8, falling back to
// a lossy replacement-rune decode rather than failing outright.
func decodeMySQLBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

func mysqlIndexes(ctx context.Context, db Querier, table string) ([]*schema.Index, []string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE, SEQ_IN_INDEX
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type idxAccum struct {
		columns  []string
		nonUniq  bool
	}
	byName := make(map[string]*idxAccum)
	var order []string
	for rows.Next() {
		var indexName, columnName string
		var nonUnique, seq int
		if err := rows.Scan(&indexName, &columnName, &nonUnique, &seq); err != nil {
			return nil, nil, err
		}
		acc, ok := byName[indexName]
		if !ok {
			acc = &idxAccum{nonUniq: nonUnique != 0}
			byName[indexName] = acc
			order = append(order, indexName)
		}
		acc.columns = append(acc.columns, columnName)
	}

	var indexes []*schema.Index
	var primaryKey []string
	for _, name := range order {
		acc := byName[name]
		if name == "PRIMARY" {
			primaryKey = acc.columns
			continue
		}
		indexes = append(indexes, &schema.Index{Name: name, Columns: acc.columns, Unique: !acc.nonUniq})
	}
	return indexes, primaryKey, rows.Err()
}

func mysqlConstraints(ctx context.Context, db Querier, table string) ([]*schema.Constraint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT kcu.CONSTRAINT_NAME, tc.CONSTRAINT_TYPE, kcu.COLUMN_NAME,
		       COALESCE(kcu.REFERENCED_TABLE_NAME, ''),
		       COALESCE(kcu.REFERENCED_COLUMN_NAME, ''),
		       COALESCE(rc.DELETE_RULE, '')
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		LEFT JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
			ON rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND rc.CONSTRAINT_SCHEMA = kcu.TABLE_SCHEMA
		WHERE kcu.TABLE_SCHEMA = DATABASE() AND kcu.TABLE_NAME = ?
		AND tc.CONSTRAINT_TYPE != 'PRIMARY KEY'
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]*schema.Constraint)
	var order []string
	for rows.Next() {
		var name, ctype, column, refTable, refColumn, deleteRule string
		if err := rows.Scan(&name, &ctype, &column, &refTable, &refColumn, &deleteRule); err != nil {
			return nil, err
		}
		c, ok := byName[name]
		if !ok {
			c = &schema.Constraint{Name: name, Kind: mysqlConstraintKind(ctype)}
			byName[name] = c
			order = append(order, name)
			if ctype == "FOREIGN KEY" {
				c.ReferencedTable = refTable
				c.OnDelete = deleteRule
			}
		}
		c.Columns = append(c.Columns, column)
		if ctype == "FOREIGN KEY" && refColumn != "" {
			c.ReferencedColumns = append(c.ReferencedColumns, refColumn)
		}
	}

	checkClauses, err := mysqlCheckClauses(ctx, db, table)
	if err != nil {
		return nil, err
	}
	for name, expr := range checkClauses {
		if c, ok := byName[name]; ok {
			c.Expression = expr
		} else {
			byName[name] = &schema.Constraint{Name: name, Kind: schema.ConstraintCheck, Expression: expr}
			order = append(order, name)
		}
	}

	sort.Strings(order)
	constraints := make([]*schema.Constraint, 0, len(order))
	for _, name := range order {
		constraints = append(constraints, byName[name])
	}
	return constraints, nil
}

func mysqlConstraintKind(ctype string) schema.ConstraintKind {
	switch ctype {
	case "FOREIGN KEY":
		return schema.ConstraintForeignKey
	case "UNIQUE":
		return schema.ConstraintUnique
	case "CHECK":
		return schema.ConstraintCheck
	default:
		return schema.ConstraintCheck
	}
}

// mysqlCheckClauses reads CHECK constraint bodies and unescapes MySQL's
// backtick-quoted column references (`` `` `` represents a literal backtick
// inside a quoted identifier).
func mysqlCheckClauses(ctx context.Context, db Querier, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT cc.CONSTRAINT_NAME, cc.CHECK_CLAUSE
		FROM INFORMATION_SCHEMA.CHECK_CONSTRAINTS cc
		JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			ON tc.CONSTRAINT_NAME = cc.CONSTRAINT_NAME AND tc.CONSTRAINT_SCHEMA = cc.CONSTRAINT_SCHEMA
		WHERE cc.CONSTRAINT_SCHEMA = DATABASE() AND tc.TABLE_NAME = ?`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clauses := make(map[string]string)
	for rows.Next() {
		var name, clause string
		if err := rows.Scan(&name, &clause); err != nil {
			return nil, err
		}
		clauses[name] = unescapeBackticks(clause)
	}
	return clauses, rows.Err()
}

func unescapeBackticks(s string) string {
	return strings.ReplaceAll(s, "``", "`")
}
