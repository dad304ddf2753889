package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/typemap"
)

func readSQLite(ctx context.Context, db Querier, opts Options) (*schema.Schema, error) {
	s := schema.New("introspected")

	tableNames, err := sqliteTableNames(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("introspect: listing sqlite tables: %w", err)
	}

	for _, name := range tableNames {
		if !opts.included(name) {
			continue
		}
		table := &schema.Table{Name: name}

		cols, pk, err := sqliteColumns(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading columns for %q: %w", name, err)
		}
		table.Columns = cols
		table.PrimaryKey = pk

		indexes, err := sqliteIndexes(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading indexes for %q: %w", name, err)
		}
		table.Indexes = indexes

		constraints, err := sqliteForeignKeys(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading foreign keys for %q: %w", name, err)
		}
		table.Constraints = constraints

		s.AddTable(table)
	}

	views, err := sqliteViews(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("introspect: reading views: %w", err)
	}
	for _, v := range views {
		s.AddView(v)
	}

	return s, nil
}

func sqliteTableNames(ctx context.Context, db Querier) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name != 'schema_migrations' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
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

func sqliteColumns(ctx context.Context, db Querier, table string) ([]*schema.Column, []string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteSQLiteName(table)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []*schema.Column
	var pkOrdinal []struct {
		name string
		pos  int
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull int
		var dfltValue *string
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, nil, err
		}

		col := &schema.Column{
			Name:     name,
			Type:     typemap.FromNative(schema.SQLite, ctype),
			Nullable: notNull == 0,
		}
		if dfltValue != nil {
			col.HasDefault = true
			col.Default = *dfltValue
		}
		columns = append(columns, col)

		if pk > 0 {
			pkOrdinal = append(pkOrdinal, struct {
				name string
				pos  int
			}{name, pk})
			if strings.EqualFold(ctype, "INTEGER") {
				col.AutoIncrement = true
			}
		}
	}

	var primaryKey []string
	for _, p := range pkOrdinal {
		primaryKey = append(primaryKey, p.name)
	}
	return columns, primaryKey, rows.Err()
}

func sqliteIndexes(ctx context.Context, db Querier, table string) ([]*schema.Index, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%s)`, quoteSQLiteName(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type idxInfo struct {
		name   string
		unique bool
		origin string
	}
	var list []idxInfo
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		list = append(list, idxInfo{name: name, unique: unique != 0, origin: origin})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []*schema.Index
	for _, idx := range list {
		if idx.origin == "pk" {
			continue
		}
		cols, err := sqliteIndexColumns(ctx, db, idx.name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, &schema.Index{Name: idx.name, Columns: cols, Unique: idx.unique})
	}
	return indexes, nil
}

func sqliteIndexColumns(ctx context.Context, db Querier, indexName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_info(%s)`, quoteSQLiteName(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name string
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func sqliteForeignKeys(ctx context.Context, db Querier, table string) ([]*schema.Constraint, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%s)`, quoteSQLiteName(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int]*schema.Constraint)
	var order []int
	for rows.Next() {
		var id, seq int
		var refTable, from, to string
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		c, ok := byID[id]
		if !ok {
			c = &schema.Constraint{
				Name:            fmt.Sprintf("%s_fk_%d", table, id),
				Kind:            schema.ConstraintForeignKey,
				ReferencedTable: refTable,
				OnDelete:        onDelete,
			}
			byID[id] = c
			order = append(order, id)
		}
		c.Columns = append(c.Columns, from)
		c.ReferencedColumns = append(c.ReferencedColumns, to)
	}

	constraints := make([]*schema.Constraint, 0, len(order))
	for _, id := range order {
		constraints = append(constraints, byID[id])
	}
	return constraints, rows.Err()
}

func sqliteViews(ctx context.Context, db Querier) ([]*schema.View, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, sql FROM sqlite_master WHERE type = 'view' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*schema.View
	for rows.Next() {
		var name string
		var body *string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, err
		}
		v := &schema.View{Name: name}
		if body != nil {
			v.Body = strings.TrimSpace(*body)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// quoteSQLiteName wraps a PRAGMA target identifier in double quotes;
// PRAGMA statements don't accept bind parameters, so the name is quoted
// directly here rather than passed as a query argument.
func quoteSQLiteName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
