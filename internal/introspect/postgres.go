package introspect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/typemap"
)

func readPostgres(ctx context.Context, db Querier, opts Options) (*schema.Schema, error) {
	s := schema.New("introspected")

	tableNames, err := pgTableNames(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("introspect: listing postgres tables: %w", err)
	}

	for _, name := range tableNames {
		if !opts.included(name) {
			continue
		}
		table := &schema.Table{Name: name}

		cols, err := pgColumns(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading columns for %q: %w", name, err)
		}
		table.Columns = cols

		indexes, pk, err := pgIndexes(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading indexes for %q: %w", name, err)
		}
		table.Indexes = indexes
		table.PrimaryKey = pk

		constraints, err := pgConstraints(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect: reading constraints for %q: %w", name, err)
		}
		table.Constraints = constraints

		s.AddTable(table)
	}

	enums, err := pgEnums(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("introspect: reading enums: %w", err)
	}
	for _, e := range enums {
		s.AddEnum(e)
	}

	views, err := pgViews(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("introspect: reading views: %w", err)
	}
	for _, v := range views {
		s.AddView(v)
	}

	return s, nil
}

func pgTableNames(ctx context.Context, db Querier) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		AND table_name != 'schema_migrations'
		ORDER BY table_name`)
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

func pgColumns(ctx context.Context, db Querier, table string) ([]*schema.Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, udt_name, is_nullable, column_default,
		       character_maximum_length, numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []*schema.Column
	for rows.Next() {
		var name, dataType, udtName, isNullable string
		var columnDefault *string
		var charMaxLen, numPrecision, numScale *int

		if err := rows.Scan(&name, &dataType, &udtName, &isNullable, &columnDefault,
			&charMaxLen, &numPrecision, &numScale); err != nil {
			return nil, err
		}

		native := dataType
		if dataType == "USER-DEFINED" || dataType == "ARRAY" {
			native = udtName
		}
		if charMaxLen != nil && !strings.Contains(strings.ToUpper(native), "(") {
			native = fmt.Sprintf("%s(%d)", native, *charMaxLen)
		}

		col := &schema.Column{
			Name:     name,
			Type:     typemap.FromNative(schema.Postgres, native),
			Nullable: isNullable == "YES",
		}
		if columnDefault != nil {
			col.HasDefault = true
			col.Default = *columnDefault
			col.AutoIncrement = strings.Contains(*columnDefault, "nextval(")
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func pgIndexes(ctx context.Context, db Querier, table string) ([]*schema.Index, []string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT i.relname, pg_get_indexdef(i.oid), ix.indisprimary, ix.indisunique
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = 'public' AND t.relname = $1
		ORDER BY i.relname`, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var indexes []*schema.Index
	var primaryKey []string
	for rows.Next() {
		var name, indexDef string
		var isPrimary, isUnique bool
		if err := rows.Scan(&name, &indexDef, &isPrimary, &isUnique); err != nil {
			return nil, nil, err
		}

		cols := parseIndexDefColumns(indexDef)
		if isPrimary {
			primaryKey = cols
			continue
		}
		indexes = append(indexes, &schema.Index{Name: name, Columns: cols, Unique: isUnique})
	}
	return indexes, primaryKey, rows.Err()
}

func parseIndexDefColumns(indexDef string) []string {
	start := strings.Index(indexDef, "(")
	end := strings.LastIndex(indexDef, ")")
	if start < 0 || end < 0 || end <= start {
		return nil
	}
	parts := strings.Split(indexDef[start+1:end], ",")
	cols := make([]string, len(parts))
	for i, p := range parts {
		cols[i] = strings.TrimSpace(p)
	}
	return cols
}

func pgConstraints(ctx context.Context, db Querier, table string) ([]*schema.Constraint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tc.constraint_name, tc.constraint_type,
		       COALESCE(kcu.column_name, ''),
		       COALESCE(ccu.table_name, ''),
		       COALESCE(ccu.column_name, ''),
		       COALESCE(rc.delete_rule, ''),
		       COALESCE(cc.check_clause, '')
		FROM information_schema.table_constraints tc
		LEFT JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		LEFT JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		LEFT JOIN information_schema.referential_constraints rc
			ON tc.constraint_name = rc.constraint_name AND tc.table_schema = rc.constraint_schema
		LEFT JOIN information_schema.check_constraints cc
			ON tc.constraint_name = cc.constraint_name AND tc.table_schema = cc.constraint_schema
		WHERE tc.table_schema = 'public' AND tc.table_name = $1
		AND tc.constraint_type != 'PRIMARY KEY'
		ORDER BY tc.constraint_name`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]*schema.Constraint)
	var order []string
	for rows.Next() {
		var name, ctype, column, foreignTable, foreignColumn, deleteRule, checkClause string
		if err := rows.Scan(&name, &ctype, &column, &foreignTable, &foreignColumn, &deleteRule, &checkClause); err != nil {
			return nil, err
		}

		c, ok := byName[name]
		if !ok {
			c = &schema.Constraint{Name: name, Kind: pgConstraintKind(ctype)}
			byName[name] = c
			order = append(order, name)
			if ctype == "FOREIGN KEY" {
				c.ReferencedTable = foreignTable
				c.OnDelete = deleteRule
			}
			if ctype == "CHECK" {
				c.Expression = checkClause
			}
		}
		if column != "" {
			c.Columns = append(c.Columns, column)
		}
		if ctype == "FOREIGN KEY" && foreignColumn != "" {
			c.ReferencedColumns = append(c.ReferencedColumns, foreignColumn)
		}
	}

	sort.Strings(order)
	constraints := make([]*schema.Constraint, 0, len(order))
	for _, name := range order {
		constraints = append(constraints, byName[name])
	}
	return constraints, rows.Err()
}

func pgConstraintKind(ctype string) schema.ConstraintKind {
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

func pgEnums(ctx context.Context, db Querier) ([]*schema.Enum, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = 'public'
		ORDER BY t.typname, e.enumsortorder`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]*schema.Enum)
	var order []string
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		e, ok := byName[name]
		if !ok {
			e = &schema.Enum{Name: name}
			byName[name] = e
			order = append(order, name)
		}
		e.Values = append(e.Values, value)
	}
	enums := make([]*schema.Enum, 0, len(order))
	for _, name := range order {
		enums = append(enums, byName[name])
	}
	return enums, rows.Err()
}

func pgViews(ctx context.Context, db Querier) ([]*schema.View, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name, view_definition
		FROM information_schema.views
		WHERE table_schema = 'public'
		ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*schema.View
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, err
		}
		views = append(views, &schema.View{Name: name, Body: strings.TrimSpace(body)})
	}
	return views, rows.Err()
}
