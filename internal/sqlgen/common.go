package sqlgen

import (
	"fmt"
	"strings"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/typemap"
)

// columnClause renders "name TYPE [NOT NULL] [DEFAULT ...]" for a CREATE
// TABLE / ADD COLUMN statement from an already-resolved nativeType.
// genericCreateTable's autoIncClause is where each dialect substitutes its
// own auto-increment type (SERIAL swap, AUTO_INCREMENT attribute, plain
// INTEGER for SQLite) before calling this.
func columnClause(d schema.Dialect, c *schema.Column, nativeType string) string {
	var b strings.Builder
	b.WriteString(typemap.QuoteIdentifier(d, c.Name))
	b.WriteString(" ")
	b.WriteString(nativeType)
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.HasDefault {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	return b.String()
}

func mustNative(d schema.Dialect, ct schema.ColumnType) string {
	native, err := typemap.ToNative(d, ct)
	if err != nil {
		// ToNative is total over every ColumnTypeKind value the schema
		// package defines; reaching here means a new kind was added to
		// schema without a matching case in typemap.
		return fmt.Sprintf("/* unmapped type %s */", ct.Kind)
	}
	return native
}

func constraintClauseSQL(d schema.Dialect, c *schema.Constraint) string {
	var b strings.Builder
	if c.Name != "" {
		b.WriteString("CONSTRAINT ")
		b.WriteString(typemap.QuoteIdentifier(d, c.Name))
		b.WriteString(" ")
	}
	switch c.Kind {
	case schema.ConstraintPrimaryKey:
		b.WriteString("PRIMARY KEY (")
		b.WriteString(typemap.QuoteIdentifiers(d, c.Columns))
		b.WriteString(")")
	case schema.ConstraintUnique:
		b.WriteString("UNIQUE (")
		b.WriteString(typemap.QuoteIdentifiers(d, c.Columns))
		b.WriteString(")")
	case schema.ConstraintCheck:
		b.WriteString("CHECK (")
		b.WriteString(c.Expression)
		b.WriteString(")")
	case schema.ConstraintForeignKey:
		b.WriteString("FOREIGN KEY (")
		b.WriteString(typemap.QuoteIdentifiers(d, c.Columns))
		b.WriteString(") REFERENCES ")
		b.WriteString(typemap.QuoteIdentifier(d, c.ReferencedTable))
		b.WriteString(" (")
		b.WriteString(typemap.QuoteIdentifiers(d, c.ReferencedColumns))
		b.WriteString(")")
		if c.OnDelete != "" {
			b.WriteString(" ON DELETE ")
			b.WriteString(c.OnDelete)
		}
	}
	return b.String()
}

// constraintName returns c.Name, synthesizing a stable one from kind+table+
// columns when the constraint was declared anonymously — DROP CONSTRAINT
// needs something to name even when the schema author didn't.
func constraintName(table string, c *schema.Constraint) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s_%s_%s", table, strings.ToLower(string(c.Kind)), strings.Join(c.Columns, "_"))
}

func genericCreateTable(d schema.Dialect, t *schema.Table, autoIncClause func(*schema.Column) (string, bool)) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", typemap.QuoteIdentifier(d, t.Name))

	var lines []string
	for _, c := range t.Columns {
		native := mustNative(d, c.Type)
		if c.AutoIncrement && autoIncClause != nil {
			if swapped, ok := autoIncClause(c); ok {
				native = swapped
			}
		}
		lines = append(lines, "  "+columnClause(d, c, native))
	}
	if len(t.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", typemap.QuoteIdentifiers(d, t.PrimaryKey)))
	}
	for _, c := range t.Constraints {
		lines = append(lines, "  "+constraintClauseSQL(d, c))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return []string{b.String()}
}

func genericDropTable(d schema.Dialect, name string) []string {
	return []string{fmt.Sprintf("DROP TABLE %s", typemap.QuoteIdentifier(d, name))}
}

func genericAddColumn(d schema.Dialect, table string, c *schema.Column) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
		typemap.QuoteIdentifier(d, table), columnClause(d, c, mustNative(d, c.Type)))}
}

func genericDropColumn(d schema.Dialect, table, column string) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		typemap.QuoteIdentifier(d, table), typemap.QuoteIdentifier(d, column))}
}

func genericRenameColumn(d schema.Dialect, table, from, to string) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		typemap.QuoteIdentifier(d, table), typemap.QuoteIdentifier(d, from), typemap.QuoteIdentifier(d, to))}
}

func genericCreateIndex(d schema.Dialect, table string, idx *schema.Index) []string {
	kw := "INDEX"
	if idx.Unique {
		kw = "UNIQUE INDEX"
	}
	return []string{fmt.Sprintf("CREATE %s %s ON %s (%s)",
		kw, typemap.QuoteIdentifier(d, idx.Name), typemap.QuoteIdentifier(d, table), typemap.QuoteIdentifiers(d, idx.Columns))}
}

func genericDropIndex(d schema.Dialect, name string) []string {
	return []string{fmt.Sprintf("DROP INDEX %s", typemap.QuoteIdentifier(d, name))}
}

func genericAddConstraint(d schema.Dialect, table string, c *schema.Constraint) []string {
	named := *c
	named.Name = constraintName(table, c)
	return []string{fmt.Sprintf("ALTER TABLE %s ADD %s",
		typemap.QuoteIdentifier(d, table), constraintClauseSQL(d, &named))}
}

func genericDropConstraint(d schema.Dialect, table string, c *schema.Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
		typemap.QuoteIdentifier(d, table), typemap.QuoteIdentifier(d, constraintName(table, c)))}
}
