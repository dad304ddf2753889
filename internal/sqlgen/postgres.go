package sqlgen

import (
	"fmt"
	"strings"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/schemadiff"
	"github.com/stratadb/strata/internal/typemap"
)

type postgresEmitter struct{}

func (postgresEmitter) createTable(t *schema.Table) []string {
	return genericCreateTable(schema.Postgres, t, func(c *schema.Column) (string, bool) {
		if c.Type.Kind != schema.KindInteger {
			return "", false
		}
		if c.Type.HasPrecision && c.Type.Precision <= 4 {
			return "SMALLSERIAL", true
		}
		return "BIGSERIAL", true
	})
}

func (postgresEmitter) dropTable(name string) []string {
	return genericDropTable(schema.Postgres, name)
}

func (postgresEmitter) addColumn(table string, c *schema.Column) []string {
	return genericAddColumn(schema.Postgres, table, c)
}

func (postgresEmitter) dropColumn(table, column string) []string {
	return genericDropColumn(schema.Postgres, table, column)
}

func (postgresEmitter) renameColumn(table, from, to string) []string {
	return genericRenameColumn(schema.Postgres, table, from, to)
}

func (postgresEmitter) alterColumnType(table string, d schemadiff.ColumnDiff) []string {
	native := mustNative(schema.Postgres, d.New.Type)
	col := typemap.QuoteIdentifier(schema.Postgres, d.Column)
	return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::text::%s",
		typemap.QuoteIdentifier(schema.Postgres, table), col, native, col, native)}
}

func (postgresEmitter) alterColumnNullability(table string, d schemadiff.ColumnDiff) []string {
	verb := "SET NOT NULL"
	if d.New.Nullable {
		verb = "DROP NOT NULL"
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s",
		typemap.QuoteIdentifier(schema.Postgres, table), typemap.QuoteIdentifier(schema.Postgres, d.Column), verb)}
}

func (postgresEmitter) alterColumnDefault(table string, d schemadiff.ColumnDiff) []string {
	col := typemap.QuoteIdentifier(schema.Postgres, d.Column)
	stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s ", typemap.QuoteIdentifier(schema.Postgres, table), col)
	if d.New.HasDefault {
		return []string{stmt + "SET DEFAULT " + d.New.Default}
	}
	return []string{stmt + "DROP DEFAULT"}
}

func (postgresEmitter) alterColumnAutoIncrement(table string, d schemadiff.ColumnDiff) []string {
	// AUTO_INCREMENT in PostgreSQL is a SERIAL pseudo-type resolved to a
	// sequence + default at table-creation time; toggling it post-creation
	// means attaching or detaching an explicit sequence default.
	col := typemap.QuoteIdentifier(schema.Postgres, d.Column)
	seq := fmt.Sprintf("%s_%s_seq", table, d.Column)
	if d.New.AutoIncrement {
		return []string{
			fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s OWNED BY %s.%s", typemap.QuoteIdentifier(schema.Postgres, seq), typemap.QuoteIdentifier(schema.Postgres, table), col),
			fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT nextval('%s')", typemap.QuoteIdentifier(schema.Postgres, table), col, seq),
		}
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", typemap.QuoteIdentifier(schema.Postgres, table), col)}
}

func (postgresEmitter) createIndex(table string, idx *schema.Index) []string {
	return genericCreateIndex(schema.Postgres, table, idx)
}

func (postgresEmitter) dropIndex(_ string, idx *schema.Index) []string {
	return genericDropIndex(schema.Postgres, idx.Name)
}

func (postgresEmitter) addConstraint(table string, c *schema.Constraint) []string {
	return genericAddConstraint(schema.Postgres, table, c)
}

func (postgresEmitter) dropConstraint(table string, c *schema.Constraint) []string {
	return genericDropConstraint(schema.Postgres, table, c)
}

func (postgresEmitter) createEnum(e *schema.Enum) []string {
	quoted := make([]string, len(e.Values))
	for i, v := range e.Values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return []string{fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", typemap.QuoteIdentifier(schema.Postgres, e.Name), strings.Join(quoted, ", "))}
}

func (postgresEmitter) dropEnum(name string) []string {
	return []string{fmt.Sprintf("DROP TYPE %s", typemap.QuoteIdentifier(schema.Postgres, name))}
}

func (postgresEmitter) appendEnumValues(old, new *schema.Enum) []string {
	var stmts []string
	for _, v := range new.Values[len(old.Values):] {
		stmts = append(stmts, fmt.Sprintf("ALTER TYPE %s ADD VALUE '%s'",
			typemap.QuoteIdentifier(schema.Postgres, new.Name), strings.ReplaceAll(v, "'", "''")))
	}
	return stmts
}

// recreateEnum implements the PG recreate pattern: create the new type
// under a suffixed name, repoint every affected column via a USING cast,
// then drop the old type and rename the new one into its place.
func (e postgresEmitter) recreateEnum(ed schemadiff.EnumDiff) []string {
	oldName := ed.Name
	tmpName := ed.Name + "_new"

	var stmts []string
	stmts = append(stmts, e.createEnum(&schema.Enum{Name: tmpName, Values: ed.New.Values})...)

	for _, ref := range ed.AffectedColumns {
		col := typemap.QuoteIdentifier(schema.Postgres, ref.Column)
		stmts = append(stmts, fmt.Sprintf(
			"ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::text::%s",
			typemap.QuoteIdentifier(schema.Postgres, ref.Table), col,
			typemap.QuoteIdentifier(schema.Postgres, tmpName), col, typemap.QuoteIdentifier(schema.Postgres, tmpName)))
	}

	stmts = append(stmts, fmt.Sprintf("DROP TYPE %s", typemap.QuoteIdentifier(schema.Postgres, oldName)))
	stmts = append(stmts, fmt.Sprintf("ALTER TYPE %s RENAME TO %s",
		typemap.QuoteIdentifier(schema.Postgres, tmpName), typemap.QuoteIdentifier(schema.Postgres, oldName)))
	return stmts
}
