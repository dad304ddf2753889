package sqlgen

import (
	"fmt"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/schemadiff"
	"github.com/stratadb/strata/internal/typemap"
)

type mysqlEmitter struct{}

func (mysqlEmitter) createTable(t *schema.Table) []string {
	return genericCreateTable(schema.MySQL, t, func(c *schema.Column) (string, bool) {
		if c.Type.Kind != schema.KindInteger {
			return "", false
		}
		return mustNative(schema.MySQL, c.Type) + " AUTO_INCREMENT", true
	})
}

func (mysqlEmitter) dropTable(name string) []string {
	return genericDropTable(schema.MySQL, name)
}

func (mysqlEmitter) addColumn(table string, c *schema.Column) []string {
	return genericAddColumn(schema.MySQL, table, c)
}

func (mysqlEmitter) dropColumn(table, column string) []string {
	return genericDropColumn(schema.MySQL, table, column)
}

func (mysqlEmitter) renameColumn(table, from, to string) []string {
	// MySQL 8.0+ supports RENAME COLUMN directly; older MODIFY-based
	// rename would also need the full column definition, which RENAME
	// COLUMN avoids entirely.
	return genericRenameColumn(schema.MySQL, table, from, to)
}

// modifyColumn renders the full MODIFY COLUMN clause for c, since MySQL's
// MODIFY replaces the entire column definition rather than one attribute.
func (mysqlEmitter) modifyColumn(table string, c *schema.Column) []string {
	native := mustNative(schema.MySQL, c.Type)
	if c.AutoIncrement && c.Type.Kind == schema.KindInteger {
		native += " AUTO_INCREMENT"
	}
	return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s",
		typemap.QuoteIdentifier(schema.MySQL, table), columnClause(schema.MySQL, c, native))}
}

func (e mysqlEmitter) alterColumnType(table string, d schemadiff.ColumnDiff) []string {
	return e.modifyColumn(table, d.New)
}

func (e mysqlEmitter) alterColumnNullability(table string, d schemadiff.ColumnDiff) []string {
	return e.modifyColumn(table, d.New)
}

func (e mysqlEmitter) alterColumnDefault(table string, d schemadiff.ColumnDiff) []string {
	return e.modifyColumn(table, d.New)
}

func (e mysqlEmitter) alterColumnAutoIncrement(table string, d schemadiff.ColumnDiff) []string {
	return e.modifyColumn(table, d.New)
}

func (mysqlEmitter) createIndex(table string, idx *schema.Index) []string {
	return genericCreateIndex(schema.MySQL, table, idx)
}

func (mysqlEmitter) dropIndex(table string, idx *schema.Index) []string {
	// MySQL's DROP INDEX is table-scoped, unlike PostgreSQL/SQLite.
	return []string{fmt.Sprintf("DROP INDEX %s ON %s",
		typemap.QuoteIdentifier(schema.MySQL, idx.Name), typemap.QuoteIdentifier(schema.MySQL, table))}
}

func (mysqlEmitter) addConstraint(table string, c *schema.Constraint) []string {
	return genericAddConstraint(schema.MySQL, table, c)
}

func (mysqlEmitter) dropConstraint(table string, c *schema.Constraint) []string {
	if c.Kind == schema.ConstraintForeignKey {
		return []string{fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s",
			typemap.QuoteIdentifier(schema.MySQL, table), typemap.QuoteIdentifier(schema.MySQL, constraintName(table, c)))}
	}
	return genericDropConstraint(schema.MySQL, table, c)
}

// MySQL has no native enum catalog object: enum(...) and set(...) are
// inline column-type syntax carried on DialectSpecific. There is nothing
// at the schema level to create, drop, append to, or recreate.
func (mysqlEmitter) createEnum(*schema.Enum) []string                          { return nil }
func (mysqlEmitter) dropEnum(string) []string                                  { return nil }
func (mysqlEmitter) appendEnumValues(*schema.Enum, *schema.Enum) []string      { return nil }
func (mysqlEmitter) recreateEnum(schemadiff.EnumDiff) []string                { return nil }
