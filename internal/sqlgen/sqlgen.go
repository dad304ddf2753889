// Package sqlgen turns a schema diff into ordered, dialect-native SQL
// statement sequences for applying (up) and reversing (down) a migration.
package sqlgen

import (
	"fmt"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/schemadiff"
)

// ErrEnumRecreateRequiresAllow is returned when diff contains an
// EnumDiff.Recreate and the caller has not set allowDestructiveEnumRecreate.
type ErrEnumRecreateRequiresAllow struct {
	Enum string
}

func (e *ErrEnumRecreateRequiresAllow) Error() string {
	return fmt.Sprintf("enum %q requires recreation (dropped and reordered values); pass --allow-destructive to proceed", e.Enum)
}

// emitter is implemented once per dialect; Generate drives it through the
// emission order spec.md fixes so that dependency ordering (tables before
// their indexes, columns before the constraints that reference them, and
// so on) never breaks.
type emitter interface {
	createTable(t *schema.Table) []string
	dropTable(name string) []string

	addColumn(table string, c *schema.Column) []string
	dropColumn(table string, columnName string) []string
	renameColumn(table, from, to string) []string

	alterColumnType(table string, d schemadiff.ColumnDiff) []string
	alterColumnNullability(table string, d schemadiff.ColumnDiff) []string
	alterColumnDefault(table string, d schemadiff.ColumnDiff) []string
	alterColumnAutoIncrement(table string, d schemadiff.ColumnDiff) []string

	createIndex(table string, idx *schema.Index) []string
	dropIndex(table string, idx *schema.Index) []string

	addConstraint(table string, c *schema.Constraint) []string
	dropConstraint(table string, c *schema.Constraint) []string

	createEnum(e *schema.Enum) []string
	dropEnum(name string) []string
	appendEnumValues(old, new *schema.Enum) []string
	recreateEnum(ed schemadiff.EnumDiff) []string
}

// Generate renders the up and down SQL sequences for diff under dialect.
// newSchema and oldSchema give dialect emitters (SQLite in particular, for
// its table-rebuild sequence) access to the full pre- and post-change table
// definitions a per-column diff doesn't carry on its own.
// allowDestructiveEnumRecreate must be true if diff contains any
// EnumDiff.Recreate, or Generate fails.
func Generate(diff *schemadiff.SchemaDiff, dialect schema.Dialect, oldSchema, newSchema *schema.Schema, allowDestructiveEnumRecreate bool) (up, down []string, err error) {
	for _, ed := range diff.ModifiedEnums {
		if ed.Kind == schemadiff.EnumRecreate && !allowDestructiveEnumRecreate {
			return nil, nil, &ErrEnumRecreateRequiresAllow{Enum: ed.Name}
		}
	}

	e, err := newEmitter(dialect, oldSchema, newSchema)
	if err != nil {
		return nil, nil, err
	}

	up = generateUp(e, diff)
	down = generateDown(e, diff)
	return up, down, nil
}

func newEmitter(d schema.Dialect, oldSchema, newSchema *schema.Schema) (emitter, error) {
	switch d {
	case schema.Postgres:
		return &postgresEmitter{}, nil
	case schema.MySQL:
		return &mysqlEmitter{}, nil
	case schema.SQLite:
		return &sqliteEmitter{oldSchema: oldSchema, newSchema: newSchema}, nil
	default:
		return nil, fmt.Errorf("sqlgen: unknown dialect %q", d)
	}
}

// tableWithoutFKs returns a shallow copy of t with foreign-key constraints
// removed, for step 2 of the emission order ("added tables without FKs").
func tableWithoutFKs(t *schema.Table) (*schema.Table, []*schema.Constraint) {
	clone := *t
	var kept []*schema.Constraint
	var fks []*schema.Constraint
	for _, c := range t.Constraints {
		if c.Kind == schema.ConstraintForeignKey {
			fks = append(fks, c)
		} else {
			kept = append(kept, c)
		}
	}
	clone.Constraints = kept
	return &clone, fks
}

func generateUp(e emitter, d *schemadiff.SchemaDiff) []string {
	var stmts []string

	for _, enum := range d.AddedEnums {
		stmts = append(stmts, e.createEnum(enum)...)
	}

	var deferredFKs []struct {
		table string
		c     *schema.Constraint
	}
	for _, t := range d.AddedTables {
		bare, fks := tableWithoutFKs(t)
		stmts = append(stmts, e.createTable(bare)...)
		for _, fk := range fks {
			deferredFKs = append(deferredFKs, struct {
				table string
				c     *schema.Constraint
			}{t.Name, fk})
		}
	}

	for _, td := range d.ModifiedTables {
		for _, c := range td.AddedColumns {
			stmts = append(stmts, e.addColumn(td.Name, c)...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, r := range td.RenamedColumns {
			stmts = append(stmts, e.renameColumn(td.Name, r.From, r.To)...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, cd := range td.ModifiedColumns {
			stmts = append(stmts, emitColumnDiff(e, td.Name, cd)...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, idx := range td.AddedIndexes {
			stmts = append(stmts, e.createIndex(td.Name, idx)...)
		}
	}

	for _, dfk := range deferredFKs {
		stmts = append(stmts, e.addConstraint(dfk.table, dfk.c)...)
	}
	for _, td := range d.ModifiedTables {
		for _, c := range td.AddedConstraints {
			stmts = append(stmts, e.addConstraint(td.Name, c)...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, c := range td.RemovedConstraints {
			stmts = append(stmts, e.dropConstraint(td.Name, c)...)
		}
	}
	for _, td := range d.ModifiedTables {
		for _, idx := range td.RemovedIndexes {
			stmts = append(stmts, e.dropIndex(td.Name, idx)...)
		}
	}
	for _, td := range d.ModifiedTables {
		for _, c := range td.RemovedColumns {
			stmts = append(stmts, e.dropColumn(td.Name, c.Name)...)
		}
	}
	for _, t := range d.RemovedTables {
		stmts = append(stmts, e.dropTable(t.Name)...)
	}
	for _, enum := range d.RemovedEnums {
		stmts = append(stmts, e.dropEnum(enum.Name)...)
	}

	for _, ed := range d.ModifiedEnums {
		if ed.Kind == schemadiff.EnumAppendOnly {
			stmts = append(stmts, e.appendEnumValues(ed.Old, ed.New)...)
		} else {
			stmts = append(stmts, e.recreateEnum(ed)...)
		}
	}

	return stmts
}

func emitColumnDiff(e emitter, table string, cd schemadiff.ColumnDiff) []string {
	switch cd.Kind {
	case schemadiff.ColumnTypeChanged:
		return e.alterColumnType(table, cd)
	case schemadiff.ColumnNullabilityChanged:
		return e.alterColumnNullability(table, cd)
	case schemadiff.ColumnDefaultChanged:
		return e.alterColumnDefault(table, cd)
	case schemadiff.ColumnAutoIncrementChanged:
		return e.alterColumnAutoIncrement(table, cd)
	default:
		return nil
	}
}

// generateDown renders the formal inverse of generateUp: every forward step
// has an inverse, emitted in reverse step order. Dropped tables cannot be
// recreated from a diff alone (the pre-schema values are recoverable only
// from the removed Table itself, which down does have — but recreating a
// dropped table from its pre-change definition still risks losing any data
// written since, so a manual note is emitted instead).
func generateDown(e emitter, d *schemadiff.SchemaDiff) []string {
	var stmts []string

	for _, ed := range d.ModifiedEnums {
		inverted := schemadiff.EnumDiff{Name: ed.Name, Kind: ed.Kind, Old: ed.New, New: ed.Old, AffectedColumns: ed.AffectedColumns}
		if ed.Kind == schemadiff.EnumAppendOnly {
			// Reversing an append is a drop of the appended values, which
			// PostgreSQL enums cannot do without a recreate.
			stmts = append(stmts, e.recreateEnum(inverted)...)
		} else {
			stmts = append(stmts, e.recreateEnum(inverted)...)
		}
	}

	for _, t := range d.RemovedTables {
		stmts = append(stmts, fmt.Sprintf("-- NOTE: manual CREATE TABLE required to restore %q", t.Name))
	}
	for _, enum := range d.RemovedEnums {
		stmts = append(stmts, e.createEnum(enum)...)
	}

	for _, td := range d.ModifiedTables {
		for _, c := range td.RemovedColumns {
			stmts = append(stmts, e.addColumn(td.Name, c)...)
		}
	}
	for _, td := range d.ModifiedTables {
		for _, idx := range td.RemovedIndexes {
			stmts = append(stmts, e.createIndex(td.Name, idx)...)
		}
	}
	for _, td := range d.ModifiedTables {
		for _, c := range td.RemovedConstraints {
			stmts = append(stmts, e.addConstraint(td.Name, c)...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, c := range td.AddedConstraints {
			stmts = append(stmts, e.dropConstraint(td.Name, c)...)
		}
	}
	for _, t := range d.AddedTables {
		_, fks := tableWithoutFKs(t)
		for _, fk := range fks {
			stmts = append(stmts, e.dropConstraint(t.Name, fk)...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, idx := range td.AddedIndexes {
			stmts = append(stmts, e.dropIndex(td.Name, idx)...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, cd := range td.ModifiedColumns {
			stmts = append(stmts, emitColumnDiff(e, td.Name, invertColumnDiff(cd))...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, r := range td.RenamedColumns {
			stmts = append(stmts, e.renameColumn(td.Name, r.To, r.From)...)
		}
	}

	for _, td := range d.ModifiedTables {
		for _, c := range td.AddedColumns {
			stmts = append(stmts, e.dropColumn(td.Name, c.Name)...)
		}
	}

	for _, t := range d.AddedTables {
		stmts = append(stmts, e.dropTable(t.Name)...)
	}

	for _, enum := range d.AddedEnums {
		stmts = append(stmts, e.dropEnum(enum.Name)...)
	}

	return stmts
}

func invertColumnDiff(cd schemadiff.ColumnDiff) schemadiff.ColumnDiff {
	return schemadiff.ColumnDiff{Column: cd.Column, Kind: cd.Kind, Old: cd.New, New: cd.Old}
}
