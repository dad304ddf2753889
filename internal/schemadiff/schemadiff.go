// Package schemadiff computes the structural difference between two schema
// versions: added/removed tables, per-table column/index/constraint
// changes, enum evolution, and view changes. The output is emitted in a
// canonical, identifier-sorted order so that SQL generation (and tests) are
// deterministic.
package schemadiff

import (
	"fmt"
	"sort"

	"github.com/stratadb/strata/internal/schema"
)

// ColumnDiffKind identifies which single dimension of a column changed.
// The differ emits one ColumnDiff per changed dimension rather than one
// combined diff, so downstream SQL generation can decide per-dimension
// whether a dialect needs a separate statement.
type ColumnDiffKind string

const (
	ColumnTypeChanged          ColumnDiffKind = "TYPE"
	ColumnNullabilityChanged   ColumnDiffKind = "NULLABILITY"
	ColumnDefaultChanged       ColumnDiffKind = "DEFAULT"
	ColumnAutoIncrementChanged ColumnDiffKind = "AUTO_INCREMENT"
)

// columnDiffKindOrder fixes the tie-break order spec.md assigns to same-name
// column modifications: Type, Nullability, Default, AutoIncrement.
var columnDiffKindOrder = map[ColumnDiffKind]int{
	ColumnTypeChanged:          0,
	ColumnNullabilityChanged:   1,
	ColumnDefaultChanged:       2,
	ColumnAutoIncrementChanged: 3,
}

// ColumnDiff describes one changed dimension of one column.
type ColumnDiff struct {
	Column string
	Kind   ColumnDiffKind
	Old    *schema.Column
	New    *schema.Column
}

// ColumnRename records that new.Name replaces old.Name in the same table,
// via the column's renamed_from hint.
type ColumnRename struct {
	From string
	To   string
}

// TableDiff is every change within one table present in both schemas.
type TableDiff struct {
	Name string

	RenamedColumns []ColumnRename
	AddedColumns   []*schema.Column
	RemovedColumns []*schema.Column
	ModifiedColumns []ColumnDiff

	AddedIndexes   []*schema.Index
	RemovedIndexes []*schema.Index

	AddedConstraints   []*schema.Constraint
	RemovedConstraints []*schema.Constraint
}

// IsEmpty reports whether the table has no detected changes at all.
func (d *TableDiff) IsEmpty() bool {
	return len(d.RenamedColumns) == 0 &&
		len(d.AddedColumns) == 0 && len(d.RemovedColumns) == 0 && len(d.ModifiedColumns) == 0 &&
		len(d.AddedIndexes) == 0 && len(d.RemovedIndexes) == 0 &&
		len(d.AddedConstraints) == 0 && len(d.RemovedConstraints) == 0
}

// EnumChangeKind classifies how an enum's value list evolved.
type EnumChangeKind string

const (
	// EnumAppendOnly means new is old's value list with zero or more values
	// appended at the end; the change is non-destructive.
	EnumAppendOnly EnumChangeKind = "APPEND_ONLY"
	// EnumRecreate means values were removed, reordered, or inserted
	// mid-sequence; the enum type must be dropped and recreated.
	EnumRecreate EnumChangeKind = "RECREATE"
)

// EnumDiff describes how one enum type present in both schemas changed.
type EnumDiff struct {
	Name string
	Kind EnumChangeKind
	Old  *schema.Enum
	New  *schema.Enum
	// AffectedColumns lists every (table, column) whose type references
	// this enum, populated only when Kind is EnumRecreate — PG's recreate
	// pattern needs to know every column it must re-point.
	AffectedColumns []ColumnRef
}

// ColumnRef names one column in one table.
type ColumnRef struct {
	Table  string
	Column string
}

// SchemaDiff is the full structural delta between an old and a new schema,
// in canonical (identifier-sorted) order.
type SchemaDiff struct {
	AddedTables   []*schema.Table
	RemovedTables []*schema.Table
	ModifiedTables []TableDiff

	AddedEnums    []*schema.Enum
	RemovedEnums  []*schema.Enum
	ModifiedEnums []EnumDiff

	AddedViews   []*schema.View
	RemovedViews []*schema.View
	ModifiedViews []*schema.View // by new body; name identifies which
}

// IsEmpty reports whether old and new describe the identical schema.
func (d *SchemaDiff) IsEmpty() bool {
	if len(d.AddedTables) != 0 || len(d.RemovedTables) != 0 ||
		len(d.AddedEnums) != 0 || len(d.RemovedEnums) != 0 || len(d.ModifiedEnums) != 0 ||
		len(d.AddedViews) != 0 || len(d.RemovedViews) != 0 || len(d.ModifiedViews) != 0 {
		return false
	}
	for _, t := range d.ModifiedTables {
		if !t.IsEmpty() {
			return false
		}
	}
	return true
}

// RenameChainError reports a column rename chain longer than one hop
// (a -> b -> c), which Diff refuses to resolve.
type RenameChainError struct {
	Table string
	Chain []string
}

func (e *RenameChainError) Error() string {
	return fmt.Sprintf("table %q has a column rename chain that cannot be resolved: %v", e.Table, e.Chain)
}

// Diff computes the structural difference between old and new.
func Diff(old, new *schema.Schema) (*SchemaDiff, error) {
	d := &SchemaDiff{}

	for name, t := range new.Tables {
		if !old.HasTable(name) {
			d.AddedTables = append(d.AddedTables, t)
		}
	}
	for name, t := range old.Tables {
		if !new.HasTable(name) {
			d.RemovedTables = append(d.RemovedTables, t)
		}
	}
	sortTablesByName(d.AddedTables)
	sortTablesByName(d.RemovedTables)

	var commonNames []string
	for name := range new.Tables {
		if old.HasTable(name) {
			commonNames = append(commonNames, name)
		}
	}
	sort.Strings(commonNames)

	for _, name := range commonNames {
		td, err := diffTable(name, old.Tables[name], new.Tables[name])
		if err != nil {
			return nil, err
		}
		if !td.IsEmpty() {
			d.ModifiedTables = append(d.ModifiedTables, *td)
		}
	}

	diffEnums(d, old, new)
	diffViews(d, old, new)

	return d, nil
}

func sortTablesByName(ts []*schema.Table) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name < ts[j].Name })
}

// diffTable resolves renames first, then diffs the remaining columns,
// indexes, and constraints of one table present in both schemas.
func diffTable(name string, oldT, newT *schema.Table) (*TableDiff, error) {
	td := &TableDiff{Name: name}

	renamedTo := make(map[string]string) // old name -> new name
	renamedNew := make(map[string]bool)  // new-column names consumed by a rename

	oldByName := make(map[string]*schema.Column, len(oldT.Columns))
	for _, c := range oldT.Columns {
		oldByName[c.Name] = c
	}
	newByName := make(map[string]*schema.Column, len(newT.Columns))
	for _, c := range newT.Columns {
		newByName[c.Name] = c
	}

	// claimedFrom holds every new column name that itself carries a
	// renamed_from claim, so a later column claiming one of these names as
	// its own renamed_from is chaining off a pending rename rather than
	// renaming an original old column.
	claimedFrom := make(map[string]bool, len(newT.Columns))
	for _, nc := range newT.Columns {
		if nc.RenamedFrom != "" {
			claimedFrom[nc.Name] = true
		}
	}

	for _, nc := range newT.Columns {
		if nc.RenamedFrom == "" {
			continue
		}
		if claimedFrom[nc.RenamedFrom] {
			root := nc.RenamedFrom
			if src, ok := newByName[nc.RenamedFrom]; ok {
				root = src.RenamedFrom
			}
			return nil, &RenameChainError{Table: name, Chain: []string{root, nc.RenamedFrom, nc.Name}}
		}
		if _, isOld := oldByName[nc.RenamedFrom]; !isOld {
			continue
		}
		if _, stillPresent := newByName[nc.RenamedFrom]; stillPresent {
			// The old name still exists under new: not a rename, just a
			// same-named column plus an unrelated new one.
			continue
		}
		if prior, ok := renamedTo[nc.RenamedFrom]; ok && prior != nc.Name {
			return nil, &RenameChainError{Table: name, Chain: []string{nc.RenamedFrom, prior, nc.Name}}
		}
		renamedTo[nc.RenamedFrom] = nc.Name
		renamedNew[nc.Name] = true
	}

	var renames []string
	for from := range renamedTo {
		renames = append(renames, from)
	}
	sort.Strings(renames)
	for _, from := range renames {
		td.RenamedColumns = append(td.RenamedColumns, ColumnRename{From: from, To: renamedTo[from]})
	}

	var addedNames, removedNames, commonNames []string
	for _, c := range newT.Columns {
		if renamedNew[c.Name] {
			continue
		}
		if _, existed := oldByName[c.Name]; !existed {
			addedNames = append(addedNames, c.Name)
		} else {
			commonNames = append(commonNames, c.Name)
		}
	}
	for _, c := range oldT.Columns {
		if _, renamed := renamedTo[c.Name]; renamed {
			continue
		}
		if _, stillThere := newByName[c.Name]; !stillThere {
			removedNames = append(removedNames, c.Name)
		}
	}
	sort.Strings(addedNames)
	sort.Strings(removedNames)
	sort.Strings(commonNames)

	for _, n := range addedNames {
		td.AddedColumns = append(td.AddedColumns, newByName[n])
	}
	for _, n := range removedNames {
		td.RemovedColumns = append(td.RemovedColumns, oldByName[n])
	}
	for _, n := range commonNames {
		td.ModifiedColumns = append(td.ModifiedColumns, diffColumn(n, oldByName[n], newByName[n])...)
	}
	// A renamed column can also change type, nullability, default, or
	// auto-increment in the same migration; diffColumn runs again here,
	// under the column's new name, so those dimension-specific diffs still
	// surface instead of being swallowed by the rename.
	for _, from := range renames {
		to := renamedTo[from]
		td.ModifiedColumns = append(td.ModifiedColumns, diffColumn(to, oldByName[from], newByName[to])...)
	}

	diffIndexes(td, oldT, newT)
	diffConstraints(td, oldT, newT)

	return td, nil
}

func diffColumn(name string, o, n *schema.Column) []ColumnDiff {
	var diffs []ColumnDiff
	if !o.Type.Equal(n.Type) {
		diffs = append(diffs, ColumnDiff{Column: name, Kind: ColumnTypeChanged, Old: o, New: n})
	}
	if o.Nullable != n.Nullable {
		diffs = append(diffs, ColumnDiff{Column: name, Kind: ColumnNullabilityChanged, Old: o, New: n})
	}
	if o.HasDefault != n.HasDefault || o.Default != n.Default {
		diffs = append(diffs, ColumnDiff{Column: name, Kind: ColumnDefaultChanged, Old: o, New: n})
	}
	if o.AutoIncrement != n.AutoIncrement {
		diffs = append(diffs, ColumnDiff{Column: name, Kind: ColumnAutoIncrementChanged, Old: o, New: n})
	}
	sort.SliceStable(diffs, func(i, j int) bool {
		return columnDiffKindOrder[diffs[i].Kind] < columnDiffKindOrder[diffs[j].Kind]
	})
	return diffs
}

func diffIndexes(td *TableDiff, oldT, newT *schema.Table) {
	oldByName := make(map[string]*schema.Index, len(oldT.Indexes))
	for _, idx := range oldT.Indexes {
		oldByName[idx.Name] = idx
	}
	newByName := make(map[string]*schema.Index, len(newT.Indexes))
	for _, idx := range newT.Indexes {
		newByName[idx.Name] = idx
	}

	var added, removed []string
	for name, idx := range newByName {
		old, existed := oldByName[name]
		if !existed || !indexEqual(old, idx) {
			added = append(added, name)
		}
	}
	for name, idx := range oldByName {
		n, stillThere := newByName[name]
		if !stillThere || !indexEqual(idx, n) {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	for _, n := range added {
		td.AddedIndexes = append(td.AddedIndexes, newByName[n])
	}
	for _, n := range removed {
		td.RemovedIndexes = append(td.RemovedIndexes, oldByName[n])
	}
}

func indexEqual(a, b *schema.Index) bool {
	if a.Unique != b.Unique || len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	return true
}

// diffConstraints compares constraints structurally (kind + sorted columns
// + FK target + canonicalized CHECK expression), ignoring names, which are
// advisory only.
func diffConstraints(td *TableDiff, oldT, newT *schema.Table) {
	oldKeys := make(map[string]*schema.Constraint, len(oldT.Constraints))
	for _, c := range oldT.Constraints {
		oldKeys[constraintKey(c)] = c
	}
	newKeys := make(map[string]*schema.Constraint, len(newT.Constraints))
	for _, c := range newT.Constraints {
		newKeys[constraintKey(c)] = c
	}

	var addedKeys, removedKeys []string
	for k := range newKeys {
		if _, ok := oldKeys[k]; !ok {
			addedKeys = append(addedKeys, k)
		}
	}
	for k := range oldKeys {
		if _, ok := newKeys[k]; !ok {
			removedKeys = append(removedKeys, k)
		}
	}
	sort.Strings(addedKeys)
	sort.Strings(removedKeys)
	for _, k := range addedKeys {
		td.AddedConstraints = append(td.AddedConstraints, newKeys[k])
	}
	for _, k := range removedKeys {
		td.RemovedConstraints = append(td.RemovedConstraints, oldKeys[k])
	}
}

// constraintKey builds the structural identity spec.md defines for
// constraint comparison: kind + sorted column list + (FK) referenced
// table/columns + (CHECK) canonicalized expression.
func constraintKey(c *schema.Constraint) string {
	cols := append([]string(nil), c.Columns...)
	sort.Strings(cols)
	key := fmt.Sprintf("%s|%v", c.Kind, cols)
	switch c.Kind {
	case schema.ConstraintForeignKey:
		refCols := append([]string(nil), c.ReferencedColumns...)
		sort.Strings(refCols)
		key += fmt.Sprintf("|%s|%v|%s", c.ReferencedTable, refCols, c.OnDelete)
	case schema.ConstraintCheck:
		key += "|" + canonicalizeExpression(c.Expression)
	}
	return key
}

// canonicalizeExpression normalizes a CHECK expression for structural
// comparison: collapse runs of whitespace and trim ends. It does not
// attempt to parse SQL.
func canonicalizeExpression(expr string) string {
	var b []byte
	lastSpace := true
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if !lastSpace {
				b = append(b, ' ')
			}
			lastSpace = true
			continue
		}
		b = append(b, c)
		lastSpace = false
	}
	for len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return string(b)
}

func diffEnums(d *SchemaDiff, old, new *schema.Schema) {
	var added, removed, common []string
	for name := range new.Enums {
		if _, ok := old.Enums[name]; !ok {
			added = append(added, name)
		} else {
			common = append(common, name)
		}
	}
	for name := range old.Enums {
		if _, ok := new.Enums[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(common)

	for _, n := range added {
		d.AddedEnums = append(d.AddedEnums, new.Enums[n])
	}
	for _, n := range removed {
		d.RemovedEnums = append(d.RemovedEnums, old.Enums[n])
	}

	for _, n := range common {
		o, nw := old.Enums[n], new.Enums[n]
		if enumValuesEqual(o.Values, nw.Values) {
			continue
		}
		ed := EnumDiff{Name: n, Old: o, New: nw}
		if isAppendOnlyExtension(o.Values, nw.Values) {
			ed.Kind = EnumAppendOnly
		} else {
			ed.Kind = EnumRecreate
			ed.AffectedColumns = findEnumReferences(new, n)
		}
		d.ModifiedEnums = append(d.ModifiedEnums, ed)
	}
}

func enumValuesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isAppendOnlyExtension reports whether new is old's value list with zero
// or more values appended at the end — same values, same positions.
func isAppendOnlyExtension(old, new []string) bool {
	if len(new) < len(old) {
		return false
	}
	for i := range old {
		if old[i] != new[i] {
			return false
		}
	}
	return true
}

// findEnumReferences scans every table's columns for a DialectSpecific type
// whose DialectKind names the given enum, returning every (table, column)
// reference in canonical order.
func findEnumReferences(s *schema.Schema, enumName string) []ColumnRef {
	var refs []ColumnRef
	for tableName, t := range s.Tables {
		for _, c := range t.Columns {
			if c.Type.Kind == schema.KindDialectSpecific && c.Type.DialectKind == enumName {
				refs = append(refs, ColumnRef{Table: tableName, Column: c.Name})
			}
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Table != refs[j].Table {
			return refs[i].Table < refs[j].Table
		}
		return refs[i].Column < refs[j].Column
	})
	return refs
}

func diffViews(d *SchemaDiff, old, new *schema.Schema) {
	var added, removed, common []string
	for name := range new.Views {
		if _, ok := old.Views[name]; !ok {
			added = append(added, name)
		} else {
			common = append(common, name)
		}
	}
	for name := range old.Views {
		if _, ok := new.Views[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(common)

	for _, n := range added {
		d.AddedViews = append(d.AddedViews, new.Views[n])
	}
	for _, n := range removed {
		d.RemovedViews = append(d.RemovedViews, old.Views[n])
	}
	for _, n := range common {
		if old.Views[n].Body != new.Views[n].Body {
			d.ModifiedViews = append(d.ModifiedViews, new.Views[n])
		}
	}
}
