// Package destructive classifies a SchemaDiff's changes as destructive or
// safe, producing a report suitable for gating migration application and
// for human-readable CLI output.
package destructive

import (
	"sort"

	"github.com/stratadb/strata/internal/schemadiff"
)

// ColumnsDropped groups the columns removed from a single table.
type ColumnsDropped struct {
	Table   string
	Columns []string
}

// ColumnRenamed records a single column rename, destructive because some
// dialects rewrite objects that reference the column by name.
type ColumnRenamed struct {
	Table string
	From  string
	To    string
}

// Report summarizes the destructive and non-destructive changes in a diff.
type Report struct {
	TablesDropped  []string
	ColumnsDropped []ColumnsDropped
	ColumnsRenamed []ColumnRenamed
	EnumsDropped   []string
	EnumsRecreated []string
}

// HasDestructiveChanges reports whether the report contains anything that
// would lose data or require manual intervention to reverse.
func (r *Report) HasDestructiveChanges() bool {
	return len(r.TablesDropped) > 0 ||
		len(r.ColumnsDropped) > 0 ||
		len(r.ColumnsRenamed) > 0 ||
		len(r.EnumsDropped) > 0 ||
		len(r.EnumsRecreated) > 0
}

// TotalChangeCount counts every individual destructive change the report
// names, flattening grouped columns.
func (r *Report) TotalChangeCount() int {
	total := len(r.TablesDropped) + len(r.ColumnsRenamed) + len(r.EnumsDropped) + len(r.EnumsRecreated)
	for _, g := range r.ColumnsDropped {
		total += len(g.Columns)
	}
	return total
}

// Classify turns a SchemaDiff into a Report. Added tables/columns/indexes/
// constraints, append-only enum extensions, column type changes, and removed
// indexes or constraints are never destructive at this layer; dropped
// tables, columns and enums, column renames, and enum recreation are.
func Classify(d *schemadiff.SchemaDiff) *Report {
	r := &Report{}

	for _, t := range d.RemovedTables {
		r.TablesDropped = append(r.TablesDropped, t.Name)
	}
	sort.Strings(r.TablesDropped)

	for _, td := range d.ModifiedTables {
		if len(td.RemovedColumns) > 0 {
			names := make([]string, len(td.RemovedColumns))
			for i, c := range td.RemovedColumns {
				names[i] = c.Name
			}
			r.ColumnsDropped = append(r.ColumnsDropped, ColumnsDropped{Table: td.Name, Columns: names})
		}
		for _, rn := range td.RenamedColumns {
			r.ColumnsRenamed = append(r.ColumnsRenamed, ColumnRenamed{Table: td.Name, From: rn.From, To: rn.To})
		}
	}
	sort.Slice(r.ColumnsDropped, func(i, j int) bool { return r.ColumnsDropped[i].Table < r.ColumnsDropped[j].Table })
	sort.Slice(r.ColumnsRenamed, func(i, j int) bool {
		if r.ColumnsRenamed[i].Table != r.ColumnsRenamed[j].Table {
			return r.ColumnsRenamed[i].Table < r.ColumnsRenamed[j].Table
		}
		return r.ColumnsRenamed[i].From < r.ColumnsRenamed[j].From
	})

	for _, e := range d.RemovedEnums {
		r.EnumsDropped = append(r.EnumsDropped, e.Name)
	}
	sort.Strings(r.EnumsDropped)

	for _, ed := range d.ModifiedEnums {
		if ed.Kind == schemadiff.EnumRecreate {
			r.EnumsRecreated = append(r.EnumsRecreated, ed.Name)
		}
	}
	sort.Strings(r.EnumsRecreated)

	return r
}
