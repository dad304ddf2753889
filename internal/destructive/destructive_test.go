package destructive_test

import (
	"testing"

	"github.com/stratadb/strata/internal/destructive"
	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/schemadiff"
)

func TestClassifyEmptyDiffIsNotDestructive(t *testing.T) {
	r := destructive.Classify(&schemadiff.SchemaDiff{})
	if r.HasDestructiveChanges() {
		t.Fatalf("expected no destructive changes, got %+v", r)
	}
	if r.TotalChangeCount() != 0 {
		t.Fatalf("expected zero change count, got %d", r.TotalChangeCount())
	}
}

func TestClassifyDroppedTable(t *testing.T) {
	d := &schemadiff.SchemaDiff{
		RemovedTables: []*schema.Table{{Name: "legacy"}},
	}
	r := destructive.Classify(d)
	if !r.HasDestructiveChanges() {
		t.Fatalf("expected dropped table to be destructive")
	}
	if len(r.TablesDropped) != 1 || r.TablesDropped[0] != "legacy" {
		t.Fatalf("unexpected tables dropped: %v", r.TablesDropped)
	}
}

func TestClassifyGroupsDroppedColumnsByTable(t *testing.T) {
	d := &schemadiff.SchemaDiff{
		ModifiedTables: []schemadiff.TableDiff{
			{
				Name: "users",
				RemovedColumns: []*schema.Column{
					{Name: "legacy_flag"},
					{Name: "old_email"},
				},
			},
		},
	}
	r := destructive.Classify(d)
	if len(r.ColumnsDropped) != 1 || r.ColumnsDropped[0].Table != "users" {
		t.Fatalf("unexpected grouping: %+v", r.ColumnsDropped)
	}
	if len(r.ColumnsDropped[0].Columns) != 2 {
		t.Fatalf("expected 2 dropped columns, got %v", r.ColumnsDropped[0].Columns)
	}
	if r.TotalChangeCount() != 2 {
		t.Fatalf("expected total change count 2, got %d", r.TotalChangeCount())
	}
}

func TestClassifyRenameIsDestructive(t *testing.T) {
	d := &schemadiff.SchemaDiff{
		ModifiedTables: []schemadiff.TableDiff{
			{Name: "users", RenamedColumns: []schemadiff.ColumnRename{{From: "uname", To: "username"}}},
		},
	}
	r := destructive.Classify(d)
	if !r.HasDestructiveChanges() || len(r.ColumnsRenamed) != 1 {
		t.Fatalf("expected rename to be classified as destructive: %+v", r)
	}
}

func TestClassifyAppendOnlyEnumIsNotDestructive(t *testing.T) {
	d := &schemadiff.SchemaDiff{
		ModifiedEnums: []schemadiff.EnumDiff{
			{Name: "status", Kind: schemadiff.EnumAppendOnly},
		},
	}
	r := destructive.Classify(d)
	if r.HasDestructiveChanges() {
		t.Fatalf("append-only enum change should not be destructive: %+v", r)
	}
}

func TestClassifyEnumRecreateIsDestructive(t *testing.T) {
	d := &schemadiff.SchemaDiff{
		ModifiedEnums: []schemadiff.EnumDiff{
			{Name: "status", Kind: schemadiff.EnumRecreate},
		},
	}
	r := destructive.Classify(d)
	if !r.HasDestructiveChanges() || len(r.EnumsRecreated) != 1 {
		t.Fatalf("expected enum recreate to be destructive: %+v", r)
	}
}

func TestClassifyAddedTablesAndColumnsAreSafe(t *testing.T) {
	d := &schemadiff.SchemaDiff{
		AddedTables: []*schema.Table{{Name: "new_table"}},
		ModifiedTables: []schemadiff.TableDiff{
			{
				Name:         "users",
				AddedColumns: []*schema.Column{{Name: "new_col"}},
				AddedIndexes: []*schema.Index{{Name: "idx_new"}},
			},
		},
	}
	r := destructive.Classify(d)
	if r.HasDestructiveChanges() {
		t.Fatalf("expected additions to be non-destructive: %+v", r)
	}
}
