package schemadiff_test

import (
	"testing"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/schemadiff"
)

func col(name string, kind schema.ColumnTypeKind) *schema.Column {
	return &schema.Column{Name: name, Type: schema.ColumnType{Kind: kind}}
}

func TestDiffAddedAndRemovedTables(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{Name: "old_only", Columns: []*schema.Column{col("id", schema.KindInteger)}})

	next := schema.New("2")
	next.AddTable(&schema.Table{Name: "new_only", Columns: []*schema.Column{col("id", schema.KindInteger)}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.AddedTables) != 1 || d.AddedTables[0].Name != "new_only" {
		t.Fatalf("unexpected added tables: %+v", d.AddedTables)
	}
	if len(d.RemovedTables) != 1 || d.RemovedTables[0].Name != "old_only" {
		t.Fatalf("unexpected removed tables: %+v", d.RemovedTables)
	}
}

func TestDiffColumnRename(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{col("uname", schema.KindVarchar)}})

	next := schema.New("2")
	renamed := col("username", schema.KindVarchar)
	renamed.RenamedFrom = "uname"
	next.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{renamed}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.ModifiedTables) != 1 {
		t.Fatalf("expected one modified table, got %d", len(d.ModifiedTables))
	}
	td := d.ModifiedTables[0]
	if len(td.RenamedColumns) != 1 || td.RenamedColumns[0].From != "uname" || td.RenamedColumns[0].To != "username" {
		t.Fatalf("unexpected renames: %+v", td.RenamedColumns)
	}
	if len(td.AddedColumns) != 0 || len(td.RemovedColumns) != 0 {
		t.Fatalf("rename should not also appear as add+remove: %+v / %+v", td.AddedColumns, td.RemovedColumns)
	}
}

func TestDiffColumnRenameChainIsError(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{Name: "t", Columns: []*schema.Column{col("a", schema.KindText)}})

	next := schema.New("2")
	b := col("b", schema.KindText)
	b.RenamedFrom = "a"
	c := col("c", schema.KindText)
	c.RenamedFrom = "b"
	next.AddTable(&schema.Table{Name: "t", Columns: []*schema.Column{b, c}})

	_, err := schemadiff.Diff(old, next)
	if err == nil {
		t.Fatalf("expected a rename-chain error")
	}
}

func TestDiffColumnRenameAndRetypeBothSurface(t *testing.T) {
	old := schema.New("1")
	oldCol := &schema.Column{Name: "name", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 50}, Nullable: false}
	old.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{oldCol}})

	next := schema.New("2")
	newCol := &schema.Column{Name: "full_name", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 200}, Nullable: false}
	newCol.RenamedFrom = "name"
	next.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{newCol}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.ModifiedTables) != 1 {
		t.Fatalf("expected one modified table, got %d", len(d.ModifiedTables))
	}
	td := d.ModifiedTables[0]
	if len(td.RenamedColumns) != 1 || td.RenamedColumns[0].From != "name" || td.RenamedColumns[0].To != "full_name" {
		t.Fatalf("unexpected renames: %+v", td.RenamedColumns)
	}
	if len(td.ModifiedColumns) != 1 || td.ModifiedColumns[0].Kind != schemadiff.ColumnTypeChanged || td.ModifiedColumns[0].Column != "full_name" {
		t.Fatalf("expected a type-change diff under the new name, got: %+v", td.ModifiedColumns)
	}
}

func TestDiffModifiedColumnDimensionsAndOrder(t *testing.T) {
	old := schema.New("1")
	oldCol := &schema.Column{Name: "age", Type: schema.ColumnType{Kind: schema.KindInteger, Precision: 4, HasPrecision: true}, Nullable: true}
	old.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{oldCol}})

	next := schema.New("2")
	newCol := &schema.Column{Name: "age", Type: schema.ColumnType{Kind: schema.KindInteger, Precision: 8, HasPrecision: true}, Nullable: false, HasDefault: true, Default: "0"}
	next.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{newCol}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.ModifiedTables) != 1 {
		t.Fatalf("expected one modified table")
	}
	diffs := d.ModifiedTables[0].ModifiedColumns
	if len(diffs) != 3 {
		t.Fatalf("expected 3 dimension diffs, got %d: %+v", len(diffs), diffs)
	}
	if diffs[0].Kind != schemadiff.ColumnTypeChanged {
		t.Errorf("expected type change first, got %s", diffs[0].Kind)
	}
	if diffs[1].Kind != schemadiff.ColumnNullabilityChanged {
		t.Errorf("expected nullability change second, got %s", diffs[1].Kind)
	}
	if diffs[2].Kind != schemadiff.ColumnDefaultChanged {
		t.Errorf("expected default change third, got %s", diffs[2].Kind)
	}
}

func TestDiffIndexReplacedOnContentChange(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{
		Name:    "users",
		Columns: []*schema.Column{col("id", schema.KindInteger), col("email", schema.KindVarchar)},
		Indexes: []*schema.Index{{Name: "idx_email", Columns: []string{"email"}}},
	})

	next := schema.New("2")
	next.AddTable(&schema.Table{
		Name:    "users",
		Columns: []*schema.Column{col("id", schema.KindInteger), col("email", schema.KindVarchar)},
		Indexes: []*schema.Index{{Name: "idx_email", Columns: []string{"email"}, Unique: true}},
	})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	td := d.ModifiedTables[0]
	if len(td.AddedIndexes) != 1 || len(td.RemovedIndexes) != 1 {
		t.Fatalf("expected replace-as-add+remove, got added=%d removed=%d", len(td.AddedIndexes), len(td.RemovedIndexes))
	}
}

func TestDiffConstraintsStructuralNotByName(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{
		Name:    "users",
		Columns: []*schema.Column{col("id", schema.KindInteger), col("email", schema.KindVarchar)},
		Constraints: []*schema.Constraint{
			{Name: "old_name", Kind: schema.ConstraintUnique, Columns: []string{"email"}},
		},
	})

	next := schema.New("2")
	next.AddTable(&schema.Table{
		Name:    "users",
		Columns: []*schema.Column{col("id", schema.KindInteger), col("email", schema.KindVarchar)},
		Constraints: []*schema.Constraint{
			{Name: "new_name", Kind: schema.ConstraintUnique, Columns: []string{"email"}},
		},
	})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.ModifiedTables) != 0 {
		t.Fatalf("rename-only constraint name should not be a diff: %+v", d.ModifiedTables)
	}
}

func TestDiffEnumAppendOnlyVsRecreate(t *testing.T) {
	old := schema.New("1")
	old.AddEnum(&schema.Enum{Name: "status", Values: []string{"active", "inactive"}})

	appended := schema.New("2")
	appended.AddEnum(&schema.Enum{Name: "status", Values: []string{"active", "inactive", "archived"}})

	d, err := schemadiff.Diff(old, appended)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.ModifiedEnums) != 1 || d.ModifiedEnums[0].Kind != schemadiff.EnumAppendOnly {
		t.Fatalf("expected append-only enum change: %+v", d.ModifiedEnums)
	}

	reordered := schema.New("3")
	reordered.AddEnum(&schema.Enum{Name: "status", Values: []string{"inactive", "active"}})

	d2, err := schemadiff.Diff(old, reordered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d2.ModifiedEnums) != 1 || d2.ModifiedEnums[0].Kind != schemadiff.EnumRecreate {
		t.Fatalf("expected recreate enum change: %+v", d2.ModifiedEnums)
	}
}

func TestDiffEnumRecreateCollectsAffectedColumns(t *testing.T) {
	old := schema.New("1")
	old.AddEnum(&schema.Enum{Name: "status", Values: []string{"a", "b"}})

	next := schema.New("2")
	next.AddEnum(&schema.Enum{Name: "status", Values: []string{"b", "a"}})
	statusCol := &schema.Column{Name: "status", Type: schema.ColumnType{Kind: schema.KindDialectSpecific, DialectKind: "status"}}
	next.AddTable(&schema.Table{Name: "accounts", Columns: []*schema.Column{statusCol}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.ModifiedEnums) != 1 {
		t.Fatalf("expected one modified enum")
	}
	refs := d.ModifiedEnums[0].AffectedColumns
	if len(refs) != 1 || refs[0].Table != "accounts" || refs[0].Column != "status" {
		t.Fatalf("unexpected affected columns: %+v", refs)
	}
}

func TestDiffViewBodyChangeIsModification(t *testing.T) {
	old := schema.New("1")
	old.AddView(&schema.View{Name: "v", Body: "SELECT 1"})

	next := schema.New("2")
	next.AddView(&schema.View{Name: "v", Body: "SELECT 2"})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.ModifiedViews) != 1 {
		t.Fatalf("expected one modified view, got %d", len(d.ModifiedViews))
	}
}

func TestDiffEmptyWhenIdentical(t *testing.T) {
	a := schema.New("1")
	a.AddTable(&schema.Table{Name: "t", Columns: []*schema.Column{col("id", schema.KindInteger)}})
	b := schema.New("1")
	b.AddTable(&schema.Table{Name: "t", Columns: []*schema.Column{col("id", schema.KindInteger)}})

	d, err := schemadiff.Diff(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.IsEmpty() {
		t.Fatalf("expected no-op diff to be empty: %+v", d)
	}
}
