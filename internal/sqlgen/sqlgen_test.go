package sqlgen_test

import (
	"strings"
	"testing"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/schemadiff"
	"github.com/stratadb/strata/internal/sqlgen"
)

func TestGenerateAddedTablePostgres(t *testing.T) {
	old := schema.New("1")
	next := schema.New("2")
	next.AddTable(&schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger, Precision: 8, HasPrecision: true}, AutoIncrement: true},
			{Name: "email", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 255}},
		},
		PrimaryKey: []string{"id"},
	})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	up, down, err := sqlgen.Generate(d, schema.Postgres, old, next, false)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if len(up) != 1 || !strings.Contains(up[0], "CREATE TABLE") || !strings.Contains(up[0], "BIGSERIAL") {
		t.Fatalf("unexpected up SQL: %v", up)
	}
	if len(down) != 1 || !strings.Contains(down[0], "DROP TABLE") {
		t.Fatalf("unexpected down SQL: %v", down)
	}
}

func TestGenerateRenameThenRetypeOrderedCorrectlyPostgres(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{
		Name:    "users",
		Columns: []*schema.Column{{Name: "name", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 50}}},
	})

	renamed := &schema.Column{Name: "full_name", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 200}}
	renamed.RenamedFrom = "name"
	next := schema.New("2")
	next.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{renamed}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	up, down, err := sqlgen.Generate(d, schema.Postgres, old, next, false)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	joinedUp := strings.Join(up, ";\n")
	renameIdx := strings.Index(joinedUp, `RENAME COLUMN "name" TO "full_name"`)
	typeIdx := strings.Index(joinedUp, `ALTER COLUMN "full_name" TYPE`)
	if renameIdx == -1 || typeIdx == -1 {
		t.Fatalf("expected both RENAME and ALTER TYPE statements, got: %v", up)
	}
	if renameIdx > typeIdx {
		t.Fatalf("expected RENAME COLUMN before ALTER COLUMN TYPE, got: %v", up)
	}

	joinedDown := strings.Join(down, ";\n")
	downTypeIdx := strings.Index(joinedDown, `ALTER COLUMN "full_name" TYPE`)
	downRenameIdx := strings.Index(joinedDown, `RENAME COLUMN "full_name" TO "name"`)
	if downTypeIdx == -1 || downRenameIdx == -1 {
		t.Fatalf("expected both ALTER TYPE and RENAME statements in down, got: %v", down)
	}
	if downTypeIdx > downRenameIdx {
		t.Fatalf("expected down to revert the type change before renaming back, got: %v", down)
	}
}

func TestGenerateEnumRecreateRequiresAllow(t *testing.T) {
	old := schema.New("1")
	old.AddEnum(&schema.Enum{Name: "status", Values: []string{"a", "b"}})
	next := schema.New("2")
	next.AddEnum(&schema.Enum{Name: "status", Values: []string{"b", "a"}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	_, _, err = sqlgen.Generate(d, schema.Postgres, old, next, false)
	if err == nil {
		t.Fatalf("expected error without allow flag")
	}
	_, _, err = sqlgen.Generate(d, schema.Postgres, old, next, true)
	if err != nil {
		t.Fatalf("unexpected error with allow flag: %v", err)
	}
}

func TestGenerateMySQLModifyColumnOnTypeChange(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{
		{Name: "age", Type: schema.ColumnType{Kind: schema.KindInteger, Precision: 4, HasPrecision: true}},
	}})
	next := schema.New("2")
	next.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{
		{Name: "age", Type: schema.ColumnType{Kind: schema.KindInteger, Precision: 8, HasPrecision: true}},
	}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	up, _, err := sqlgen.Generate(d, schema.MySQL, old, next, false)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if len(up) != 1 || !strings.Contains(up[0], "MODIFY COLUMN") {
		t.Fatalf("unexpected up SQL: %v", up)
	}
}

func TestGenerateSQLiteRebuildOnColumnChange(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{
		{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}},
		{Name: "age", Type: schema.ColumnType{Kind: schema.KindInteger}, Nullable: true},
	}})
	next := schema.New("2")
	next.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{
		{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}},
		{Name: "age", Type: schema.ColumnType{Kind: schema.KindInteger}, Nullable: false},
	}})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	up, _, err := sqlgen.Generate(d, schema.SQLite, old, next, false)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	joined := strings.Join(up, " ; ")
	if !strings.Contains(joined, "_strata_rebuild") || !strings.Contains(joined, "INSERT INTO") || !strings.Contains(joined, "RENAME TO") {
		t.Fatalf("expected a rebuild sequence, got: %v", up)
	}
}

func TestGenerateEmissionOrderNewColumnBeforeIndex(t *testing.T) {
	old := schema.New("1")
	old.AddTable(&schema.Table{Name: "users", Columns: []*schema.Column{{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}}}})
	next := schema.New("2")
	next.AddTable(&schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}},
			{Name: "email", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 100}},
		},
		Indexes: []*schema.Index{{Name: "idx_email", Columns: []string{"email"}}},
	})

	d, err := schemadiff.Diff(old, next)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	up, _, err := sqlgen.Generate(d, schema.Postgres, old, next, false)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	addColIdx, createIdxIdx := -1, -1
	for i, s := range up {
		if strings.Contains(s, "ADD COLUMN") {
			addColIdx = i
		}
		if strings.Contains(s, "CREATE INDEX") {
			createIdxIdx = i
		}
	}
	if addColIdx == -1 || createIdxIdx == -1 || addColIdx > createIdxIdx {
		t.Fatalf("expected ADD COLUMN before CREATE INDEX, got: %v", up)
	}
}
