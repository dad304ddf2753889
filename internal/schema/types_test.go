package schema_test

import (
	"testing"

	"github.com/stratadb/strata/internal/schema"
)

func TestSchemaAddAndLookup(t *testing.T) {
	s := schema.New("1.0")
	users := &schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}},
		},
	}
	s.AddTable(users)

	if !s.HasTable("users") {
		t.Fatalf("expected users table to be present")
	}
	if got := s.GetTable("users"); got != users {
		t.Fatalf("GetTable returned a different pointer")
	}
	if s.GetTable("missing") != nil {
		t.Fatalf("expected nil for missing table")
	}
}

func TestTableGetColumn(t *testing.T) {
	tbl := &schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}},
			{Name: "email", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 255}},
		},
	}

	if col := tbl.GetColumn("email"); col == nil || col.Type.Length != 255 {
		t.Fatalf("expected to find email column with length 255")
	}
	if tbl.GetColumn("missing") != nil {
		t.Fatalf("expected nil for missing column")
	}
	if got := tbl.ColumnNames(); len(got) != 2 || got[0] != "id" || got[1] != "email" {
		t.Fatalf("unexpected column order: %v", got)
	}
}

func TestColumnTypeEqual(t *testing.T) {
	a := schema.ColumnType{Kind: schema.KindVarchar, Length: 100}
	b := schema.ColumnType{Kind: schema.KindVarchar, Length: 100}
	c := schema.ColumnType{Kind: schema.KindVarchar, Length: 200}

	if !a.Equal(b) {
		t.Fatalf("expected equal varchar types")
	}
	if a.Equal(c) {
		t.Fatalf("expected different-length varchars to differ")
	}
}

func TestValidateCatchesDuplicateColumn(t *testing.T) {
	s := schema.New("1.0")
	s.AddTable(&schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}},
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}},
		},
	})

	result := s.Validate()
	if result.OK() {
		t.Fatalf("expected duplicate column to be flagged")
	}
	found := false
	for _, v := range result.Violations {
		if v.Category == schema.CategorySyntax && v.Location.Column == "id" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a syntax violation for column %q, got %+v", "id", result.Violations)
	}
}

func TestValidateCatchesBothPrimaryKeyForms(t *testing.T) {
	s := schema.New("1.0")
	s.AddTable(&schema.Table{
		Name:       "users",
		Columns:    []*schema.Column{{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}}},
		PrimaryKey: []string{"id"},
		Constraints: []*schema.Constraint{
			{Kind: schema.ConstraintPrimaryKey, Columns: []string{"id"}},
		},
	})

	result := s.Validate()
	if result.OK() {
		t.Fatalf("expected dual primary-key declaration to be flagged")
	}
}

func TestValidateCatchesDanglingForeignKey(t *testing.T) {
	s := schema.New("1.0")
	s.AddTable(&schema.Table{
		Name:    "posts",
		Columns: []*schema.Column{{Name: "author_id", Type: schema.ColumnType{Kind: schema.KindInteger}}},
		Constraints: []*schema.Constraint{
			{
				Kind:              schema.ConstraintForeignKey,
				Columns:           []string{"author_id"},
				ReferencedTable:   "users",
				ReferencedColumns: []string{"id"},
			},
		},
	})

	result := s.Validate()
	if result.OK() {
		t.Fatalf("expected dangling foreign key to be flagged")
	}
	for _, v := range result.Violations {
		if v.Category != schema.CategoryReference {
			t.Fatalf("expected a reference violation, got %s: %s", v.Category, v.Message)
		}
	}
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	s := schema.New("1.0")
	s.AddTable(&schema.Table{
		Name: "broken",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger}},
		},
		Indexes: []*schema.Index{
			{Name: "idx_missing", Columns: []string{"nope"}},
		},
		Constraints: []*schema.Constraint{
			{Kind: schema.ConstraintCheck, Columns: []string{"id"}, Expression: ""},
		},
	})

	result := s.Validate()
	if len(result.Violations) < 2 {
		t.Fatalf("expected validate to collect multiple violations, got %d: %+v", len(result.Violations), result.Violations)
	}
}
