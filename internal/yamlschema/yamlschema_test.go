package yamlschema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/yamlschema"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoadDirParsesSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users.yaml", `
version: "1"
tables:
  - name: users
    columns:
      - name: id
        type: INTEGER
        precision: 8
      - name: email
        type: VARCHAR
        length: 255
        nullable: true
    primary_key: [id]
    indexes:
      - name: idx_users_email
        columns: [email]
        unique: true
`)

	s, result, err := yamlschema.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir returned error: %v", err)
	}
	if !result.OK() {
		t.Fatalf("expected valid schema, got violations: %+v", result.Violations)
	}

	table := s.GetTable("users")
	if table == nil {
		t.Fatalf("expected users table")
	}
	if len(table.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(table.Columns))
	}
	if table.Columns[0].Type.Kind != schema.KindInteger || table.Columns[0].Type.Precision != 8 {
		t.Errorf("unexpected id column type: %+v", table.Columns[0].Type)
	}
	if len(table.Indexes) != 1 || !table.Indexes[0].Unique {
		t.Errorf("unexpected indexes: %+v", table.Indexes)
	}
}

func TestLoadDirMergesMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_users.yaml", `
tables:
  - name: users
    columns:
      - name: id
        type: INTEGER
`)
	writeFile(t, dir, "b_posts.yaml", `
tables:
  - name: posts
    columns:
      - name: id
        type: INTEGER
`)

	s, _, err := yamlschema.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir returned error: %v", err)
	}
	if !s.HasTable("users") || !s.HasTable("posts") {
		t.Fatalf("expected both tables present, got %v", s.TableNames())
	}
}

func TestLoadDirRejectsDuplicateTableAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `
tables:
  - name: users
    columns:
      - name: id
        type: INTEGER
`)
	writeFile(t, dir, "b.yaml", `
tables:
  - name: users
    columns:
      - name: id
        type: INTEGER
`)

	_, _, err := yamlschema.LoadDir(dir)
	if err == nil {
		t.Fatalf("expected duplicate-table error")
	}
	var dupErr *yamlschema.DuplicateNameError
	if de, ok := err.(*yamlschema.DuplicateNameError); ok {
		dupErr = de
	}
	if dupErr == nil {
		t.Fatalf("expected *DuplicateNameError, got %T: %v", err, err)
	}
	if dupErr.FirstFile != "a.yaml" || dupErr.SecondFile != "b.yaml" {
		t.Errorf("unexpected file attribution: %+v", dupErr)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, ".schema_snapshot.yaml")

	s := schema.New("1")
	s.AddTable(&schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger, Precision: 8, HasPrecision: true}},
			{Name: "email", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 255}, Nullable: true},
		},
		PrimaryKey: []string{"id"},
	})
	s.AddEnum(&schema.Enum{Name: "status", Values: []string{"active", "inactive"}})

	if err := yamlschema.WriteSnapshot(snapshotPath, s); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	loaded, err := yamlschema.ReadSnapshot(snapshotPath)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	if !loaded.HasTable("users") {
		t.Fatalf("expected users table in round-tripped snapshot")
	}
	if loaded.Enums["status"] == nil || len(loaded.Enums["status"].Values) != 2 {
		t.Fatalf("expected status enum to round-trip, got %+v", loaded.Enums["status"])
	}
}

func TestReadSnapshotReturnsErrorForMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := yamlschema.ReadSnapshot(filepath.Join(dir, "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error reading a missing snapshot file")
	}
}
