package generator_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stratadb/strata/internal/generator"
	"github.com/stratadb/strata/internal/migration"
	"github.com/stratadb/strata/internal/schema"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
}

func usersSchema() *schema.Schema {
	s := schema.New("1")
	s.AddTable(&schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.KindInteger, Precision: 8, HasPrecision: true}, AutoIncrement: true},
			{Name: "email", Type: schema.ColumnType{Kind: schema.KindVarchar, Length: 255}},
		},
		PrimaryKey: []string{"id"},
	})
	return s
}

func TestGenerateWritesMigrationDirectoryFromNilOldSchema(t *testing.T) {
	dir := t.TempDir()

	result, err := generator.Generate(generator.Options{
		MigrationsDir: dir,
		Description:   "create users table",
		Dialect:       schema.Postgres,
		NewSchema:     usersSchema(),
		Now:           fixedNow,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.NoChanges {
		t.Fatalf("expected changes to be detected")
	}

	wantName := "20250304093000_create_users_table"
	if filepath.Base(result.Dir) != wantName {
		t.Errorf("unexpected migration directory name: %s, want %s", filepath.Base(result.Dir), wantName)
	}

	up, err := os.ReadFile(filepath.Join(result.Dir, "up.sql"))
	if err != nil {
		t.Fatalf("reading up.sql: %v", err)
	}
	if !strings.Contains(string(up), `CREATE TABLE "users"`) {
		t.Errorf("expected CREATE TABLE in up.sql, got: %s", up)
	}

	down, err := os.ReadFile(filepath.Join(result.Dir, "down.sql"))
	if err != nil {
		t.Fatalf("reading down.sql: %v", err)
	}
	if !strings.Contains(string(down), `DROP TABLE "users"`) {
		t.Errorf("expected DROP TABLE in down.sql, got: %s", down)
	}

	meta, err := os.ReadFile(filepath.Join(result.Dir, ".meta.yaml"))
	if err != nil {
		t.Fatalf("reading .meta.yaml: %v", err)
	}
	if !strings.Contains(string(meta), "create users table") {
		t.Errorf("expected description in .meta.yaml, got: %s", meta)
	}
}

func TestGenerateReportsNoChangesWhenSchemasIdentical(t *testing.T) {
	dir := t.TempDir()
	s := usersSchema()

	result, err := generator.Generate(generator.Options{
		MigrationsDir: dir,
		Description:   "noop",
		Dialect:       schema.Postgres,
		OldSchema:     s,
		NewSchema:     s,
		Now:           fixedNow,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !result.NoChanges {
		t.Fatalf("expected NoChanges for identical schemas")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading migrations dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no migration directory written, found %d entries", len(entries))
	}
}

func TestGeneratedMigrationIsDiscoverable(t *testing.T) {
	dir := t.TempDir()

	result, err := generator.Generate(generator.Options{
		MigrationsDir: dir,
		Description:   "create users table",
		Dialect:       schema.SQLite,
		NewSchema:     usersSchema(),
		Now:           fixedNow,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	files, err := migration.Discover(os.DirFS(dir))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 discovered migration, got %d", len(files))
	}
	if files[0].Version != result.Version {
		t.Errorf("expected discovered version %s, got %s", result.Version, files[0].Version)
	}
	if files[0].Checksum == "" {
		t.Errorf("expected non-empty checksum recorded in .meta.yaml")
	}
}

func TestSlugifyFallsBackToMigrationWhenDescriptionEmpty(t *testing.T) {
	dir := t.TempDir()

	result, err := generator.Generate(generator.Options{
		MigrationsDir: dir,
		Description:   "",
		Dialect:       schema.Postgres,
		NewSchema:     usersSchema(),
		Now:           fixedNow,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasSuffix(result.Dir, "_migration") {
		t.Errorf("expected fallback slug 'migration', got dir %s", result.Dir)
	}
}
