// Package yamlschema parses a project's schema directory — one or more YAML
// files describing tables, enums and views — into the schema.Schema model,
// and reads/writes the schema snapshot file (.strata/schema_snapshot.yaml
// in the CLI) used as "previous" schema during generate.
package yamlschema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stratadb/strata/internal/schema"
)

// docColumn is the on-disk shape of one column definition.
type docColumn struct {
	Name          string              `yaml:"name"`
	Type          string              `yaml:"type"`
	Precision     int                 `yaml:"precision"`
	Length        int                 `yaml:"length"`
	Scale         int                 `yaml:"scale"`
	WithTimezone  bool                `yaml:"with_timezone"`
	DialectKind   string              `yaml:"dialect_kind"`
	DialectParams schema.DialectParams `yaml:"dialect_params"`
	Nullable      bool                `yaml:"nullable"`
	Default       *string             `yaml:"default"`
	AutoIncrement bool                `yaml:"auto_increment"`
	RenamedFrom   string              `yaml:"renamed_from"`
}

type docIndex struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
}

type docConstraint struct {
	Name              string   `yaml:"name"`
	Kind              string   `yaml:"kind"`
	Columns           []string `yaml:"columns"`
	ReferencedTable   string   `yaml:"referenced_table"`
	ReferencedColumns []string `yaml:"referenced_columns"`
	OnDelete          string   `yaml:"on_delete"`
	Expression        string   `yaml:"expression"`
}

type docTable struct {
	Name        string          `yaml:"name"`
	Columns     []docColumn     `yaml:"columns"`
	Indexes     []docIndex      `yaml:"indexes"`
	Constraints []docConstraint `yaml:"constraints"`
	PrimaryKey  []string        `yaml:"primary_key"`
}

type docEnum struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

type docView struct {
	Name string `yaml:"name"`
	Body string `yaml:"body"`
}

type document struct {
	Version string     `yaml:"version"`
	Tables  []docTable `yaml:"tables"`
	Enums   []docEnum  `yaml:"enums"`
	Views   []docView  `yaml:"views"`
}

// DuplicateNameError reports a name reused across two schema files within
// the same namespace (tables, enums, or views).
type DuplicateNameError struct {
	Namespace string
	Name      string
	FirstFile string
	SecondFile string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s %q: defined in both %s and %s", e.Namespace, e.Name, e.FirstFile, e.SecondFile)
}

// LoadDir parses every *.yaml / *.yml file directly inside dir, merges them
// into one schema.Schema, and runs schema.Validate. Files are read in
// lexical filename order so error messages are stable across runs.
func LoadDir(dir string) (*schema.Schema, *schema.ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("yamlschema: reading schema directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	s := schema.New("")
	tableSource := make(map[string]string)
	enumSource := make(map[string]string)
	viewSource := make(map[string]string)

	for _, name := range files {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("yamlschema: reading %s: %w", path, err)
		}

		var doc document
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, nil, fmt.Errorf("yamlschema: parsing %s: %w", path, err)
		}

		if doc.Version != "" {
			s.Version = doc.Version
		}

		for _, t := range doc.Tables {
			if prev, ok := tableSource[t.Name]; ok {
				return nil, nil, &DuplicateNameError{Namespace: "table", Name: t.Name, FirstFile: prev, SecondFile: name}
			}
			tableSource[t.Name] = name
			s.AddTable(toSchemaTable(t))
		}
		for _, e := range doc.Enums {
			if prev, ok := enumSource[e.Name]; ok {
				return nil, nil, &DuplicateNameError{Namespace: "enum", Name: e.Name, FirstFile: prev, SecondFile: name}
			}
			enumSource[e.Name] = name
			s.AddEnum(&schema.Enum{Name: e.Name, Values: e.Values})
		}
		for _, v := range doc.Views {
			if prev, ok := viewSource[v.Name]; ok {
				return nil, nil, &DuplicateNameError{Namespace: "view", Name: v.Name, FirstFile: prev, SecondFile: name}
			}
			viewSource[v.Name] = name
			s.AddView(&schema.View{Name: v.Name, Body: v.Body})
		}
	}

	result := s.Validate()
	return s, result, nil
}

func toSchemaTable(t docTable) *schema.Table {
	table := &schema.Table{Name: t.Name, PrimaryKey: t.PrimaryKey}

	for _, c := range t.Columns {
		col := &schema.Column{
			Name:        c.Name,
			Nullable:    c.Nullable,
			AutoIncrement: c.AutoIncrement,
			RenamedFrom: c.RenamedFrom,
			Type:        toColumnType(c),
		}
		if c.Default != nil {
			col.HasDefault = true
			col.Default = *c.Default
		}
		table.Columns = append(table.Columns, col)
	}

	for _, idx := range t.Indexes {
		table.Indexes = append(table.Indexes, &schema.Index{Name: idx.Name, Columns: idx.Columns, Unique: idx.Unique})
	}

	for _, c := range t.Constraints {
		table.Constraints = append(table.Constraints, &schema.Constraint{
			Name:              c.Name,
			Kind:              schema.ConstraintKind(c.Kind),
			Columns:           c.Columns,
			ReferencedTable:   c.ReferencedTable,
			ReferencedColumns: c.ReferencedColumns,
			OnDelete:          c.OnDelete,
			Expression:        c.Expression,
		})
	}

	return table
}

func toColumnType(c docColumn) schema.ColumnType {
	kind := schema.ColumnTypeKind(strings.ToUpper(c.Type))
	ct := schema.ColumnType{Kind: kind}

	switch kind {
	case schema.KindInteger:
		ct.Precision = c.Precision
		ct.HasPrecision = c.Precision != 0
	case schema.KindVarchar:
		ct.Length = c.Length
	case schema.KindDecimal:
		ct.Precision = c.Precision
		ct.Scale = c.Scale
	case schema.KindTimestamp:
		ct.WithTimezone = c.WithTimezone
	case schema.KindDialectSpecific:
		ct.DialectKind = c.DialectKind
		ct.DialectParams = c.DialectParams
	default:
		if kind == "" {
			ct.Kind = schema.KindDialectSpecific
			ct.DialectKind = c.Type
		}
	}
	return ct
}

// WriteSnapshot serializes s to path as the schema snapshot document used by
// generate as "previous" schema, in the same document shape LoadDir parses.
func WriteSnapshot(path string, s *schema.Schema) error {
	doc := toDocument(s)
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("yamlschema: serializing snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("yamlschema: writing snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot parses the schema snapshot at path left by the previous
// generate run. A missing file is reported to the caller as os.ErrNotExist
// via errors.Is, since an absent snapshot means "no previous schema" rather
// than a parse failure.
func ReadSnapshot(path string) (*schema.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("yamlschema: parsing snapshot %s: %w", path, err)
	}

	s := schema.New(doc.Version)
	for _, t := range doc.Tables {
		s.AddTable(toSchemaTable(t))
	}
	for _, e := range doc.Enums {
		s.AddEnum(&schema.Enum{Name: e.Name, Values: e.Values})
	}
	for _, v := range doc.Views {
		s.AddView(&schema.View{Name: v.Name, Body: v.Body})
	}
	return s, nil
}

func toDocument(s *schema.Schema) document {
	doc := document{Version: s.Version}

	names := s.TableNames()
	sort.Strings(names)
	for _, name := range names {
		doc.Tables = append(doc.Tables, toDocTable(s.Tables[name]))
	}

	var enumNames []string
	for n := range s.Enums {
		enumNames = append(enumNames, n)
	}
	sort.Strings(enumNames)
	for _, name := range enumNames {
		e := s.Enums[name]
		doc.Enums = append(doc.Enums, docEnum{Name: e.Name, Values: e.Values})
	}

	var viewNames []string
	for n := range s.Views {
		viewNames = append(viewNames, n)
	}
	sort.Strings(viewNames)
	for _, name := range viewNames {
		v := s.Views[name]
		doc.Views = append(doc.Views, docView{Name: v.Name, Body: v.Body})
	}

	return doc
}

func toDocTable(t *schema.Table) docTable {
	dt := docTable{Name: t.Name, PrimaryKey: t.PrimaryKey}
	for _, c := range t.Columns {
		dc := docColumn{
			Name:          c.Name,
			Type:          string(c.Type.Kind),
			Precision:     c.Type.Precision,
			Length:        c.Type.Length,
			Scale:         c.Type.Scale,
			WithTimezone:  c.Type.WithTimezone,
			DialectKind:   c.Type.DialectKind,
			DialectParams: c.Type.DialectParams,
			Nullable:      c.Nullable,
			AutoIncrement: c.AutoIncrement,
			RenamedFrom:   c.RenamedFrom,
		}
		if c.HasDefault {
			def := c.Default
			dc.Default = &def
		}
		dt.Columns = append(dt.Columns, dc)
	}
	for _, idx := range t.Indexes {
		dt.Indexes = append(dt.Indexes, docIndex{Name: idx.Name, Columns: idx.Columns, Unique: idx.Unique})
	}
	for _, c := range t.Constraints {
		dt.Constraints = append(dt.Constraints, docConstraint{
			Name:              c.Name,
			Kind:              string(c.Kind),
			Columns:           c.Columns,
			ReferencedTable:   c.ReferencedTable,
			ReferencedColumns: c.ReferencedColumns,
			OnDelete:          c.OnDelete,
			Expression:        c.Expression,
		})
	}
	return dt
}
