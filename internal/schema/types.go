// Package schema defines the in-memory representation of a Strata database
// schema: tables, columns, indexes, constraints, enums and views parsed from
// a project's schema directory. It owns the invariants that every other
// component (differ, generator, checksum) relies on.
package schema

// Dialect identifies the target database engine a schema or generated
// migration is rendered for.
type Dialect string

const (
	Postgres Dialect = "postgresql"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Schema is the full declarative description of a database: a named version
// plus independent namespaces of tables, enums and views. Identifiers are
// unique within a namespace but the three namespaces do not interact.
type Schema struct {
	Version string
	Tables  map[string]*Table
	Enums   map[string]*Enum
	Views   map[string]*View
}

// New creates an empty schema with the given version string.
func New(version string) *Schema {
	return &Schema{
		Version: version,
		Tables:  make(map[string]*Table),
		Enums:   make(map[string]*Enum),
		Views:   make(map[string]*View),
	}
}

// AddTable registers a table under its name, overwriting any previous entry.
// Callers that need duplicate detection should check HasTable first.
func (s *Schema) AddTable(t *Table) {
	s.Tables[t.Name] = t
}

// AddEnum registers an enum type under its name.
func (s *Schema) AddEnum(e *Enum) {
	s.Enums[e.Name] = e
}

// AddView registers a view under its name.
func (s *Schema) AddView(v *View) {
	s.Views[v.Name] = v
}

// HasTable reports whether a table with the given name is present.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.Tables[name]
	return ok
}

// GetTable returns the table with the given name, or nil if absent.
func (s *Schema) GetTable(name string) *Table {
	return s.Tables[name]
}

// TableNames returns all table names, unordered; callers that need a
// deterministic order should sort the result themselves.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	return names
}

// Table is an ordered sequence of columns, indexes and constraints making up
// one database table, plus an optional composite primary key.
//
// A table's primary key is expressed in exactly one of two ways: the
// PrimaryKey field, or a PRIMARY_KEY constraint in Constraints — never both.
// Validate reports a violation when both are present.
type Table struct {
	Name        string
	Columns     []*Column
	Indexes     []*Index
	Constraints []*Constraint
	PrimaryKey  []string
}

// GetColumn returns the column with the given name, or nil if absent.
func (t *Table) GetColumn(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ColumnNames returns the table's column names in declared order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column is a single table column: its name, type, nullability, optional
// default expression, and diff-only renaming hint.
type Column struct {
	Name string
	Type ColumnType

	Nullable      bool
	Default       string // opaque default expression, empty if unset
	HasDefault    bool
	AutoIncrement bool

	// RenamedFrom names the column in the "old" schema this column replaces.
	// It is only consulted while diffing two schemas (schemadiff); it plays
	// no role in the schema's own identity, equality, or checksum.
	RenamedFrom string
}

// ColumnTypeKind enumerates the portable column-type variants plus the
// dialect-specific escape hatch.
type ColumnTypeKind string

const (
	KindInteger         ColumnTypeKind = "INTEGER"
	KindVarchar         ColumnTypeKind = "VARCHAR"
	KindText            ColumnTypeKind = "TEXT"
	KindBoolean         ColumnTypeKind = "BOOLEAN"
	KindDecimal         ColumnTypeKind = "DECIMAL"
	KindFloat           ColumnTypeKind = "FLOAT"
	KindTimestamp       ColumnTypeKind = "TIMESTAMP"
	KindDate            ColumnTypeKind = "DATE"
	KindTime            ColumnTypeKind = "TIME"
	KindJSON            ColumnTypeKind = "JSON"
	KindBlob            ColumnTypeKind = "BLOB"
	KindDialectSpecific ColumnTypeKind = "DIALECT_SPECIFIC"
)

// ColumnType is a closed sum of the portable column types plus a
// dialect-specific escape hatch. Only the fields relevant to Kind are
// meaningful; the zero value of the others is ignored.
//
// DialectSpecific carries a raw, dialect-native type verbatim (e.g. SERIAL,
// ENUM(values=[...]), VARBIT(length=16)). Params is a small tagged union
// rather than a free-form map everywhere except at YAML (de)serialization
// boundaries, where DialectParams.UnmarshalYAML/MarshalYAML translate to and
// from the open map the on-disk format uses.
type ColumnType struct {
	Kind ColumnTypeKind

	// Portable parameters.
	Precision     int  // INTEGER, DECIMAL
	HasPrecision  bool
	Length        int  // VARCHAR
	Scale         int  // DECIMAL
	WithTimezone  bool // TIMESTAMP

	// Dialect-specific escape hatch.
	DialectKind   string
	DialectParams DialectParams
}

// Equal reports whether two column types describe the same portable or
// dialect-specific type. Used by the checksum and differ to detect type
// changes without relying on struct equality (which would be brittle to
// zero-valued unused fields).
func (c ColumnType) Equal(o ColumnType) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindInteger:
		return c.Precision == o.Precision && c.HasPrecision == o.HasPrecision
	case KindVarchar:
		return c.Length == o.Length
	case KindDecimal:
		return c.Precision == o.Precision && c.Scale == o.Scale
	case KindTimestamp:
		return c.WithTimezone == o.WithTimezone
	case KindDialectSpecific:
		return c.DialectKind == o.DialectKind && c.DialectParams.Equal(o.DialectParams)
	default:
		return true
	}
}

// Index is a named, ordered list of columns, optionally unique.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// ConstraintKind enumerates the supported table-level constraint kinds.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY_KEY"
	ConstraintForeignKey ConstraintKind = "FOREIGN_KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintCheck      ConstraintKind = "CHECK"
)

// Constraint is a table-level constraint: primary key, foreign key, unique,
// or check. Only the fields relevant to Kind are meaningful.
type Constraint struct {
	Name    string // advisory; constraints compare structurally, not by name
	Kind    ConstraintKind
	Columns []string

	// FOREIGN_KEY only.
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string

	// CHECK only.
	Expression string
}

// Enum is a named, ordered list of values. Order is semantically
// significant: it determines PostgreSQL's native ordering and whether a
// later schema's value list is an append-only extension of this one.
type Enum struct {
	Name   string
	Values []string
}

// View is a named, opaque SQL body. Views are compared by name only; any
// difference in body text is treated as a full drop+create.
type View struct {
	Name string
	Body string
}
