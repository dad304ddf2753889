package schema

import "fmt"

// ViolationCategory classifies a single schema validation failure.
type ViolationCategory string

const (
	// CategorySyntax covers structurally invalid schemas: duplicate names
	// within a namespace, a table defining both a PrimaryKey field and a
	// PRIMARY_KEY constraint, and the like.
	CategorySyntax ViolationCategory = "syntax"
	// CategoryReference covers dangling references: an index, constraint,
	// or primary key naming a column that doesn't exist; a foreign key
	// whose target table or columns don't resolve.
	CategoryReference ViolationCategory = "reference"
	// CategoryConstraint covers constraints that are internally inconsistent,
	// e.g. a CHECK with no expression, or a FOREIGN_KEY with mismatched
	// column/referenced-column counts.
	CategoryConstraint ViolationCategory = "constraint"
)

// Location pinpoints where a violation occurred, to the extent known.
type Location struct {
	Table  string
	Column string
	Line   int // 0 if unknown
}

// Violation is a single validation failure.
type Violation struct {
	Category   ViolationCategory
	Message    string
	Location   Location
	Suggestion string // empty if none
}

// ValidationResult collects every violation found; it never short-circuits
// on the first failure.
type ValidationResult struct {
	Violations []Violation
}

// OK reports whether the schema has no violations.
func (r *ValidationResult) OK() bool {
	return len(r.Violations) == 0
}

func (r *ValidationResult) add(category ViolationCategory, loc Location, suggestion, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Category:   category,
		Message:    fmt.Sprintf(format, args...),
		Location:   loc,
		Suggestion: suggestion,
	})
}

// Validate walks the whole schema and reports every violation it can find.
// It never stops at the first error: callers that want fail-fast behavior
// should check len(result.Violations) > 0 themselves.
func (s *Schema) Validate() *ValidationResult {
	result := &ValidationResult{}

	for name, table := range s.Tables {
		s.validateTable(result, name, table)
	}

	return result
}

func (s *Schema) validateTable(result *ValidationResult, tableName string, t *Table) {
	loc := Location{Table: tableName}

	seenColumns := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if seenColumns[col.Name] {
			result.add(CategorySyntax, Location{Table: tableName, Column: col.Name}, "",
				"table %q declares column %q more than once", tableName, col.Name)
			continue
		}
		seenColumns[col.Name] = true
	}

	hasPKField := len(t.PrimaryKey) > 0
	hasPKConstraint := false
	for _, c := range t.Constraints {
		if c.Kind == ConstraintPrimaryKey {
			hasPKConstraint = true
			break
		}
	}
	if hasPKField && hasPKConstraint {
		result.add(CategorySyntax, loc,
			"declare the primary key once, either as the table's primary_key or as a PRIMARY_KEY constraint",
			"table %q declares a primary key both as a dedicated field and as a PRIMARY_KEY constraint", tableName)
	}

	for _, col := range t.PrimaryKey {
		if !seenColumns[col] {
			result.add(CategoryReference, Location{Table: tableName, Column: col}, "",
				"table %q primary key references unknown column %q", tableName, col)
		}
	}

	for _, idx := range t.Indexes {
		for _, col := range idx.Columns {
			if !seenColumns[col] {
				result.add(CategoryReference, Location{Table: tableName, Column: col}, "",
					"index %q on table %q references unknown column %q", idx.Name, tableName, col)
			}
		}
	}

	for _, c := range t.Constraints {
		s.validateConstraint(result, tableName, seenColumns, c)
	}
}

func (s *Schema) validateConstraint(result *ValidationResult, tableName string, columns map[string]bool, c *Constraint) {
	for _, col := range c.Columns {
		if !columns[col] {
			result.add(CategoryReference, Location{Table: tableName, Column: col}, "",
				"constraint %q on table %q references unknown column %q", c.Name, tableName, col)
		}
	}

	switch c.Kind {
	case ConstraintForeignKey:
		target := s.GetTable(c.ReferencedTable)
		if target == nil {
			result.add(CategoryReference, Location{Table: tableName}, "",
				"foreign key %q on table %q references unknown table %q", c.Name, tableName, c.ReferencedTable)
			return
		}
		if len(c.Columns) != len(c.ReferencedColumns) {
			result.add(CategoryConstraint, Location{Table: tableName}, "",
				"foreign key %q on table %q has %d local column(s) but %d referenced column(s)",
				c.Name, tableName, len(c.Columns), len(c.ReferencedColumns))
		}
		for _, col := range c.ReferencedColumns {
			if target.GetColumn(col) == nil {
				result.add(CategoryReference, Location{Table: c.ReferencedTable, Column: col}, "",
					"foreign key %q on table %q references unknown column %q on table %q",
					c.Name, tableName, col, c.ReferencedTable)
			}
		}
	case ConstraintCheck:
		if c.Expression == "" {
			result.add(CategoryConstraint, Location{Table: tableName}, "provide a non-empty check expression",
				"check constraint %q on table %q has no expression", c.Name, tableName)
		}
	case ConstraintUnique, ConstraintPrimaryKey:
		if len(c.Columns) == 0 {
			result.add(CategoryConstraint, Location{Table: tableName}, "",
				"%s constraint %q on table %q names no columns", c.Kind, c.Name, tableName)
		}
	}
}
