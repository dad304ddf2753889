// Package checksum computes a deterministic, reordering-invariant hash of a
// schema, used to detect drift between a migration's recorded checksum and
// its current on-disk definition.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/stratadb/strata/internal/schema"
)

// Compute returns the lowercase hex SHA-256 of s's canonical form. Equal
// under any reordering of tables, indexes, or constraints; unequal under
// any column reorder, rename, or type change.
func Compute(s *schema.Schema) string {
	sum := sha256.Sum256([]byte(Canonicalize(s)))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether a and b have the same canonical form, without the
// caller needing to compute or store either checksum itself.
func Equal(a, b *schema.Schema) bool {
	return Compute(a) == Compute(b)
}

// Canonicalize renders s as a fixed-key-order, sorted-namespace text form:
// tables sorted by name; within each table, indexes sorted by name and
// constraints sorted by a kind-then-columns key, columns left in their
// declared order (order is semantically significant for columns, unlike
// the other namespaces).
func Canonicalize(s *schema.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "version=%s\n", s.Version)

	tableNames := s.TableNames()
	sort.Strings(tableNames)
	for _, name := range tableNames {
		canonicalizeTable(&b, s.Tables[name])
	}

	enumNames := make([]string, 0, len(s.Enums))
	for n := range s.Enums {
		enumNames = append(enumNames, n)
	}
	sort.Strings(enumNames)
	for _, name := range enumNames {
		e := s.Enums[name]
		fmt.Fprintf(&b, "enum %s values=%v\n", e.Name, e.Values)
	}

	viewNames := make([]string, 0, len(s.Views))
	for n := range s.Views {
		viewNames = append(viewNames, n)
	}
	sort.Strings(viewNames)
	for _, name := range viewNames {
		v := s.Views[name]
		fmt.Fprintf(&b, "view %s body=%s\n", v.Name, v.Body)
	}

	return b.String()
}

func canonicalizeTable(b *strings.Builder, t *schema.Table) {
	fmt.Fprintf(b, "table %s\n", t.Name)

	for _, c := range t.Columns {
		fmt.Fprintf(b, "  column %s type=%s nullable=%t default=%q has_default=%t auto_increment=%t\n",
			c.Name, canonicalizeType(c.Type), c.Nullable, c.Default, c.HasDefault, c.AutoIncrement)
	}

	if len(t.PrimaryKey) > 0 {
		pk := append([]string(nil), t.PrimaryKey...)
		fmt.Fprintf(b, "  primary_key %v\n", pk)
	}

	indexes := append([]*schema.Index(nil), t.Indexes...)
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })
	for _, idx := range indexes {
		fmt.Fprintf(b, "  index %s unique=%t columns=%v\n", idx.Name, idx.Unique, idx.Columns)
	}

	constraints := append([]*schema.Constraint(nil), t.Constraints...)
	sort.Slice(constraints, func(i, j int) bool { return constraintSortKey(constraints[i]) < constraintSortKey(constraints[j]) })
	for _, c := range constraints {
		cols := append([]string(nil), c.Columns...)
		sort.Strings(cols)
		fmt.Fprintf(b, "  constraint kind=%s columns=%v ref_table=%s ref_columns=%v on_delete=%s expr=%q\n",
			c.Kind, cols, c.ReferencedTable, sortedCopy(c.ReferencedColumns), c.OnDelete, c.Expression)
	}
}

func constraintSortKey(c *schema.Constraint) string {
	cols := sortedCopy(c.Columns)
	return fmt.Sprintf("%s|%v", c.Kind, cols)
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func canonicalizeType(ct schema.ColumnType) string {
	switch ct.Kind {
	case schema.KindInteger:
		return fmt.Sprintf("INTEGER(precision=%d,has_precision=%t)", ct.Precision, ct.HasPrecision)
	case schema.KindVarchar:
		return fmt.Sprintf("VARCHAR(length=%d)", ct.Length)
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(precision=%d,scale=%d)", ct.Precision, ct.Scale)
	case schema.KindTimestamp:
		return fmt.Sprintf("TIMESTAMP(with_timezone=%t)", ct.WithTimezone)
	case schema.KindDialectSpecific:
		return fmt.Sprintf("DIALECT_SPECIFIC(%s,%s)", ct.DialectKind, canonicalizeParams(ct.DialectParams))
	default:
		return string(ct.Kind)
	}
}

func canonicalizeParams(p schema.DialectParams) string {
	var b strings.Builder
	if p.HasValues {
		fmt.Fprintf(&b, "values=%v;", p.Values)
	}
	if p.HasLength {
		fmt.Fprintf(&b, "length=%d;", p.Length)
	}
	if p.HasArray {
		fmt.Fprintf(&b, "array=%t;", p.Array)
	}
	if len(p.Raw) > 0 {
		keys := make([]string, 0, len(p.Raw))
		for k := range p.Raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s=%v;", k, p.Raw[k])
		}
	}
	return b.String()
}
