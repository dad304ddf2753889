package typemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stratadb/strata/internal/schema"
)

// ToNative renders a portable ColumnType as dialect-native SQL type text.
// Forward rendering is total for every portable variant; DialectSpecific
// types are emitted verbatim with the parameter-substitution rules the
// design notes describe.
func ToNative(d schema.Dialect, ct schema.ColumnType) (string, error) {
	if ct.Kind == schema.KindDialectSpecific {
		return renderDialectSpecific(d, ct)
	}

	switch d {
	case schema.Postgres:
		return toNativePostgres(ct)
	case schema.MySQL:
		return toNativeMySQL(ct)
	case schema.SQLite:
		return toNativeSQLite(ct)
	default:
		return "", fmt.Errorf("typemap: unknown dialect %q", d)
	}
}

func toNativePostgres(ct schema.ColumnType) (string, error) {
	switch ct.Kind {
	case schema.KindInteger:
		if ct.HasPrecision && ct.Precision <= 2 {
			return "SMALLINT", nil
		}
		return "BIGINT", nil
	case schema.KindVarchar:
		return fmt.Sprintf("VARCHAR(%d)", ct.Length), nil
	case schema.KindText:
		return "TEXT", nil
	case schema.KindBoolean:
		return "BOOLEAN", nil
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", ct.Precision, ct.Scale), nil
	case schema.KindFloat:
		return "DOUBLE PRECISION", nil
	case schema.KindTimestamp:
		if ct.WithTimezone {
			return "TIMESTAMP WITH TIME ZONE", nil
		}
		return "TIMESTAMP", nil
	case schema.KindDate:
		return "DATE", nil
	case schema.KindTime:
		return "TIME", nil
	case schema.KindJSON:
		return "JSONB", nil
	case schema.KindBlob:
		return "BYTEA", nil
	default:
		return "", fmt.Errorf("typemap: unsupported portable kind %q for postgres", ct.Kind)
	}
}

func toNativeMySQL(ct schema.ColumnType) (string, error) {
	switch ct.Kind {
	case schema.KindInteger:
		if ct.HasPrecision && ct.Precision <= 2 {
			return "SMALLINT", nil
		}
		return "BIGINT", nil
	case schema.KindVarchar:
		return fmt.Sprintf("VARCHAR(%d)", ct.Length), nil
	case schema.KindText:
		return "TEXT", nil
	case schema.KindBoolean:
		return "TINYINT(1)", nil
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", ct.Precision, ct.Scale), nil
	case schema.KindFloat:
		return "DOUBLE", nil
	case schema.KindTimestamp:
		// MySQL's DATETIME carries no timezone; WITH_TIME_ZONE is advisory only.
		return "DATETIME", nil
	case schema.KindDate:
		return "DATE", nil
	case schema.KindTime:
		return "TIME", nil
	case schema.KindJSON:
		return "JSON", nil
	case schema.KindBlob:
		return "BLOB", nil
	default:
		return "", fmt.Errorf("typemap: unsupported portable kind %q for mysql", ct.Kind)
	}
}

// toNativeSQLite widens INTEGER, FLOAT, TIMESTAMP and JSON to SQLite's
// INTEGER, REAL and TEXT storage classes; DECIMAL, DATE and TIME keep their
// declared names, which SQLite's affinity rules accept as-is. A comment
// is not inlined here; callers that render DDL text decide whether an
// advisory comment is warranted (see sqlgen).
func toNativeSQLite(ct schema.ColumnType) (string, error) {
	switch ct.Kind {
	case schema.KindInteger:
		return "INTEGER", nil
	case schema.KindVarchar:
		return fmt.Sprintf("VARCHAR(%d)", ct.Length), nil
	case schema.KindText:
		return "TEXT", nil
	case schema.KindBoolean:
		return "BOOLEAN", nil
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", ct.Precision, ct.Scale), nil
	case schema.KindFloat:
		return "REAL", nil
	case schema.KindTimestamp:
		// SQLite has no native timestamp type; TEXT (ISO-8601) is the advisory choice.
		return "TEXT", nil
	case schema.KindDate:
		return "DATE", nil
	case schema.KindTime:
		return "TIME", nil
	case schema.KindJSON:
		return "TEXT", nil
	case schema.KindBlob:
		return "BLOB", nil
	default:
		return "", fmt.Errorf("typemap: unsupported portable kind %q for sqlite", ct.Kind)
	}
}

// renderDialectSpecific emits a DialectSpecific type verbatim, substituting
// its parameter bag per the design notes:
//   - values=[...]  -> parenthesized, single-quoted, comma-separated list
//   - length=n      -> (n)
//   - array=true    -> [] suffix (PostgreSQL only)
func renderDialectSpecific(d schema.Dialect, ct schema.ColumnType) (string, error) {
	var b strings.Builder
	b.WriteString(ct.DialectKind)

	p := ct.DialectParams
	switch {
	case p.HasValues:
		quoted := make([]string, len(p.Values))
		for i, v := range p.Values {
			quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		b.WriteString("(")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(")")
	case p.HasLength:
		b.WriteString("(")
		b.WriteString(strconv.Itoa(p.Length))
		b.WriteString(")")
	}

	if p.HasArray && p.Array && d == schema.Postgres {
		b.WriteString("[]")
	}

	return b.String(), nil
}

// FromNative parses a dialect-native type string back into a portable
// ColumnType, used by the introspector. Unrecognized strings fall back to a
// DialectSpecific{kind: raw_string} so round-trips never lose information.
func FromNative(d schema.Dialect, native string) schema.ColumnType {
	upper := strings.ToUpper(strings.TrimSpace(native))

	if ct, ok := parsePortable(upper); ok {
		return ct
	}

	if d == schema.MySQL {
		if ct, ok := parseMySQLSpecific(native); ok {
			return ct
		}
	}

	return schema.ColumnType{Kind: schema.KindDialectSpecific, DialectKind: native}
}

func parsePortable(upper string) (schema.ColumnType, bool) {
	switch {
	case upper == "TEXT" || upper == "CLOB":
		return schema.ColumnType{Kind: schema.KindText}, true
	case upper == "BOOLEAN" || upper == "BOOL" || upper == "TINYINT(1)":
		return schema.ColumnType{Kind: schema.KindBoolean}, true
	case upper == "BIGINT" || upper == "INT8":
		return schema.ColumnType{Kind: schema.KindInteger, Precision: 8, HasPrecision: true}, true
	case upper == "SMALLINT" || upper == "INT2":
		return schema.ColumnType{Kind: schema.KindInteger, Precision: 2, HasPrecision: true}, true
	case upper == "INTEGER" || upper == "INT" || upper == "INT4":
		return schema.ColumnType{Kind: schema.KindInteger, Precision: 4, HasPrecision: true}, true
	case upper == "DATE":
		return schema.ColumnType{Kind: schema.KindDate}, true
	case upper == "TIME":
		return schema.ColumnType{Kind: schema.KindTime}, true
	case upper == "TIMESTAMP" || upper == "DATETIME":
		return schema.ColumnType{Kind: schema.KindTimestamp}, true
	case upper == "TIMESTAMP WITH TIME ZONE" || upper == "TIMESTAMPTZ":
		return schema.ColumnType{Kind: schema.KindTimestamp, WithTimezone: true}, true
	case upper == "JSON" || upper == "JSONB":
		return schema.ColumnType{Kind: schema.KindJSON}, true
	case upper == "BLOB" || upper == "BYTEA":
		return schema.ColumnType{Kind: schema.KindBlob}, true
	case upper == "DOUBLE" || upper == "DOUBLE PRECISION" || upper == "REAL" || upper == "FLOAT":
		return schema.ColumnType{Kind: schema.KindFloat}, true
	}

	if strings.HasPrefix(upper, "VARCHAR(") {
		if n, ok := parseSingleIntParam(upper, "VARCHAR("); ok {
			return schema.ColumnType{Kind: schema.KindVarchar, Length: n}, true
		}
	}
	if strings.HasPrefix(upper, "DECIMAL(") || strings.HasPrefix(upper, "NUMERIC(") {
		if p, s, ok := parseTwoIntParams(upper); ok {
			return schema.ColumnType{Kind: schema.KindDecimal, Precision: p, Scale: s}, true
		}
	}

	return schema.ColumnType{}, false
}

// parseMySQLSpecific recognizes enum(...), set(...), and the unsigned
// modifier in a MySQL COLUMN_TYPE string, keeping the original casing for
// the enum/set values since those are user data, not SQL keywords.
func parseMySQLSpecific(native string) (schema.ColumnType, bool) {
	trimmed := strings.TrimSpace(native)
	lower := strings.ToLower(trimmed)

	unsigned := false
	if strings.HasSuffix(lower, " unsigned") {
		unsigned = true
		trimmed = strings.TrimSpace(trimmed[:len(trimmed)-len(" unsigned")])
		lower = strings.ToLower(trimmed)
	}

	switch {
	case strings.HasPrefix(lower, "enum(") && strings.HasSuffix(lower, ")"):
		values := splitQuotedList(trimmed[len("enum("):strings.LastIndexByte(trimmed, ')')])
		return schema.ColumnType{
			Kind:        schema.KindDialectSpecific,
			DialectKind: "ENUM",
			DialectParams: schema.DialectParams{
				Values: values, HasValues: true,
				Raw: unsignedRaw(unsigned),
			},
		}, true
	case strings.HasPrefix(lower, "set(") && strings.HasSuffix(lower, ")"):
		values := splitQuotedList(trimmed[len("set("):strings.LastIndexByte(trimmed, ')')])
		return schema.ColumnType{
			Kind:        schema.KindDialectSpecific,
			DialectKind: "SET",
			DialectParams: schema.DialectParams{
				Values: values, HasValues: true,
				Raw: unsignedRaw(unsigned),
			},
		}, true
	case unsigned:
		return schema.ColumnType{
			Kind:        schema.KindDialectSpecific,
			DialectKind: strings.ToUpper(trimmed),
			DialectParams: schema.DialectParams{
				Raw: unsignedRaw(true),
			},
		}, true
	}
	return schema.ColumnType{}, false
}

func unsignedRaw(unsigned bool) map[string]any {
	if !unsigned {
		return nil
	}
	return map[string]any{"unsigned": true}
}

// splitQuotedList parses MySQL's `'a','b','c'` value-list syntax, where a
// literal quote inside a value is doubled ('').
func splitQuotedList(body string) []string {
	var values []string
	var cur strings.Builder
	inQuote := false
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case !inQuote && c == '\'':
			inQuote = true
		case inQuote && c == '\'':
			if i+1 < len(runes) && runes[i+1] == '\'' {
				cur.WriteRune('\'')
				i++
				continue
			}
			inQuote = false
		case inQuote:
			cur.WriteRune(c)
		case c == ',':
			values = append(values, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 || len(values) > 0 {
		values = append(values, cur.String())
	}
	return values
}

func parseSingleIntParam(upper, prefix string) (int, bool) {
	rest := upper[len(prefix):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseTwoIntParams(upper string) (int, int, bool) {
	start := strings.IndexByte(upper, '(')
	end := strings.IndexByte(upper, ')')
	if start < 0 || end < 0 || end < start {
		return 0, 0, false
	}
	parts := strings.Split(upper[start+1:end], ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	p, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	s, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return p, s, true
}
