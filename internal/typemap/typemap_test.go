package typemap_test

import (
	"testing"

	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/typemap"
)

func TestQuoteIdentifierPostgresAndSQLite(t *testing.T) {
	for _, d := range []schema.Dialect{schema.Postgres, schema.SQLite} {
		if got := typemap.QuoteIdentifier(d, `weird"name`); got != `"weird""name"` {
			t.Fatalf("%s: unexpected quoting: %q", d, got)
		}
	}
}

func TestQuoteIdentifierMySQL(t *testing.T) {
	if got := typemap.QuoteIdentifier(schema.MySQL, "weird`name"); got != "`weird``name`" {
		t.Fatalf("unexpected quoting: %q", got)
	}
}

func TestToNativeIntegerWidths(t *testing.T) {
	cases := []struct {
		precision int
		postgres  string
		mysql     string
	}{
		{2, "SMALLINT", "SMALLINT"},
		{4, "BIGINT", "BIGINT"},
		{8, "BIGINT", "BIGINT"},
	}
	for _, c := range cases {
		ct := schema.ColumnType{Kind: schema.KindInteger, Precision: c.precision, HasPrecision: true}
		got, err := typemap.ToNative(schema.Postgres, ct)
		if err != nil || got != c.postgres {
			t.Fatalf("postgres precision %d: got %q, err %v", c.precision, got, err)
		}
		got, err = typemap.ToNative(schema.MySQL, ct)
		if err != nil || got != c.mysql {
			t.Fatalf("mysql precision %d: got %q, err %v", c.precision, got, err)
		}
	}

	sqliteInt, err := typemap.ToNative(schema.SQLite, schema.ColumnType{Kind: schema.KindInteger})
	if err != nil || sqliteInt != "INTEGER" {
		t.Fatalf("sqlite integer: got %q, err %v", sqliteInt, err)
	}
}

func TestToNativeVarchar(t *testing.T) {
	ct := schema.ColumnType{Kind: schema.KindVarchar, Length: 255}
	got, err := typemap.ToNative(schema.Postgres, ct)
	if err != nil || got != "VARCHAR(255)" {
		t.Fatalf("got %q, err %v", got, err)
	}
}

func TestToNativeTimestampWithTimezone(t *testing.T) {
	ct := schema.ColumnType{Kind: schema.KindTimestamp, WithTimezone: true}

	pg, _ := typemap.ToNative(schema.Postgres, ct)
	if pg != "TIMESTAMP WITH TIME ZONE" {
		t.Fatalf("postgres: got %q", pg)
	}

	my, _ := typemap.ToNative(schema.MySQL, ct)
	if my != "DATETIME" {
		t.Fatalf("mysql: got %q", my)
	}

	lite, _ := typemap.ToNative(schema.SQLite, ct)
	if lite != "TEXT" {
		t.Fatalf("sqlite: got %q", lite)
	}
}

func TestToNativeDialectSpecificWithValues(t *testing.T) {
	ct := schema.ColumnType{
		Kind:        schema.KindDialectSpecific,
		DialectKind: "ENUM",
		DialectParams: schema.DialectParams{
			Values: []string{"a", "b's"}, HasValues: true,
		},
	}
	got, err := typemap.ToNative(schema.MySQL, ct)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `ENUM('a', 'b''s')`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestToNativeDialectSpecificArrayPostgresOnly(t *testing.T) {
	ct := schema.ColumnType{
		Kind:        schema.KindDialectSpecific,
		DialectKind: "INTEGER",
		DialectParams: schema.DialectParams{
			Array: true, HasArray: true,
		},
	}
	pg, _ := typemap.ToNative(schema.Postgres, ct)
	if pg != "INTEGER[]" {
		t.Fatalf("postgres: got %q", pg)
	}
	my, _ := typemap.ToNative(schema.MySQL, ct)
	if my != "INTEGER" {
		t.Fatalf("mysql should ignore array flag: got %q", my)
	}
}

func TestFromNativePortableRoundTrip(t *testing.T) {
	ct := typemap.FromNative(schema.Postgres, "VARCHAR(100)")
	if ct.Kind != schema.KindVarchar || ct.Length != 100 {
		t.Fatalf("unexpected: %+v", ct)
	}

	back, err := typemap.ToNative(schema.Postgres, ct)
	if err != nil || back != "VARCHAR(100)" {
		t.Fatalf("round trip failed: %q, err %v", back, err)
	}
}

func TestFromNativeMySQLEnum(t *testing.T) {
	ct := typemap.FromNative(schema.MySQL, "enum('small','medium','large')")
	if ct.Kind != schema.KindDialectSpecific || ct.DialectKind != "ENUM" {
		t.Fatalf("unexpected: %+v", ct)
	}
	want := []string{"small", "medium", "large"}
	if len(ct.DialectParams.Values) != len(want) {
		t.Fatalf("unexpected values: %v", ct.DialectParams.Values)
	}
	for i, v := range want {
		if ct.DialectParams.Values[i] != v {
			t.Fatalf("value %d: got %q, want %q", i, ct.DialectParams.Values[i], v)
		}
	}
}

func TestFromNativeMySQLUnsigned(t *testing.T) {
	ct := typemap.FromNative(schema.MySQL, "int unsigned")
	if ct.Kind != schema.KindDialectSpecific {
		t.Fatalf("unexpected: %+v", ct)
	}
	if unsigned, _ := ct.DialectParams.Raw["unsigned"].(bool); !unsigned {
		t.Fatalf("expected unsigned flag, got %+v", ct.DialectParams.Raw)
	}
}

func TestFromNativeUnknownFallsBackToDialectSpecific(t *testing.T) {
	ct := typemap.FromNative(schema.Postgres, "tsvector")
	if ct.Kind != schema.KindDialectSpecific || ct.DialectKind != "tsvector" {
		t.Fatalf("unexpected: %+v", ct)
	}
}
