package sqlsplit_test

import (
	"testing"

	"github.com/stratadb/strata/internal/sqlsplit"
)

func TestSplitSimpleStatements(t *testing.T) {
	stmts := sqlsplit.Split("CREATE TABLE users (id INT); INSERT INTO users VALUES (1);")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE users (id INT)" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
	if stmts[1] != "INSERT INTO users VALUES (1)" {
		t.Errorf("unexpected second statement: %q", stmts[1])
	}
}

func TestSplitSingleQuotedSemicolon(t *testing.T) {
	stmts := sqlsplit.Split("INSERT INTO t VALUES ('a;b'); SELECT 1;")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "INSERT INTO t VALUES ('a;b')" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitDoubleQuotedSemicolon(t *testing.T) {
	stmts := sqlsplit.Split(`SELECT "col;name" FROM t; SELECT 1;`)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
}

func TestSplitDollarQuotedSemicolon(t *testing.T) {
	sql := "CREATE FUNCTION f() RETURNS void AS $$ BEGIN NULL; END; $$ LANGUAGE plpgsql; SELECT 1;"
	stmts := sqlsplit.Split(sql)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
}

func TestSplitDollarQuotedWithTag(t *testing.T) {
	sql := "CREATE FUNCTION f() AS $body$ SELECT ';'; $body$ LANGUAGE sql; SELECT 2;"
	stmts := sqlsplit.Split(sql)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
}

func TestSplitEscapedSingleQuote(t *testing.T) {
	stmts := sqlsplit.Split("INSERT INTO t VALUES ('it''s'); SELECT 1;")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "INSERT INTO t VALUES ('it''s')" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitTrailingStatementWithoutSemicolon(t *testing.T) {
	stmts := sqlsplit.Split("SELECT 1")
	if len(stmts) != 1 || stmts[0] != "SELECT 1" {
		t.Fatalf("unexpected result: %v", stmts)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if stmts := sqlsplit.Split(""); len(stmts) != 0 {
		t.Fatalf("expected no statements, got %v", stmts)
	}
}

func TestSplitWhitespaceOnly(t *testing.T) {
	if stmts := sqlsplit.Split("  \n  "); len(stmts) != 0 {
		t.Fatalf("expected no statements, got %v", stmts)
	}
}

func TestSplitUTF8InStringLiteral(t *testing.T) {
	sql := "INSERT INTO t VALUES ('日本語;テスト'); SELECT 1;"
	stmts := sqlsplit.Split(sql)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "INSERT INTO t VALUES ('日本語;テスト')" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitUTF8InIdentifier(t *testing.T) {
	stmts := sqlsplit.Split(`SELECT "名前" FROM t; SELECT 1;`)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
}

func TestSplitLineCommentWithSemicolon(t *testing.T) {
	sql := "SELECT 1 -- comment; not a separator\nFROM t;"
	stmts := sqlsplit.Split(sql)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "SELECT 1 -- comment; not a separator\nFROM t" {
		t.Errorf("unexpected statement: %q", stmts[0])
	}
}

func TestSplitBlockCommentWithSemicolon(t *testing.T) {
	sql := "SELECT 1 /* comment; with semicolon */ FROM t;"
	stmts := sqlsplit.Split(sql)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "SELECT 1 /* comment; with semicolon */ FROM t" {
		t.Errorf("unexpected statement: %q", stmts[0])
	}
}

func TestSplitBlockCommentMultiline(t *testing.T) {
	sql := "SELECT 1\n/* multi\nline; comment\n*/\nFROM t; SELECT 2;"
	stmts := sqlsplit.Split(sql)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
}

func TestSplitTrailingCommentOnlyStatementIsDropped(t *testing.T) {
	stmts := sqlsplit.Split("SELECT 1; -- trailing comment")
	if len(stmts) != 1 || stmts[0] != "SELECT 1" {
		t.Fatalf("unexpected result: %v", stmts)
	}
}

func TestSplitDoubleDashInStringIsNotAComment(t *testing.T) {
	stmts := sqlsplit.Split("INSERT INTO t VALUES ('a--b;c'); SELECT 1;")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "INSERT INTO t VALUES ('a--b;c')" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitCommentOnlyStatementFiltered(t *testing.T) {
	stmts := sqlsplit.Split("/* just a comment */; SELECT 1;")
	if len(stmts) != 1 || stmts[0] != "SELECT 1" {
		t.Fatalf("unexpected result: %v", stmts)
	}
}

func TestSplitCommentWithSQLPreserved(t *testing.T) {
	stmts := sqlsplit.Split("/* comment */ SELECT 1; SELECT 2;")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "/* comment */ SELECT 1" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitNestedBlockComment(t *testing.T) {
	sql := "SELECT 1 /* outer /* inner; */ still comment; */ FROM t; SELECT 2;"
	stmts := sqlsplit.Split(sql)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "SELECT 1 /* outer /* inner; */ still comment; */ FROM t" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
	if stmts[1] != "SELECT 2" {
		t.Errorf("unexpected second statement: %q", stmts[1])
	}
}

func TestSplitNestedBlockCommentDeep(t *testing.T) {
	sql := "SELECT /* a /* b /* c; */ d */ e */ 1; SELECT 2;"
	stmts := sqlsplit.Split(sql)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "SELECT /* a /* b /* c; */ d */ e */ 1" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitIdempotent(t *testing.T) {
	sql := "CREATE TABLE t (id INT); /* note */ SELECT 1; -- trailing\n"
	first := sqlsplit.Split(sql)
	rejoined := ""
	for i, s := range first {
		if i > 0 {
			rejoined += "; "
		}
		rejoined += s
	}
	rejoined += ";"
	second := sqlsplit.Split(rejoined)
	if len(first) != len(second) {
		t.Fatalf("split not idempotent: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("split not idempotent at %d: %q vs %q", i, first[i], second[i])
		}
	}
}
