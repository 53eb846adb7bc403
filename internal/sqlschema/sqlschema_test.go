package sqlschema

import (
	"strings"
	"testing"
)

func TestBundlesContainRegistryTables(t *testing.T) {
	tables := []string{"specimen", "setting", "run", "sample", "sensor_reading"}
	for _, ddl := range []string{SQLite(), Postgres()} {
		for _, table := range tables {
			if !strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS "+table) {
				t.Fatalf("bundle missing table %s", table)
			}
		}
	}
}

func TestSplitStatements(t *testing.T) {
	ddl := `-- comment
CREATE TABLE a (
    id INTEGER PRIMARY KEY
);

-- another comment
CREATE TABLE b (id INTEGER);
CREATE INDEX idx_b ON b(id)`

	stmts := SplitStatements(ddl)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") {
		t.Fatalf("unexpected first statement %q", stmts[0])
	}
	if strings.Contains(stmts[1], "--") {
		t.Fatalf("comment leaked into statement %q", stmts[1])
	}
	if stmts[2] != "CREATE INDEX idx_b ON b(id)" {
		t.Fatalf("unterminated tail must be kept: %q", stmts[2])
	}
}

func TestSplitStatementsOnBundles(t *testing.T) {
	for _, ddl := range []string{SQLite(), Postgres()} {
		stmts := SplitStatements(ddl)
		if len(stmts) != 5 {
			t.Fatalf("expected 5 statements, got %d", len(stmts))
		}
		for _, stmt := range stmts {
			if !strings.HasPrefix(stmt, "CREATE TABLE") {
				t.Fatalf("unexpected statement %q", stmt)
			}
		}
	}
}
