// Package sqlschema exposes the relational DDL bundles for the registry
// adapters.
package sqlschema

import (
	"bufio"
	_ "embed"
	"strings"
)

//go:embed ddl/sqlite.sql
var sqliteDDL string

//go:embed ddl/postgres.sql
var postgresDDL string

// SQLite returns the SQLite DDL for the registry schema.
func SQLite() string {
	return sqliteDDL
}

// Postgres returns the Postgres DDL for the registry schema.
func Postgres() string {
	return postgresDDL
}

// SplitStatements splits a semicolon-terminated DDL script into executable
// statements. It drops blank lines and single-line comments that start with
// "--".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		stmts = append(stmts, tail)
	}

	return stmts
}
