package store

import (
	_ "embed"
	"strings"
)

var (
	//go:embed schema/postgres.sql
	postgresSchema string
	//go:embed schema/sqlite.sql
	sqliteSchema string
)

// Schema returns the DDL statements of dialect ("postgres" or "sqlite"),
// one statement per element. Every statement is idempotent.
func Schema(dialect string) []string {
	src := postgresSchema
	if dialect == "sqlite" {
		src = sqliteSchema
	}
	var out []string
	for _, stmt := range strings.Split(src, ";") {
		if s := strings.TrimSpace(stripComments(stmt)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripComments(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if !strings.HasPrefix(strings.TrimSpace(l), "--") {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
