package repository

import (
	"slices"
	"strings"
)

// Dialect renders the SQL that differs between backends.
type Dialect interface {
	Name() string
	// Upsert renders a multi-row insert of rows rows that overwrites every
	// column not in keys when a unique key already exists.
	Upsert(table string, cols, keys []string, rows int) string
	// Schema returns the idempotent DDL for every table.
	Schema() []string
	// RunsSchema returns the DDL for the run log alone.
	RunsSchema() []string
}

// MySQL renders `ON DUPLICATE KEY UPDATE`. It fires on any unique key, so
// stores merge on either of their two natural keys.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) Upsert(table string, cols, keys []string, rows int) string {
	var b strings.Builder
	writeInsert(&b, table, cols, rows)
	b.WriteString(" ON DUPLICATE KEY UPDATE ")
	first := true
	for _, c := range cols {
		if slices.Contains(keys, c) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(c + " = VALUES(" + c + ")")
	}
	return b.String()
}

func (MySQL) Schema() []string { return mysqlSchema }

func (MySQL) RunsSchema() []string { return mysqlSchema[len(mysqlSchema)-1:] }

// SQLite renders `ON CONFLICT DO UPDATE` with no conflict target, which
// (SQLite 3.35+) fires on any unique constraint like MySQL does.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Upsert(table string, cols, keys []string, rows int) string {
	var b strings.Builder
	writeInsert(&b, table, cols, rows)
	b.WriteString(" ON CONFLICT DO UPDATE SET ")
	first := true
	for _, c := range cols {
		if slices.Contains(keys, c) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(c + " = excluded." + c)
	}
	return b.String()
}

func (SQLite) Schema() []string { return sqliteSchema }

func (SQLite) RunsSchema() []string { return sqliteSchema[len(sqliteSchema)-1:] }

func writeInsert(b *strings.Builder, table string, cols []string, rows int) {
	b.WriteString("INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES ")
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
}
