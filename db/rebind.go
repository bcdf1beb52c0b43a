// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax and driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

// ParseDialect maps a configured database type to a Dialect.
func ParseDialect(s string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return Postgres, true
	case "sqlite", "sqlite3":
		return SQLite, true
	}
	return "", false
}

// Rebind rewrites "?" placeholders into the dialect's form. For Postgres
// each "?" becomes $1, $2, ... but only outside single-quoted strings,
// double-quoted identifiers, line comments and block comments.
func Rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	var inSingle, inDouble, inLine, inBlock bool
	n := 0
	for i := 0; i < len(query); i++ {
		ch := query[i]
		var next byte
		if i+1 < len(query) {
			next = query[i+1]
		}

		switch {
		case inLine:
			b.WriteByte(ch)
			if ch == '\n' {
				inLine = false
			}
		case inBlock:
			b.WriteByte(ch)
			if ch == '*' && next == '/' {
				b.WriteByte('/')
				i++
				inBlock = false
			}
		case inSingle:
			b.WriteByte(ch)
			if ch == '\'' {
				if next == '\'' {
					b.WriteByte('\'')
					i++
				} else {
					inSingle = false
				}
			}
		case inDouble:
			b.WriteByte(ch)
			if ch == '"' {
				if next == '"' {
					b.WriteByte('"')
					i++
				} else {
					inDouble = false
				}
			}
		case ch == '-' && next == '-':
			b.WriteString("--")
			i++
			inLine = true
		case ch == '/' && next == '*':
			b.WriteString("/*")
			i++
			inBlock = true
		case ch == '\'':
			b.WriteByte(ch)
			inSingle = true
		case ch == '"':
			b.WriteByte(ch)
			inDouble = true
		case ch == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}

	return b.String()
}

var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "CREATE": true,
	"ALTER": true, "DROP": true, "TRUNCATE": true, "MERGE": true,
}

// IsWrite reports whether query modifies data. A WITH query counts as a
// write when its body contains a write keyword.
func IsWrite(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToUpper(fields[0])
	if first != "WITH" {
		return writeKeywords[first]
	}
	for _, f := range fields[1:] {
		if writeKeywords[strings.ToUpper(f)] {
			return true
		}
	}
	return false
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
