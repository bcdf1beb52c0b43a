// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"time"
)

// TimeLayout is fixed width so that text comparison of stored timestamps
// matches chronological order on every dialect.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// CreateSchema creates all tables needed for the application and
// normalises legacy data. Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect Dialect) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := migrate(db, dialect, FormatTime(time.Now())); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

// legacyStatuses maps historical scrub statuses to canonical decisions.
var legacyStatuses = []struct {
	from string
	to   string
}{
	{"PASS", "Include"},
	{"keep", "Include"},
	{"HOLD", "Modify"},
	{"modify", "Modify"},
	{"gap", "Modify"},
	{"BLOCK", "Sunset"},
}

// nullableCounts are the count and flag columns older tables allowed to be NULL.
var nullableCounts = []string{
	"resource_count", "valid_link_count", "contents_count",
	"is_placeholder", "is_archived", "approved_for_investment",
}

type statement struct {
	query string
	args  []any
}

func migrate(db *sql.DB, dialect Dialect, now string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []statement{{
		`UPDATE resource_containers
		 SET first_seen = COALESCE(first_seen, last_seen, ?)
		 WHERE first_seen IS NULL OR first_seen = ''`,
		[]any{now},
	}}
	for _, s := range legacyStatuses {
		stmts = append(stmts, statement{
			`UPDATE resource_containers SET scrub_status = ? WHERE scrub_status = ?`,
			[]any{s.to, s.from},
		})
	}
	for _, col := range nullableCounts {
		stmts = append(stmts, statement{
			query: `UPDATE resource_containers SET ` + col + ` = 0 WHERE ` + col + ` IS NULL`,
		})
	}
	stmts = append(stmts,
		statement{query: `UPDATE resource_containers SET scrub_status = 'Sunset' WHERE LOWER(scrub_status) = 'sunset'`},
		statement{query: `UPDATE resource_containers SET scrub_status = 'not_reviewed'
		 WHERE scrub_status IS NULL
		    OR scrub_status NOT IN ('not_reviewed', 'Include', 'Modify', 'Sunset')`},
	)

	for _, s := range stmts {
		if _, err := tx.Exec(Rebind(dialect, s.query), s.args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const schema = `
-- Resource containers: the metadata overlay
CREATE TABLE IF NOT EXISTS resource_containers (
    container_key TEXT PRIMARY KEY,
    drive_item_id TEXT,

    relative_path TEXT NOT NULL,
    bucket TEXT,
    primary_department TEXT,
    sub_department TEXT,
    training_type TEXT,

    container_type TEXT NOT NULL,
    display_name TEXT,
    web_url TEXT,

    resource_count INTEGER NOT NULL DEFAULT 1,
    valid_link_count INTEGER NOT NULL DEFAULT 0,
    contents_count INTEGER NOT NULL DEFAULT 0,
    is_placeholder INTEGER NOT NULL DEFAULT 0,

    scrub_status TEXT DEFAULT 'not_reviewed',
    scrub_notes TEXT,
    scrub_owner TEXT,
    scrub_updated TEXT,
    scrub_reasons TEXT,

    invest_decision TEXT,
    invest_owner TEXT,
    invest_effort TEXT,
    invest_notes TEXT,
    invest_updated TEXT,

    first_seen TEXT,
    last_seen TEXT,
    source TEXT,
    is_archived INTEGER NOT NULL DEFAULT 0,
    audience TEXT,
    approved_for_investment INTEGER NOT NULL DEFAULT 0,
    sales_stage TEXT
);

CREATE INDEX IF NOT EXISTS idx_containers_path ON resource_containers(relative_path);
CREATE INDEX IF NOT EXISTS idx_containers_bucket ON resource_containers(bucket);
CREATE INDEX IF NOT EXISTS idx_containers_dept ON resource_containers(primary_department);
CREATE INDEX IF NOT EXISTS idx_containers_subdept ON resource_containers(sub_department);
CREATE INDEX IF NOT EXISTS idx_containers_scrub_status ON resource_containers(scrub_status);
CREATE INDEX IF NOT EXISTS idx_containers_active ON resource_containers(is_archived, is_placeholder);
CREATE INDEX IF NOT EXISTS idx_containers_approved ON resource_containers(approved_for_investment);

-- Sync runs
CREATE TABLE IF NOT EXISTS sync_runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    source TEXT NOT NULL,
    active_total_before INTEGER NOT NULL,
    added_count INTEGER NOT NULL,
    archived_count INTEGER NOT NULL,
    active_total_after INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);

-- Departments discovered from the folder structure
CREATE TABLE IF NOT EXISTS departments (
    department TEXT PRIMARY KEY,
    last_seen TEXT NOT NULL
);
`
