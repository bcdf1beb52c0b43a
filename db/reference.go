// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"
	"strings"
)

// UpsertDepartment records a department seen at ts. Blank names are ignored.
func (s *Store) UpsertDepartment(ctx context.Context, q Queryer, name, ts string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	_, err := s.exec(ctx, q, `
		INSERT INTO departments (department, last_seen) VALUES (?, ?)
		ON CONFLICT (department) DO UPDATE SET last_seen = excluded.last_seen
	`, name, ts)
	if err != nil {
		return fmt.Errorf("upsert department %s: %w", name, err)
	}
	return nil
}

// ListDepartments returns every department ever discovered, sorted.
func (s *Store) ListDepartments(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT department FROM departments ORDER BY department`)
}

// ActiveDepartments returns departments with at least one active container.
// Results are cached for a short TTL.
func (s *Store) ActiveDepartments(ctx context.Context) ([]string, error) {
	return s.cached(ctx, "departments", `
		SELECT DISTINCT primary_department
		FROM resource_containers
		WHERE is_archived = 0 AND is_placeholder = 0
		  AND primary_department IS NOT NULL AND primary_department <> ''
		ORDER BY primary_department
	`)
}

// ActiveTrainingTypes returns training types in use by active containers,
// optionally narrowed to one department. Results are cached for a short TTL.
func (s *Store) ActiveTrainingTypes(ctx context.Context, department string) ([]string, error) {
	query := `
		SELECT DISTINCT training_type
		FROM resource_containers
		WHERE is_archived = 0 AND is_placeholder = 0
		  AND training_type IS NOT NULL AND training_type <> ''`
	var args []any
	if department != "" {
		query += ` AND primary_department = ?`
		args = append(args, department)
	}
	query += ` ORDER BY training_type`
	return s.cached(ctx, "training_types|"+department, query, args...)
}

// ClearCache drops all cached reference lists.
func (s *Store) ClearCache() {
	s.refs.Clear()
}

func (s *Store) cached(ctx context.Context, key, query string, args ...any) ([]string, error) {
	if v, ok := s.refs.Get(key); ok {
		return v, nil
	}
	v, err := s.queryStrings(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	s.refs.SetWithTTL(key, v, 1, refTTL)
	s.refs.Wait()
	return v, nil
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query reference list: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
