// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"

	"github.com/danielhkuo/training-catalogue/models"
)

// DefaultRunLimit caps ListSyncRuns when no limit is given.
const DefaultRunLimit = 20

// RecordSyncRun stores the outcome of one reconciliation pass.
func (s *Store) RecordSyncRun(ctx context.Context, q Queryer, run models.SyncRun) error {
	_, err := s.exec(ctx, q, `
		INSERT INTO sync_runs (
			run_id, started_at, finished_at, source,
			active_total_before, added_count, archived_count, active_total_after
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID, run.StartedAt, run.FinishedAt, run.Source,
		run.ActiveTotalBefore, run.AddedCount, run.ArchivedCount, run.ActiveTotalAfter,
	)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns the most recent runs, newest first.
func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT run_id, started_at, finished_at, source,
		       active_total_before, added_count, archived_count, active_total_after
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []models.SyncRun{}
	for rows.Next() {
		var r models.SyncRun
		if err := rows.Scan(
			&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Source,
			&r.ActiveTotalBefore, &r.AddedCount, &r.ArchivedCount, &r.ActiveTotalAfter,
		); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
