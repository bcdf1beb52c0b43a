// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/training-catalogue/db"
	"github.com/danielhkuo/training-catalogue/metrics"
	"github.com/danielhkuo/training-catalogue/models"
)

var ErrSyncInProgress = errors.New("a sync is already running")

// Result is the outcome of one sync run.
type Result struct {
	RunID        string `json:"run_id"`
	Source       string `json:"source"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at"`
	Inserted     int    `json:"added"`
	Updated      int    `json:"updated"`
	Archived     int    `json:"archived"`
	ActiveBefore int    `json:"active_before"`
	ActiveAfter  int    `json:"total"`
	Stats        *Stats `json:"stats"`
}

// Syncer reconciles a source against the store. One run at a time.
type Syncer struct {
	store *db.Store
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewSyncer(store *db.Store) *Syncer {
	return &Syncer{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run walks src and reconciles what it found:
//
//  1. one start time stamps every row as last_seen
//  2. rows are planned with no database writes
//  3. upsert and stale archival commit in one transaction
//  4. departments, the run record and cache invalidation follow
//
// Archival only happens for sources that see the whole tree, and only when
// the walk was complete. A walk error aborts the run before any write.
func (s *Syncer) Run(ctx context.Context, src Source) (Result, error) {
	if !s.mu.TryLock() {
		return Result{}, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	kind := src.Kind()
	start := s.now()
	res, err := s.run(ctx, src, start)
	elapsed := s.now().Sub(start)

	metrics.RecordSync(kind, elapsed, metrics.SyncResult{
		Inserted:        res.Inserted,
		Updated:         res.Updated,
		Archived:        res.Archived,
		ActiveAfter:     res.ActiveAfter,
		ScopeViolations: statsOrEmpty(res.Stats).ScopeViolations,
		Skipped:         statsOrEmpty(res.Stats).Skipped,
	}, err)

	if err != nil {
		slog.Error("sync failed", "source", kind, "error", err)
		return res, err
	}

	slog.Info("sync complete",
		"source", kind,
		"run_id", res.RunID,
		"added", humanize.Comma(int64(res.Inserted)),
		"updated", humanize.Comma(int64(res.Updated)),
		"archived", humanize.Comma(int64(res.Archived)),
		"active", humanize.Comma(int64(res.ActiveAfter)),
		"skipped", humanize.Comma(int64(res.Stats.SkippedTotal())),
		"scope_violations", res.Stats.ScopeViolations,
		"took", elapsed.Round(time.Millisecond),
	)
	if res.Stats.ScopeViolations > 0 {
		slog.Warn("scope violations detected", "count", res.Stats.ScopeViolations)
	}
	return res, nil
}

func (s *Syncer) run(ctx context.Context, src Source, start time.Time) (Result, error) {
	startedAt := db.FormatTime(start)
	stats := newStats()
	res := Result{
		RunID:     s.newID(),
		Source:    src.Kind(),
		StartedAt: startedAt,
		Stats:     stats,
	}

	before, err := s.store.ActiveCount(ctx)
	if err != nil {
		return res, err
	}
	res.ActiveBefore = before

	policy := src.Policy()
	planner := NewPlanner(src.Kind(), policy, startedAt, stats)
	if err := src.Walk(ctx, stats, planner.Add); err != nil {
		return res, fmt.Errorf("walk %s: %w", src.Kind(), err)
	}
	rows := planner.Rows()
	slog.Info("walk complete",
		"source", src.Kind(),
		"folders", humanize.Comma(int64(stats.FoldersScanned)),
		"files", humanize.Comma(int64(stats.FilesScanned)),
		"links", humanize.Comma(int64(stats.LinksCreated)),
		"rows", humanize.Comma(int64(len(rows))),
	)

	archive := policy.Archive && !stats.Incomplete
	if policy.Archive && stats.Incomplete {
		slog.Warn("walk incomplete, skipping archival", "source", src.Kind(), "errors", len(stats.Errors))
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		up, err := s.store.BatchUpsert(ctx, tx, rows)
		if err != nil {
			return err
		}
		res.Inserted, res.Updated = up.Inserted, up.Updated
		slog.Debug("rows upserted", "source", src.Kind(), "rows", humanize.Comma(int64(up.Processed())))

		if archive {
			n, err := s.store.ArchiveStale(ctx, tx, startedAt)
			if err != nil {
				return err
			}
			res.Archived = n
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	for _, dept := range planner.Departments() {
		if err := s.store.UpsertDepartment(ctx, s.store.DB(), dept, startedAt); err != nil {
			return res, err
		}
	}

	after, err := s.store.ActiveCount(ctx)
	if err != nil {
		return res, err
	}
	res.ActiveAfter = after

	finished := db.FormatTime(s.now())
	res.FinishedAt = finished
	err = s.store.RecordSyncRun(ctx, s.store.DB(), models.SyncRun{
		RunID:             res.RunID,
		StartedAt:         startedAt,
		FinishedAt:        &finished,
		Source:            res.Source,
		ActiveTotalBefore: before,
		AddedCount:        res.Inserted,
		ArchivedCount:     res.Archived,
		ActiveTotalAfter:  after,
	})
	if err != nil {
		return res, err
	}

	s.store.ClearCache()
	return res, nil
}

func statsOrEmpty(s *Stats) *Stats {
	if s == nil {
		return newStats()
	}
	return s
}
