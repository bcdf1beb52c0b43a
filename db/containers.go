// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/training-catalogue/models"
)

// ContainerRow is the sync-owned part of a container. Upserts write only
// these columns, so staff decisions survive every re-sync.
type ContainerRow struct {
	ContainerKey      string
	DriveItemID       string
	RelativePath      string
	Bucket            string
	PrimaryDepartment string
	SubDepartment     string
	TrainingType      string
	ContainerType     string
	DisplayName       string
	WebURL            string
	ResourceCount     int
	ValidLinkCount    int
	ContentsCount     int
	IsPlaceholder     bool
	Source            string
	// LastSeen is the sync start time shared by every row of a run.
	LastSeen string
}

// UpsertResult counts what a batch upsert did.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// Processed is the number of rows written.
func (r UpsertResult) Processed() int {
	return r.Inserted + r.Updated
}

// Counts and flags may be NULL in tables created before they were NOT NULL.
const containerColumns = `
	container_key, drive_item_id, relative_path, bucket, primary_department,
	sub_department, training_type, container_type, display_name, web_url,
	COALESCE(resource_count, 0), COALESCE(valid_link_count, 0),
	COALESCE(contents_count, 0), COALESCE(is_placeholder, 0),
	scrub_status, scrub_notes, scrub_owner, scrub_updated, scrub_reasons,
	invest_decision, invest_owner, invest_effort, invest_notes, invest_updated,
	first_seen, last_seen, source, COALESCE(is_archived, 0), audience,
	COALESCE(approved_for_investment, 0), sales_stage`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContainer(r rowScanner) (models.Container, error) {
	var c models.Container
	var scrubStatus sql.NullString
	err := r.Scan(
		&c.ContainerKey, &c.DriveItemID, &c.RelativePath, &c.Bucket, &c.PrimaryDepartment,
		&c.SubDepartment, &c.TrainingType, &c.ContainerType, &c.DisplayName, &c.WebURL,
		&c.ResourceCount, &c.ValidLinkCount, &c.ContentsCount, &c.IsPlaceholder,
		&scrubStatus, &c.ScrubNotes, &c.ScrubOwner, &c.ScrubUpdated, &c.ScrubReasons,
		&c.InvestDecision, &c.InvestOwner, &c.InvestEffort, &c.InvestNotes, &c.InvestUpdated,
		&c.FirstSeen, &c.LastSeen, &c.Source, &c.IsArchived, &c.Audience,
		&c.ApprovedForInvestment, &c.SalesStage,
	)
	c.ScrubStatus = models.ScrubNotReviewed
	if scrubStatus.Valid && scrubStatus.String != "" {
		c.ScrubStatus = scrubStatus.String
	}
	return c, err
}

// UpsertContainer inserts row or refreshes its sync-owned columns.
// An existing row is always un-archived. Scrub, investment, audience and
// sales stage columns are never written here. Returns true when inserted.
func (s *Store) UpsertContainer(ctx context.Context, q Queryer, row ContainerRow) (bool, error) {
	if row.LastSeen == "" {
		row.LastSeen = s.timestamp()
	}

	var exists int
	err := q.QueryRowContext(ctx,
		s.rebind(`SELECT 1 FROM resource_containers WHERE container_key = ?`),
		row.ContainerKey,
	).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup container %s: %w", row.ContainerKey, err)
	}

	if err == nil {
		_, err = s.exec(ctx, q, `
			UPDATE resource_containers SET
				relative_path = ?,
				bucket = ?,
				primary_department = ?,
				sub_department = ?,
				training_type = ?,
				display_name = ?,
				web_url = ?,
				resource_count = ?,
				valid_link_count = ?,
				contents_count = ?,
				is_placeholder = ?,
				last_seen = ?,
				source = ?,
				drive_item_id = ?,
				is_archived = 0
			WHERE container_key = ?
		`,
			row.RelativePath, nullString(row.Bucket), nullString(row.PrimaryDepartment),
			nullString(row.SubDepartment), nullString(row.TrainingType),
			nullString(row.DisplayName), nullString(row.WebURL),
			row.ResourceCount, row.ValidLinkCount, row.ContentsCount, boolInt(row.IsPlaceholder),
			row.LastSeen, nullString(row.Source), nullString(row.DriveItemID),
			row.ContainerKey,
		)
		if err != nil {
			return false, fmt.Errorf("update container %s: %w", row.ContainerKey, err)
		}
		return false, nil
	}

	_, err = s.exec(ctx, q, `
		INSERT INTO resource_containers (
			container_key, drive_item_id, relative_path, bucket,
			primary_department, sub_department, training_type, container_type,
			display_name, web_url, resource_count, valid_link_count,
			contents_count, is_placeholder, scrub_status,
			first_seen, last_seen, source, is_archived
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`,
		row.ContainerKey, nullString(row.DriveItemID), row.RelativePath, nullString(row.Bucket),
		nullString(row.PrimaryDepartment), nullString(row.SubDepartment), nullString(row.TrainingType), row.ContainerType,
		nullString(row.DisplayName), nullString(row.WebURL), row.ResourceCount, row.ValidLinkCount,
		row.ContentsCount, boolInt(row.IsPlaceholder), models.ScrubNotReviewed,
		row.LastSeen, row.LastSeen, nullString(row.Source),
	)
	if err != nil {
		return false, fmt.Errorf("insert container %s: %w", row.ContainerKey, err)
	}
	return true, nil
}

// BatchUpsert upserts every row through q, normally a transaction.
// Duplicate keys within a batch are written once per occurrence; the
// last occurrence wins.
func (s *Store) BatchUpsert(ctx context.Context, q Queryer, rows []ContainerRow) (UpsertResult, error) {
	var res UpsertResult
	for _, row := range rows {
		inserted, err := s.UpsertContainer(ctx, q, row)
		if err != nil {
			return res, err
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

// ArchiveStale archives every active row not seen since startedAt.
// Rows with no last_seen are stale too.
func (s *Store) ArchiveStale(ctx context.Context, q Queryer, startedAt string) (int, error) {
	res, err := s.exec(ctx, q, `
		UPDATE resource_containers
		SET is_archived = 1
		WHERE is_archived = 0
		  AND (last_seen < ? OR last_seen IS NULL)
	`, startedAt)
	if err != nil {
		return 0, fmt.Errorf("archive stale containers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archive stale containers: %w", err)
	}
	return int(n), nil
}

// ActiveCount returns the number of non-archived containers.
func (s *Store) ActiveCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resource_containers WHERE is_archived = 0`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active containers: %w", err)
	}
	return n, nil
}

// Filter narrows ListActive. Empty fields are ignored. SalesStage
// "untagged" selects containers with no stage.
type Filter struct {
	Department   string
	TrainingType string
	SalesStage   string
}

// ListActive returns active, non-placeholder containers ordered by path.
func (s *Store) ListActive(ctx context.Context, f Filter) ([]models.Container, error) {
	query := `SELECT ` + containerColumns + `
		FROM resource_containers
		WHERE is_archived = 0 AND is_placeholder = 0`
	var args []any

	if f.Department != "" {
		query += ` AND primary_department = ?`
		args = append(args, f.Department)
	}
	if f.TrainingType != "" {
		query += ` AND training_type = ?`
		args = append(args, f.TrainingType)
	}
	switch f.SalesStage {
	case "":
	case models.SalesStageUntagged:
		query += ` AND sales_stage IS NULL`
	default:
		query += ` AND sales_stage = ?`
		args = append(args, f.SalesStage)
	}
	query += ` ORDER BY relative_path`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	defer rows.Close()

	containers := []models.Container{}
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		containers = append(containers, c)
	}
	return containers, rows.Err()
}

// GetContainer returns one container, archived or not.
func (s *Store) GetContainer(ctx context.Context, key string) (models.Container, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+containerColumns+` FROM resource_containers WHERE container_key = ?`),
		key,
	)
	c, err := scanContainer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Container{}, ErrNotFound
	}
	if err != nil {
		return models.Container{}, fmt.Errorf("get container %s: %w", key, err)
	}
	return c, nil
}

// FolderContentsCount returns the informational contents count of a
// folder container, or 0 when there is none.
func (s *Store) FolderContentsCount(ctx context.Context, relativePath string) (int, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT contents_count
		FROM resource_containers
		WHERE relative_path = ? AND container_type = 'folder'
	`), relativePath).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("folder contents count: %w", err)
	}
	return int(n.Int64), nil
}
