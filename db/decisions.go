// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/danielhkuo/training-catalogue/models"
)

// ScrubUpdate is one scrub decision write.
type ScrubUpdate struct {
	Decision              string
	Owner                 string
	Notes                 *string
	Reasons               []string
	ResourceCountOverride *int
	Audience              *string
}

// UpdateScrub records a scrub decision on a container. Reasons are stored
// as a sorted JSON array; nil reasons clear the column. A non-nil audience
// must be canonical or empty, which unassigns it.
func (s *Store) UpdateScrub(ctx context.Context, key string, u ScrubUpdate) error {
	if !models.ValidScrubDecisions[u.Decision] {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, u.Decision)
	}
	if u.Audience != nil && !models.IsAudience(*u.Audience) {
		return fmt.Errorf("%w: %q", ErrInvalidAudience, *u.Audience)
	}

	var reasons any
	if u.Reasons != nil {
		enc, err := encodeReasons(u.Reasons)
		if err != nil {
			return err
		}
		reasons = enc
	}

	set := []string{
		"scrub_status = ?",
		"scrub_owner = ?",
		"scrub_notes = ?",
		"scrub_reasons = ?",
		"scrub_updated = ?",
	}
	args := []any{u.Decision, nullString(u.Owner), u.Notes, reasons, s.timestamp()}
	if u.ResourceCountOverride != nil {
		set = append(set, "resource_count = ?")
		args = append(args, *u.ResourceCountOverride)
	}
	if u.Audience != nil {
		set = append(set, "audience = ?")
		args = append(args, nullString(*u.Audience))
	}
	args = append(args, key)

	return s.updateOne(ctx,
		`UPDATE resource_containers SET `+strings.Join(set, ", ")+` WHERE container_key = ?`,
		args...)
}

// InvestUpdate is one investment decision write.
type InvestUpdate struct {
	Decision string
	Owner    string
	Effort   *string
	Notes    *string
}

// UpdateInvest records an investment decision on a container.
func (s *Store) UpdateInvest(ctx context.Context, key string, u InvestUpdate) error {
	return s.updateOne(ctx, `
		UPDATE resource_containers SET
			invest_decision = ?,
			invest_owner = ?,
			invest_effort = ?,
			invest_notes = ?,
			invest_updated = ?
		WHERE container_key = ?
	`, u.Decision, u.Owner, u.Effort, u.Notes, s.timestamp(), key)
}

// UpdateSalesStage sets or, when stage is nil, clears a container's sales
// stage. Only canonical stage keys are accepted.
func (s *Store) UpdateSalesStage(ctx context.Context, key string, stage *string) error {
	var value any
	if stage != nil {
		if !models.IsSalesStage(*stage) {
			return fmt.Errorf("%w: %q", ErrInvalidStage, *stage)
		}
		value = *stage
	}
	return s.updateOne(ctx,
		`UPDATE resource_containers SET sales_stage = ? WHERE container_key = ?`,
		value, key)
}

// UpdateAudienceBulk sets audience on the given active, non-placeholder
// containers. An empty audience unassigns; an empty selection changes
// nothing.
func (s *Store) UpdateAudienceBulk(ctx context.Context, keys []string, audience string) (int64, error) {
	if !models.IsAudience(audience) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAudience, audience)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, nullString(audience))
	for _, k := range keys {
		args = append(args, k)
	}

	res, err := s.exec(ctx, s.db, `
		UPDATE resource_containers SET audience = ?
		WHERE container_key IN (`+placeholders(len(keys))+`)
		  AND is_archived = 0 AND is_placeholder = 0
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update audience: %w", err)
	}
	return res.RowsAffected()
}

// UpdateScrubBatch applies per-container column edits in one transaction.
// Columns outside models.ScrubFieldWhitelist are ignored, as are archived
// and placeholder containers. scrub_status and audience are checked like
// their single-container writes; scrub_reasons must be a JSON string
// array and is stored sorted. Returns the number of rows changed.
func (s *Store) UpdateScrubBatch(ctx context.Context, updates map[string]map[string]string) (int64, error) {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		now := s.timestamp()
		for _, key := range keys {
			fields := updates[key]

			cols := make([]string, 0, len(fields))
			for col := range fields {
				if models.ScrubFieldWhitelist[col] {
					cols = append(cols, col)
				}
			}
			if len(cols) == 0 {
				continue
			}
			sort.Strings(cols)

			set := make([]string, 0, len(cols)+1)
			args := make([]any, 0, len(cols)+2)
			for _, col := range cols {
				value, err := batchValue(col, fields[col])
				if err != nil {
					return fmt.Errorf("%w for %s", err, key)
				}
				set = append(set, col+" = ?")
				args = append(args, nullString(value))
			}
			set = append(set, "scrub_updated = ?")
			args = append(args, now, key)

			res, err := s.exec(ctx, tx, `
				UPDATE resource_containers SET `+strings.Join(set, ", ")+`
				WHERE container_key = ? AND is_archived = 0 AND is_placeholder = 0
			`, args...)
			if err != nil {
				return fmt.Errorf("batch scrub %s: %w", key, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// batchValue checks one batch edit and returns the value to store.
func batchValue(col, value string) (string, error) {
	switch col {
	case "scrub_status":
		if !models.ValidScrubDecisions[value] {
			return "", fmt.Errorf("%w: %q", ErrInvalidDecision, value)
		}
	case "audience":
		if !models.IsAudience(value) {
			return "", fmt.Errorf("%w: %q", ErrInvalidAudience, value)
		}
	case "scrub_reasons":
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		var reasons []string
		if err := json.Unmarshal([]byte(value), &reasons); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidReasons, err)
		}
		if len(reasons) == 0 {
			return "", nil
		}
		return encodeReasons(reasons)
	}
	return value, nil
}

// encodeReasons returns reasons as a sorted JSON array.
func encodeReasons(reasons []string) (string, error) {
	sorted := append([]string(nil), reasons...)
	sort.Strings(sorted)
	b, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("encode scrub reasons: %w", err)
	}
	return string(b), nil
}

func (s *Store) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.exec(ctx, s.db, query, args...)
	if err != nil {
		return fmt.Errorf("update container: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update container: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
