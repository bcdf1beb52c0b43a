// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/ristretto/v2"
)

var (
	ErrNotFound        = errors.New("container not found")
	ErrInvalidDecision = errors.New("invalid scrub decision")
	ErrInvalidStage    = errors.New("invalid sales stage")
	ErrInvalidAudience = errors.New("invalid audience")
	ErrInvalidReasons  = errors.New("invalid scrub reasons")
	ErrNotWrite        = errors.New("query does not modify data")
)

// slowQuery is the duration above which a write is logged.
const slowQuery = 100 * time.Millisecond

// Pool limits
const (
	MaxOpenConns = 10
	MaxIdleConns = 2
)

// refTTL is how long reference lists (departments, training types) are
// served from cache.
const refTTL = 30 * time.Second

// Queryer is satisfied by *sql.DB and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database, sizes the pool and waits for the server
// to answer a ping, retrying with exponential backoff up to maxWait.
func Open(ctx context.Context, dialect Dialect, dsn string, maxWait time.Duration) (*sql.DB, error) {
	conn, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(MaxOpenConns)
	conn.SetMaxIdleConns(MaxIdleConns)
	if dialect == SQLite {
		// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = maxWait

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := conn.PingContext(ctx); err != nil {
			slog.Warn("database ping failed", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	return conn, nil
}

// Store is the metadata overlay.
type Store struct {
	db      *sql.DB
	dialect Dialect
	refs    *ristretto.Cache[string, []string]
	now     func() time.Time
}

// NewStore wraps an open database.
func NewStore(conn *sql.DB, dialect Dialect) (*Store, error) {
	refs, err := ristretto.NewCache(&ristretto.Config[string, []string]{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create reference cache: %w", err)
	}

	return &Store{
		db:      conn,
		dialect: dialect,
		refs:    refs,
		now:     time.Now,
	}, nil
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close releases the cache. The connection pool is owned by the caller.
func (s *Store) Close() {
	s.refs.Close()
}

func (s *Store) rebind(query string) string {
	return Rebind(s.dialect, query)
}

// exec runs a write statement on q. Reads are refused; they go through
// QueryContext.
func (s *Store) exec(ctx context.Context, q Queryer, query string, args ...any) (sql.Result, error) {
	if !IsWrite(query) {
		return nil, ErrNotWrite
	}
	start := time.Now()
	res, err := q.ExecContext(ctx, s.rebind(query), args...)
	if d := time.Since(start); d > slowQuery {
		slog.Warn("slow query", "duration", d, "statement", statementName(query))
	}
	return res, err
}

// statementName returns the first two words of query, e.g. "UPDATE resource_containers".
func statementName(query string) string {
	fields := strings.Fields(query)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " ")
}

func (s *Store) timestamp() string {
	return FormatTime(s.now())
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullString maps "" to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
