// Package postgres implements the page store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harridge/fetchmill/internal/sched"
)

// DB abstracts the pgx pool operations used by the store, so tests can
// substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists page records in a web_pages table keyed by the reversed
// URL. Records are stored whole in a JSONB column; the scheduler never
// queries individual fields server-side.
//
// Expected schema:
//
//	CREATE TABLE web_pages (
//	    url_key TEXT PRIMARY KEY,
//	    record  JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type Store struct {
	db DB
}

// New connects a pool and pings it to ensure the DSN is usable.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: pool}, nil
}

// NewWithDB builds a Store over an existing connection (tests).
func NewWithDB(db DB) *Store {
	return &Store{db: db}
}

// Get reads one record.
func (s *Store) Get(ctx context.Context, urlKey string) (sched.PageRecord, bool, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT record FROM web_pages WHERE url_key = $1`, urlKey,
	).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return sched.PageRecord{}, false, nil
		}
		return sched.PageRecord{}, false, fmt.Errorf("select page %q: %w", urlKey, err)
	}

	var page sched.PageRecord
	if err := json.Unmarshal(raw, &page); err != nil {
		return sched.PageRecord{}, false, fmt.Errorf("decode page %q: %w", urlKey, err)
	}
	return page, true, nil
}

// Put upserts one record.
func (s *Store) Put(ctx context.Context, urlKey string, page sched.PageRecord) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page %q: %w", urlKey, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO web_pages (url_key, record, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (url_key) DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()`,
		urlKey, raw,
	)
	if err != nil {
		return fmt.Errorf("upsert page %q: %w", urlKey, err)
	}
	return nil
}

// Scan streams every record to fn in key order.
func (s *Store) Scan(ctx context.Context, fn func(urlKey string, page sched.PageRecord) error) error {
	rows, err := s.db.Query(ctx, `SELECT url_key, record FROM web_pages ORDER BY url_key`)
	if err != nil {
		return fmt.Errorf("scan pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			urlKey string
			raw    []byte
		)
		if err := rows.Scan(&urlKey, &raw); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		var page sched.PageRecord
		if err := json.Unmarshal(raw, &page); err != nil {
			return fmt.Errorf("decode page %q: %w", urlKey, err)
		}
		if err := fn(urlKey, page); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan pages: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
