// CLAUDE:SUMMARY Single-slot SQLite repository for the latest submission snapshot: Get, Replace (clear-then-set in one transaction), Clear.
// Package store persists the most recent submission snapshot.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/codecapture/dbopen"
	"github.com/hazyhaar/codecapture/submission"
)

// ErrEmpty is returned by Get when no snapshot is stored.
var ErrEmpty = errors.New("store: no snapshot stored")

// Record is the stored snapshot and the time it was saved.
type Record struct {
	Snapshot    submission.Snapshot
	LastUpdated string
}

// Store is the snapshot database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path and applies Schema. Extra
// options, such as another component's schema, are applied after it.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	all := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)
	db, err := dbopen.Open(path, all...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Get returns the stored record or ErrEmpty.
func (s *Store) Get(ctx context.Context) (*Record, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE key IN (?, ?)`, KeyProblemInfo, KeyLastUpdated)
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	defer rows.Close()

	vals := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		vals[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}

	raw, ok := vals[KeyProblemInfo]
	if !ok {
		return nil, ErrEmpty
	}
	snap, err := submission.UnmarshalSnapshot([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	return &Record{Snapshot: *snap, LastUpdated: vals[KeyLastUpdated]}, nil
}

// Replace empties the store and writes snap with its save time, in one
// transaction. Readers see either the previous snapshot or snap.
func (s *Store) Replace(ctx context.Context, snap submission.Snapshot, at time.Time) error {
	data, err := submission.MarshalSnapshot(&snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv`); err != nil {
			return fmt.Errorf("store: clear: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value) VALUES (?, ?), (?, ?)`,
			KeyProblemInfo, string(data),
			KeyLastUpdated, at.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("store: set: %w", err)
		}
		return nil
	})
}

// Clear removes everything stored.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	return nil
}
