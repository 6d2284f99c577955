// Package postgres implements simplemedia.EntryStore on PostgreSQL. Append
// order is preserved with a sequence column; the external contract matches
// the file and object substrates exactly.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Store persists entries in the media_entry table
type Store struct {
	pool *pgxpool.Pool
}

// NewWithPool creates a Postgres-backed entry store using an existing pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// New connects to databaseURL and returns a Postgres-backed entry store
func New(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return NewWithPool(pool), nil
}

// Migrate creates the media_entry table if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS media_entry (
            seq        BIGSERIAL PRIMARY KEY,
            subject    TEXT NOT NULL,
            id         TEXT NOT NULL,
            media_url  TEXT NOT NULL,
            caption    TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL,
            UNIQUE (subject, id)
        );
        CREATE INDEX IF NOT EXISTS media_entry_subject_idx ON media_entry (subject, seq);
    `)
	if err != nil {
		return fmt.Errorf("failed to migrate media_entry: %w", err)
	}
	return nil
}

// Close releases the underlying pool
func (s *Store) Close() {
	s.pool.Close()
}

// List returns the subject's entries in append order
func (s *Store) List(ctx context.Context, subject string) ([]simplemedia.Entry, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, media_url, caption, created_at
        FROM media_entry
        WHERE subject = $1
        ORDER BY seq
    `, subject)
	if err != nil {
		return nil, &simplemedia.EntryError{Subject: subject, Op: "list", Err: err}
	}
	defer rows.Close()

	entries := []simplemedia.Entry{}
	for rows.Next() {
		var e simplemedia.Entry
		if err := rows.Scan(&e.ID, &e.MediaURL, &e.Caption, &e.CreatedAt); err != nil {
			return nil, &simplemedia.EntryError{Subject: subject, Op: "list", Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &simplemedia.EntryError{Subject: subject, Op: "list", Err: err}
	}
	return entries, nil
}

// Append adds an entry to the end of the subject's collection
func (s *Store) Append(ctx context.Context, subject string, entry simplemedia.Entry) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO media_entry (subject, id, media_url, caption, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, subject, entry.ID, entry.MediaURL, entry.Caption, entry.CreatedAt)
	if err != nil {
		return &simplemedia.EntryError{Subject: subject, Op: "append", Err: err}
	}
	return nil
}

// Remove deletes the entry with the given id and returns it
func (s *Store) Remove(ctx context.Context, subject, entryID string) (*simplemedia.Entry, error) {
	var e simplemedia.Entry
	err := s.pool.QueryRow(ctx, `
        DELETE FROM media_entry
        WHERE subject = $1 AND id = $2
        RETURNING id, media_url, caption, created_at
    `, subject, entryID).Scan(&e.ID, &e.MediaURL, &e.Caption, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simplemedia.ErrEntryNotFound
	} else if err != nil {
		return nil, &simplemedia.EntryError{Subject: subject, Op: "remove", Err: err}
	}
	return &e, nil
}
