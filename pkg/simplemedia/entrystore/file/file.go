// Package file implements simplemedia.EntryStore on a single shared JSON
// file: a process-wide map from subject to entry list, loaded once at
// construction and rewritten wholesale on every mutation.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Store keeps all subjects' entries in memory and mirrors the whole map to
// one local file per mutation. The mutex protects the in-process map only;
// two processes sharing the file still race on last-writer-wins.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string][]simplemedia.Entry
	logger  *slog.Logger
}

// New loads the entry map from path. A missing file starts empty; a corrupt
// file is logged and starts empty.
func New(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("entries file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:    path,
		entries: make(map[string][]simplemedia.Entry),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read entries file: %w", err)
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		logger.Error("corrupt entries file, starting empty", "path", path, "error", err)
		s.entries = make(map[string][]simplemedia.Entry)
	}

	return s, nil
}

// List returns the subject's entries in append order
func (s *Store) List(ctx context.Context, subject string) ([]simplemedia.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[subject]
	out := make([]simplemedia.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Append adds an entry to the end of the subject's collection. The map and
// the file move together: a failed write restores the previous state, so a
// reported failure is never visible in later lists.
func (s *Store) Append(ctx context.Context, subject string, entry simplemedia.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.entries[subject]
	s.entries[subject] = append(prev, entry)

	if err := s.save(); err != nil {
		s.entries[subject] = prev
		return &simplemedia.EntryError{Subject: subject, Op: "append", Err: err}
	}
	return nil
}

// Remove deletes the entry with the given id and returns it
func (s *Store) Remove(ctx context.Context, subject, entryID string) (*simplemedia.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries[subject]
	kept := make([]simplemedia.Entry, 0, len(entries))
	var removed *simplemedia.Entry

	for _, e := range entries {
		if e.ID == entryID && removed == nil {
			copied := e
			removed = &copied
			continue
		}
		kept = append(kept, e)
	}

	if removed == nil {
		return nil, simplemedia.ErrEntryNotFound
	}

	s.entries[subject] = kept
	if err := s.save(); err != nil {
		s.entries[subject] = entries
		return nil, &simplemedia.EntryError{Subject: subject, Op: "remove", Err: err}
	}
	return removed, nil
}

// save rewrites the whole map; callers hold the write lock
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write entries file: %w", err)
	}
	return nil
}
