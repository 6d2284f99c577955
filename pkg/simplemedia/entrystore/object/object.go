// Package object implements simplemedia.EntryStore with one serialized
// object per subject in a simplemedia.BlobStore. Every mutation reads,
// rewrites and re-uploads the subject's whole collection.
package object

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/objectkey"
)

// Store persists each subject's entry list at a subject-scoped key
type Store struct {
	blobs simplemedia.BlobStore
	keys  objectkey.Generator
}

// New creates an object-backed entry store. A nil generator falls back to
// the default subject-scoped layout.
func New(blobs simplemedia.BlobStore, keys objectkey.Generator) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if keys == nil {
		keys = objectkey.NewSubjectScopedGenerator()
	}
	return &Store{blobs: blobs, keys: keys}, nil
}

// List returns the subject's entries in append order. A missing object
// means the subject has no entries yet.
func (s *Store) List(ctx context.Context, subject string) ([]simplemedia.Entry, error) {
	return s.load(ctx, subject)
}

// Append adds an entry to the end of the subject's collection
func (s *Store) Append(ctx context.Context, subject string, entry simplemedia.Entry) error {
	entries, err := s.load(ctx, subject)
	if err != nil {
		return &simplemedia.EntryError{Subject: subject, Op: "append", Err: err}
	}

	entries = append(entries, entry)
	if err := s.store(ctx, subject, entries); err != nil {
		return &simplemedia.EntryError{Subject: subject, Op: "append", Err: err}
	}
	return nil
}

// Remove deletes the entry with the given id and returns it
func (s *Store) Remove(ctx context.Context, subject, entryID string) (*simplemedia.Entry, error) {
	entries, err := s.load(ctx, subject)
	if err != nil {
		return nil, &simplemedia.EntryError{Subject: subject, Op: "remove", Err: err}
	}

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

	if err := s.store(ctx, subject, kept); err != nil {
		return nil, &simplemedia.EntryError{Subject: subject, Op: "remove", Err: err}
	}
	return removed, nil
}

func (s *Store) load(ctx context.Context, subject string) ([]simplemedia.Entry, error) {
	rc, err := s.blobs.Download(ctx, s.keys.EntriesKey(subject))
	if errors.Is(err, simplemedia.ErrObjectNotFound) {
		return []simplemedia.Entry{}, nil
	} else if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries object: %w", err)
	}

	var entries []simplemedia.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode entries object: %w", err)
	}
	return entries, nil
}

func (s *Store) store(ctx context.Context, subject string, entries []simplemedia.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	return s.blobs.Upload(ctx, s.keys.EntriesKey(subject), strings.NewReader(string(data)), "application/json")
}
