package simplemedia

import (
	"context"
)

// Service defines the main interface for the simple-media library. Every
// operation resolves the caller's identity from the raw authorization header
// value before touching any state; a failed verification terminates the
// operation with ErrUnauthorized and no side effects.
type Service interface {
	// Upload stores the request's media and appends a new entry to the
	// caller's collection, returning the created entry.
	Upload(ctx context.Context, authorization string, req UploadRequest) (*Entry, error)

	// ListEntries returns the caller's entries in append order. A caller
	// with no prior uploads lists empty, never an error.
	ListEntries(ctx context.Context, authorization string) ([]Entry, error)

	// DeleteEntry removes the entry with the given id from the caller's
	// collection and best-effort deletes the referenced media object.
	// ErrEntryNotFound if the id does not belong to the caller.
	DeleteEntry(ctx context.Context, authorization string, entryID string) error
}
