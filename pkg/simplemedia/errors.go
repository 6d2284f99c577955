package simplemedia

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrUnauthorized indicates identity verification failed. All
	// verification failure subtypes (missing token, bad signature, expired,
	// wrong issuer, key resolution failure) collapse into this one error;
	// the subtype is logged by the verifier, never surfaced.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoFile indicates the required primary file was not supplied
	ErrNoFile = errors.New("no file provided")

	// ErrTranscodeFailed indicates the external synthesis step failed
	ErrTranscodeFailed = errors.New("transcode failed")

	// ErrStoreUnavailable indicates a blob store operation failed
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrObjectNotFound indicates a blob was not found at the given key.
	// This is a distinguished outcome, not a backend failure.
	ErrObjectNotFound = errors.New("object not found")

	// ErrEntryNotFound indicates the entry id is not present for the subject
	ErrEntryNotFound = errors.New("entry not found")
)

// StorageError represents an error related to blob store operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// EntryError represents an error related to entry store operations
type EntryError struct {
	Subject string
	Op      string
	Err     error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry operation %s failed for subject %s: %v", e.Op, e.Subject, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
