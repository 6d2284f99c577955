package simplemedia

import (
	"context"
	"io"
)

// BlobStore defines the interface for blob storage backends. Each operation
// is independently atomic at the backend's granularity; there are no
// transactional guarantees across keys.
type BlobStore interface {
	// Upload stores the blob at the given key with the given content type
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download returns the blob stored at the given key. A missing key
	// yields ErrObjectNotFound; any other failure wraps ErrStoreUnavailable.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob at the given key. A missing key yields
	// ErrObjectNotFound.
	Delete(ctx context.Context, key string) error

	// URL returns the durable, externally resolvable locator for a key
	URL(key string) string

	// ResolveKey maps a locator produced by URL back to its key. It reports
	// false for locators this backend did not produce.
	ResolveKey(rawURL string) (string, bool)
}

// EntryStore owns the ordered entry collection of each subject. Two
// mutations for the same subject race on a whole-collection
// read-modify-write; the store provides no per-subject locking.
type EntryStore interface {
	// List returns the subject's entries in append order. An unknown
	// subject lists empty, never an error.
	List(ctx context.Context, subject string) ([]Entry, error)

	// Append adds an entry to the end of the subject's collection,
	// creating the collection on first use.
	Append(ctx context.Context, subject string, entry Entry) error

	// Remove deletes the entry with the given id and returns it, or
	// ErrEntryNotFound if the id is not present for the subject.
	Remove(ctx context.Context, subject, entryID string) (*Entry, error)
}

// Verifier resolves a bearer authorization header value to a stable subject
// identifier. Any failure is reported as ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (string, error)
}

// Transcoder synthesizes a video file from a still image and an audio track.
// Implementations read the inputs from local paths and write the result to
// outputPath.
type Transcoder interface {
	Synthesize(ctx context.Context, imagePath, audioPath, outputPath string) error
}
