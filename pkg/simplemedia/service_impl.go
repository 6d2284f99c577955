package simplemedia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	verifier Verifier
	pipeline *Pipeline
	entries  EntryStore
	blobs    BlobStore
	logger   *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithVerifier sets the identity verifier for the service
func WithVerifier(v Verifier) Option {
	return func(s *service) {
		s.verifier = v
	}
}

// WithPipeline sets the media pipeline for the service
func WithPipeline(p *Pipeline) Option {
	return func(s *service) {
		s.pipeline = p
	}
}

// WithEntryStore sets the entry store for the service
func WithEntryStore(store EntryStore) Option {
	return func(s *service) {
		s.entries = store
	}
}

// WithBlobStore sets the blob store used for best-effort media deletion
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if s.pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if s.entries == nil {
		return nil, fmt.Errorf("entry store is required")
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) Upload(ctx context.Context, authorization string, req UploadRequest) (*Entry, error) {
	subject, err := s.verifier.Verify(ctx, authorization)
	if err != nil {
		return nil, err
	}

	mediaURL, err := s.pipeline.Process(ctx, subject, req)
	if err != nil {
		s.logger.Error("media processing failed", "subject", subject, "error", err)
		return nil, err
	}

	entry := Entry{
		ID:        uuid.New().String(),
		MediaURL:  mediaURL,
		Caption:   req.Caption,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.entries.Append(ctx, subject, entry); err != nil {
		s.logger.Error("entry append failed", "subject", subject, "entry_id", entry.ID, "error", err)
		return nil, err
	}

	s.logger.Info("entry created", "subject", subject, "entry_id", entry.ID)
	return &entry, nil
}

func (s *service) ListEntries(ctx context.Context, authorization string) ([]Entry, error) {
	subject, err := s.verifier.Verify(ctx, authorization)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.List(ctx, subject)
	if err != nil {
		s.logger.Error("entry list failed", "subject", subject, "error", err)
		return nil, err
	}
	return entries, nil
}

func (s *service) DeleteEntry(ctx context.Context, authorization string, entryID string) error {
	subject, err := s.verifier.Verify(ctx, authorization)
	if err != nil {
		return err
	}

	removed, err := s.entries.Remove(ctx, subject, entryID)
	if err != nil {
		if !errors.Is(err, ErrEntryNotFound) {
			s.logger.Error("entry removal failed", "subject", subject, "entry_id", entryID, "error", err)
		}
		return err
	}

	// The metadata removal already succeeded and is not rolled back; the
	// media object delete is best effort and its failure is only logged.
	mediaObject := "deleted"
	if key, ok := s.blobs.ResolveKey(removed.MediaURL); ok {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Error("best-effort media delete failed",
				"subject", subject, "entry_id", entryID, "key", key, "error", err)
			mediaObject = "delete_failed"
		}
	} else {
		s.logger.Warn("media locator not resolvable to a key, skipping delete",
			"subject", subject, "entry_id", entryID, "media_url", removed.MediaURL)
		mediaObject = "unresolvable"
	}

	s.logger.Info("entry deleted",
		"subject", subject, "entry_id", entryID, "media_object", mediaObject)
	return nil
}
