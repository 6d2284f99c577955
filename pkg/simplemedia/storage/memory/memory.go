package memory

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

const urlScheme = "memory://"

// Backend is an in-memory implementation of the simplemedia.BlobStore
// interface, used by tests and local development.
type Backend struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Upload stores the blob in memory
func (b *Backend) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return &simplemedia.StorageError{Backend: "memory", Key: key, Op: "upload", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = data
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.contentTypes[key] = contentType
	return nil
}

// Download returns the blob stored at key
func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[key]
	if !exists {
		return nil, simplemedia.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the blob stored at key
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; !exists {
		return simplemedia.ErrObjectNotFound
	}

	delete(b.objects, key)
	delete(b.contentTypes, key)
	return nil
}

// URL returns a memory:// locator for the key
func (b *Backend) URL(key string) string {
	return urlScheme + key
}

// ResolveKey maps a memory:// locator back to its key
func (b *Backend) ResolveKey(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, urlScheme)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// ContentType reports the stored content type for a key, for tests
func (b *Backend) ContentType(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ct, ok := b.contentTypes[key]
	return ct, ok
}
