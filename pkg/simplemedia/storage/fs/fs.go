package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Backend is a filesystem implementation of the simplemedia.BlobStore
// interface.
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Optional URL prefix for durable locators
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: strings.TrimSuffix(config.URLPrefix, "/"),
	}, nil
}

// Upload writes the blob under the base directory
func (b *Backend) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	filePath := filepath.Join(b.baseDir, key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return &simplemedia.StorageError{Backend: "fs", Key: key, Op: "upload",
			Err: fmt.Errorf("%w: %v", simplemedia.ErrStoreUnavailable, err)}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return &simplemedia.StorageError{Backend: "fs", Key: key, Op: "upload",
			Err: fmt.Errorf("%w: %v", simplemedia.ErrStoreUnavailable, err)}
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return &simplemedia.StorageError{Backend: "fs", Key: key, Op: "upload",
			Err: fmt.Errorf("%w: %v", simplemedia.ErrStoreUnavailable, err)}
	}

	return nil
}

// Download opens the blob stored at key
func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(b.baseDir, key))
	if os.IsNotExist(err) {
		return nil, simplemedia.ErrObjectNotFound
	} else if err != nil {
		return nil, &simplemedia.StorageError{Backend: "fs", Key: key, Op: "download",
			Err: fmt.Errorf("%w: %v", simplemedia.ErrStoreUnavailable, err)}
	}

	return file, nil
}

// Delete removes the blob stored at key
func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath := filepath.Join(b.baseDir, key)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return simplemedia.ErrObjectNotFound
	}

	if err := os.Remove(filePath); err != nil {
		return &simplemedia.StorageError{Backend: "fs", Key: key, Op: "delete",
			Err: fmt.Errorf("%w: %v", simplemedia.ErrStoreUnavailable, err)}
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// URL returns the durable locator for a key. With a URL prefix configured
// the locator is externally resolvable; otherwise it is a file:// path.
func (b *Backend) URL(key string) string {
	if b.urlPrefix != "" {
		return fmt.Sprintf("%s/%s", b.urlPrefix, key)
	}
	return "file://" + filepath.Join(b.baseDir, key)
}

// ResolveKey maps a locator produced by URL back to its key
func (b *Backend) ResolveKey(rawURL string) (string, bool) {
	if b.urlPrefix != "" {
		if key, ok := strings.CutPrefix(rawURL, b.urlPrefix+"/"); ok && key != "" {
			return key, true
		}
		return "", false
	}
	prefix := "file://" + b.baseDir
	if key, ok := strings.CutPrefix(rawURL, prefix); ok {
		key = strings.TrimPrefix(key, string(filepath.Separator))
		if key != "" {
			return key, true
		}
	}
	return "", false
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
