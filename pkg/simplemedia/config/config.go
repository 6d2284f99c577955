// Package config loads server configuration from the environment and builds
// a fully wired simplemedia.Service from it.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/auth"
	filestore "github.com/tendant/simple-media/pkg/simplemedia/entrystore/file"
	objectstore "github.com/tendant/simple-media/pkg/simplemedia/entrystore/object"
	pgstore "github.com/tendant/simple-media/pkg/simplemedia/entrystore/postgres"
	"github.com/tendant/simple-media/pkg/simplemedia/objectkey"
	fsstorage "github.com/tendant/simple-media/pkg/simplemedia/storage/fs"
	memorystorage "github.com/tendant/simple-media/pkg/simplemedia/storage/memory"
	s3storage "github.com/tendant/simple-media/pkg/simplemedia/storage/s3"
	"github.com/tendant/simple-media/pkg/simplemedia/transcode"
)

// ServerConfig represents server configuration for the simple-media service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Identity provider
	AuthBaseURL  string `env:"AUTH_BASE_URL"`
	AuthAudience string `env:"AUTH_AUDIENCE"` // empty keeps audience validation off

	// Entry persistence: "file" (shared local file), "object" (one object
	// per subject in the blob store) or "postgres"
	EntryStore  string `env:"ENTRY_STORE" env-default:"file"`
	EntriesFile string `env:"ENTRIES_FILE" env-default:"entries.json"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Blob storage: "memory", "fs" or "s3"
	StorageBackend string `env:"STORAGE_BACKEND" env-default:"memory"`
	FSBaseDir      string `env:"FS_BASE_DIR" env-default:"./data/storage"`
	FSURLPrefix    string `env:"FS_URL_PREFIX"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3CreateBucket    bool   `env:"S3_CREATE_BUCKET_IF_NOT_EXIST" env-default:"false"`

	// Transcoding
	FFmpegPath string `env:"FFMPEG_PATH" env-default:"ffmpeg"`

	// Allowed cross-origin request sources
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Load reads the server configuration from environment variables
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.AuthBaseURL == "" {
		return errors.New("AUTH_BASE_URL is required")
	}

	switch c.EntryStore {
	case "file":
		if c.EntriesFile == "" {
			return errors.New("ENTRIES_FILE is required for the file entry store")
		}
	case "object":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres entry store")
		}
	default:
		return fmt.Errorf("entry store must be 'file', 'object' or 'postgres', got %q", c.EntryStore)
	}

	switch c.StorageBackend {
	case "memory", "fs":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("storage backend must be 'memory', 'fs' or 's3', got %q", c.StorageBackend)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (simplemedia.Service, error) {
	blobs, err := c.buildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	keys := objectkey.NewSubjectScopedGenerator()

	entries, err := c.buildEntryStore(ctx, blobs, keys, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build entry store: %w", err)
	}

	verifier, err := auth.NewVerifier(auth.Config{
		BaseURL:  c.AuthBaseURL,
		Audience: c.AuthAudience,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build verifier: %w", err)
	}

	pipeline, err := simplemedia.NewPipeline(blobs, transcode.NewFFmpeg(c.FFmpegPath), keys, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	return simplemedia.New(
		simplemedia.WithVerifier(verifier),
		simplemedia.WithPipeline(pipeline),
		simplemedia.WithEntryStore(entries),
		simplemedia.WithBlobStore(blobs),
		simplemedia.WithLogger(logger),
	)
}

// buildBlobStore creates a BlobStore based on the configuration
func (c *ServerConfig) buildBlobStore() (simplemedia.BlobStore, error) {
	switch c.StorageBackend {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.FSBaseDir,
			URLPrefix: c.FSURLPrefix,
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3Region,
			Bucket:                 c.S3Bucket,
			AccessKeyID:            c.S3AccessKeyID,
			SecretAccessKey:        c.S3SecretAccessKey,
			Endpoint:               c.S3Endpoint,
			UsePathStyle:           c.S3UsePathStyle,
			CreateBucketIfNotExist: c.S3CreateBucket,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", c.StorageBackend)
	}
}

// buildEntryStore creates an EntryStore based on the configuration
func (c *ServerConfig) buildEntryStore(ctx context.Context, blobs simplemedia.BlobStore, keys objectkey.Generator, logger *slog.Logger) (simplemedia.EntryStore, error) {
	switch c.EntryStore {
	case "file":
		return filestore.New(c.EntriesFile, logger)

	case "object":
		return objectstore.New(blobs, keys)

	case "postgres":
		store, err := pgstore.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported entry store: %s", c.EntryStore)
	}
}
