package simplemedia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-media/pkg/simplemedia/objectkey"
)

// videoExtensions is the allow-list of container extensions treated as
// already-video uploads.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
	".m4v":  true,
}

// Pipeline decides, per upload, whether to store the submitted file as-is or
// to synthesize a video from an image and an audio clip, and produces the
// final durable media locator.
type Pipeline struct {
	blobs      BlobStore
	transcoder Transcoder
	keys       objectkey.Generator
	logger     *slog.Logger
}

// NewPipeline creates a media pipeline. A nil transcoder disables the
// synthesis path (audio uploads then fail with ErrTranscodeFailed).
func NewPipeline(blobs BlobStore, transcoder Transcoder, keys objectkey.Generator, logger *slog.Logger) (*Pipeline, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if keys == nil {
		keys = objectkey.NewSubjectScopedGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{blobs: blobs, transcoder: transcoder, keys: keys, logger: logger}, nil
}

// Process stores the upload's media and returns its durable locator.
//
// Direct path: no audio supplied, or the primary file already denotes a
// video container. Exactly one object is written.
//
// Synthesis path: the audio clip is stored unmodified for traceability,
// then image and audio are combined into one video, which becomes the
// entry's media. A failed synthesis leaves the audio object behind; no
// cleanup is attempted.
func (p *Pipeline) Process(ctx context.Context, subject string, req UploadRequest) (string, error) {
	if req.Primary == nil || req.Primary.Data == nil {
		return "", ErrNoFile
	}

	if req.Audio == nil || isVideo(req.Primary.Name) {
		return p.storeDirect(ctx, subject, req.Primary)
	}
	return p.synthesize(ctx, subject, req.Primary, req.Audio)
}

func (p *Pipeline) storeDirect(ctx context.Context, subject string, primary *File) (string, error) {
	key := p.keys.MediaKey(subject, primary.Name)
	if err := p.blobs.Upload(ctx, key, primary.Data, primary.ContentType); err != nil {
		return "", err
	}
	p.logger.Debug("stored media directly", "subject", subject, "key", key)
	return p.blobs.URL(key), nil
}

func (p *Pipeline) synthesize(ctx context.Context, subject string, image, audio *File) (string, error) {
	if p.transcoder == nil {
		return "", fmt.Errorf("%w: no transcoder configured", ErrTranscodeFailed)
	}

	// Scratch files live for exactly one invocation, success or failure.
	scratch, err := os.MkdirTemp("", "simplemedia-synth-")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	imagePath, err := writeScratch(scratch, "image", image)
	if err != nil {
		return "", err
	}
	audioPath, err := writeScratch(scratch, "audio", audio)
	if err != nil {
		return "", err
	}

	// The standalone audio object is kept for traceability even when the
	// synthesis below fails.
	audioFile, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to reopen audio scratch file: %w", err)
	}
	audioKey := p.keys.MediaKey(subject, audio.Name)
	uploadErr := p.blobs.Upload(ctx, audioKey, audioFile, audio.ContentType)
	audioFile.Close()
	if uploadErr != nil {
		return "", uploadErr
	}
	p.logger.Debug("stored audio track", "subject", subject, "key", audioKey)

	outputPath := filepath.Join(scratch, "output.mp4")
	if err := p.transcoder.Synthesize(ctx, imagePath, audioPath, outputPath); err != nil {
		p.logger.Error("video synthesis failed", "subject", subject, "error", err)
		if !errors.Is(err, ErrTranscodeFailed) {
			return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
		}
		return "", err
	}

	video, err := os.Open(outputPath)
	if err != nil {
		return "", fmt.Errorf("%w: synthesized video missing: %v", ErrTranscodeFailed, err)
	}
	defer video.Close()

	videoKey := p.keys.MediaKey(subject, "output.mp4")
	if err := p.blobs.Upload(ctx, videoKey, video, "video/mp4"); err != nil {
		return "", err
	}
	p.logger.Debug("stored synthesized video", "subject", subject, "key", videoKey)
	return p.blobs.URL(videoKey), nil
}

// writeScratch copies an upload stream into the scratch directory, keeping
// the original extension for the transcoder's format detection.
func writeScratch(dir, stem string, f *File) (string, error) {
	path := filepath.Join(dir, stem+strings.ToLower(filepath.Ext(f.Name)))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer out.Close()

	if _, err := out.ReadFrom(f.Data); err != nil {
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	return path, nil
}

// isVideo reports whether the filename's extension denotes a video container
func isVideo(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}
