package simplemedia_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
	filestore "github.com/tendant/simple-media/pkg/simplemedia/entrystore/file"
	memorystorage "github.com/tendant/simple-media/pkg/simplemedia/storage/memory"
)

// staticVerifier resolves one fixed bearer token to one subject
type staticVerifier struct {
	token   string
	subject string
}

func (v *staticVerifier) Verify(ctx context.Context, authorization string) (string, error) {
	if strings.TrimPrefix(authorization, "Bearer ") == v.token {
		return v.subject, nil
	}
	return "", simplemedia.ErrUnauthorized
}

// fakeTranscoder writes a fixed payload to the output path, or fails
type fakeTranscoder struct {
	fail   bool
	output []byte
}

func (f *fakeTranscoder) Synthesize(ctx context.Context, imagePath, audioPath, outputPath string) error {
	if f.fail {
		return fmt.Errorf("%w: exit status 1", simplemedia.ErrTranscodeFailed)
	}
	if _, err := os.Stat(imagePath); err != nil {
		return fmt.Errorf("image input missing: %w", err)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("audio input missing: %w", err)
	}
	out := f.output
	if out == nil {
		out = []byte("synthesized-video")
	}
	return os.WriteFile(outputPath, out, 0644)
}

type testEnv struct {
	svc   simplemedia.Service
	blobs *memorystorage.Backend
}

const (
	testToken   = "valid-token"
	testAuthz   = "Bearer " + testToken
	testSubject = "user_2abc"
)

func setupTestService(t *testing.T, tc simplemedia.Transcoder) testEnv {
	t.Helper()

	blobs := memorystorage.New()
	entries, err := filestore.New(filepath.Join(t.TempDir(), "entries.json"), nil)
	require.NoError(t, err)

	pipeline, err := simplemedia.NewPipeline(blobs, tc, nil, nil)
	require.NoError(t, err)

	svc, err := simplemedia.New(
		simplemedia.WithVerifier(&staticVerifier{token: testToken, subject: testSubject}),
		simplemedia.WithPipeline(pipeline),
		simplemedia.WithEntryStore(entries),
		simplemedia.WithBlobStore(blobs),
	)
	require.NoError(t, err)

	return testEnv{svc: svc, blobs: blobs}
}

func uploadVideo(t *testing.T, env testEnv, caption string) *simplemedia.Entry {
	t.Helper()
	entry, err := env.svc.Upload(context.Background(), testAuthz, simplemedia.UploadRequest{
		Primary: &simplemedia.File{
			Name:        "clip.mp4",
			ContentType: "video/mp4",
			Data:        strings.NewReader("video-bytes-" + caption),
		},
		Caption: caption,
	})
	require.NoError(t, err)
	return entry
}

func TestServiceCreation(t *testing.T) {
	blobs := memorystorage.New()
	entries, err := filestore.New(filepath.Join(t.TempDir(), "entries.json"), nil)
	require.NoError(t, err)
	pipeline, err := simplemedia.NewPipeline(blobs, &fakeTranscoder{}, nil, nil)
	require.NoError(t, err)
	verifier := &staticVerifier{token: testToken, subject: testSubject}

	tests := []struct {
		name        string
		options     []simplemedia.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []simplemedia.Option{},
			expectError: true,
		},
		{
			name: "missing entry store should fail",
			options: []simplemedia.Option{
				simplemedia.WithVerifier(verifier),
				simplemedia.WithPipeline(pipeline),
				simplemedia.WithBlobStore(blobs),
			},
			expectError: true,
		},
		{
			name: "all collaborators should succeed",
			options: []simplemedia.Option{
				simplemedia.WithVerifier(verifier),
				simplemedia.WithPipeline(pipeline),
				simplemedia.WithEntryStore(entries),
				simplemedia.WithBlobStore(blobs),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := simplemedia.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestService_Unauthorized(t *testing.T) {
	env := setupTestService(t, &fakeTranscoder{})
	ctx := context.Background()

	_, err := env.svc.Upload(ctx, "Bearer wrong", simplemedia.UploadRequest{
		Primary: &simplemedia.File{Name: "a.mp4", Data: strings.NewReader("x")},
	})
	assert.ErrorIs(t, err, simplemedia.ErrUnauthorized)

	_, err = env.svc.ListEntries(ctx, "")
	assert.ErrorIs(t, err, simplemedia.ErrUnauthorized)

	err = env.svc.DeleteEntry(ctx, "Bearer wrong", "some-id")
	assert.ErrorIs(t, err, simplemedia.ErrUnauthorized)
}

func TestService_ListEmptyForNewSubject(t *testing.T) {
	env := setupTestService(t, &fakeTranscoder{})

	entries, err := env.svc.ListEntries(context.Background(), testAuthz)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_AppendThenListPreservesOrder(t *testing.T) {
	env := setupTestService(t, &fakeTranscoder{})
	ctx := context.Background()

	var created []string
	for i := 0; i < 5; i++ {
		entry := uploadVideo(t, env, fmt.Sprintf("caption-%d", i))
		created = append(created, entry.ID)
	}

	entries, err := env.svc.ListEntries(ctx, testAuthz)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, created[i], e.ID)
		assert.Equal(t, fmt.Sprintf("caption-%d", i), e.Caption)
		assert.False(t, e.CreatedAt.IsZero())
	}

	// Idempotent listing
	again, err := env.svc.ListEntries(ctx, testAuthz)
	require.NoError(t, err)
	assert.Equal(t, entries, again)
}

func TestService_UploadMissingFile(t *testing.T) {
	env := setupTestService(t, &fakeTranscoder{})

	_, err := env.svc.Upload(context.Background(), testAuthz, simplemedia.UploadRequest{})
	assert.ErrorIs(t, err, simplemedia.ErrNoFile)

	entries, err := env.svc.ListEntries(context.Background(), testAuthz)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_DeleteRoundTrip(t *testing.T) {
	env := setupTestService(t, &fakeTranscoder{})
	ctx := context.Background()

	first := uploadVideo(t, env, "keep")
	second := uploadVideo(t, env, "remove")

	// The media object exists before the delete
	key, ok := env.blobs.ResolveKey(second.MediaURL)
	require.True(t, ok)
	_, err := env.blobs.Download(ctx, key)
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteEntry(ctx, testAuthz, second.ID))

	entries, err := env.svc.ListEntries(ctx, testAuthz)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, first.ID, entries[0].ID)

	// The referenced blob was removed best-effort
	_, err = env.blobs.Download(ctx, key)
	assert.ErrorIs(t, err, simplemedia.ErrObjectNotFound)

	// A second delete of the same id reports not found
	err = env.svc.DeleteEntry(ctx, testAuthz, second.ID)
	assert.ErrorIs(t, err, simplemedia.ErrEntryNotFound)
}

func TestService_DeleteSurvivesMissingBlob(t *testing.T) {
	env := setupTestService(t, &fakeTranscoder{})
	ctx := context.Background()

	entry := uploadVideo(t, env, "orphan")

	key, ok := env.blobs.ResolveKey(entry.MediaURL)
	require.True(t, ok)
	require.NoError(t, env.blobs.Delete(ctx, key))

	// Metadata removal wins even when the blob delete cannot succeed
	require.NoError(t, env.svc.DeleteEntry(ctx, testAuthz, entry.ID))

	entries, err := env.svc.ListEntries(ctx, testAuthz)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_DeleteLogsMediaObjectOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	blobs := memorystorage.New()
	entries, err := filestore.New(filepath.Join(t.TempDir(), "entries.json"), nil)
	require.NoError(t, err)
	pipeline, err := simplemedia.NewPipeline(blobs, &fakeTranscoder{}, nil, nil)
	require.NoError(t, err)
	svc, err := simplemedia.New(
		simplemedia.WithVerifier(&staticVerifier{token: testToken, subject: testSubject}),
		simplemedia.WithPipeline(pipeline),
		simplemedia.WithEntryStore(entries),
		simplemedia.WithBlobStore(blobs),
		simplemedia.WithLogger(logger),
	)
	require.NoError(t, err)
	env := testEnv{svc: svc, blobs: blobs}

	first := uploadVideo(t, env, "clean")
	second := uploadVideo(t, env, "orphan")

	buf.Reset()
	require.NoError(t, svc.DeleteEntry(context.Background(), testAuthz, first.ID))
	assert.Contains(t, buf.String(), "entry deleted")
	assert.Contains(t, buf.String(), "media_object=deleted")

	// With the blob already gone, the same log line records the failure
	key, ok := blobs.ResolveKey(second.MediaURL)
	require.True(t, ok)
	require.NoError(t, blobs.Delete(context.Background(), key))

	buf.Reset()
	require.NoError(t, svc.DeleteEntry(context.Background(), testAuthz, second.ID))
	assert.Contains(t, buf.String(), "media_object=delete_failed")
}

func TestService_SynthesisFailureCreatesNoEntry(t *testing.T) {
	env := setupTestService(t, &fakeTranscoder{fail: true})
	ctx := context.Background()

	_, err := env.svc.Upload(ctx, testAuthz, simplemedia.UploadRequest{
		Primary: &simplemedia.File{Name: "still.png", ContentType: "image/png", Data: strings.NewReader("png")},
		Audio:   &simplemedia.File{Name: "track.mp3", ContentType: "audio/mpeg", Data: strings.NewReader("mp3")},
	})
	assert.ErrorIs(t, err, simplemedia.ErrTranscodeFailed)

	entries, err := env.svc.ListEntries(ctx, testAuthz)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
