package object_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/entrystore/object"
	"github.com/tendant/simple-media/pkg/simplemedia/objectkey"
	memorystorage "github.com/tendant/simple-media/pkg/simplemedia/storage/memory"
)

func newStore(t *testing.T) (*object.Store, *memorystorage.Backend) {
	t.Helper()
	blobs := memorystorage.New()
	store, err := object.New(blobs, nil)
	require.NoError(t, err)
	return store, blobs
}

func entry(id, caption string) simplemedia.Entry {
	return simplemedia.Entry{
		ID:        id,
		MediaURL:  "memory://user_uploads/u1/" + id + ".mp4",
		Caption:   caption,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestObjectStore_EmptyWithoutObject(t *testing.T) {
	store, _ := newStore(t)

	entries, err := store.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestObjectStore_AppendAndList(t *testing.T) {
	store, blobs := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "u1", entry("id-1", "first")))
	require.NoError(t, store.Append(ctx, "u1", entry("id-2", "second")))
	require.NoError(t, store.Append(ctx, "u2", entry("id-3", "other subject")))

	entries, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "id-1", entries[0].ID)
	assert.Equal(t, "id-2", entries[1].ID)
	assert.True(t, entries[0].CreatedAt.Equal(entries[1].CreatedAt))

	other, err := store.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "id-3", other[0].ID)

	// The collection lives at the subject-scoped entries key
	keys := objectkey.NewSubjectScopedGenerator()
	rc, err := blobs.Download(ctx, keys.EntriesKey("u1"))
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id-1"`)
}

func TestObjectStore_Remove(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "u1", entry("id-1", "a")))
	require.NoError(t, store.Append(ctx, "u1", entry("id-2", "b")))

	removed, err := store.Remove(ctx, "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", removed.ID)
	assert.Equal(t, "a", removed.Caption)

	entries, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "id-2", entries[0].ID)

	_, err = store.Remove(ctx, "u1", "id-1")
	assert.ErrorIs(t, err, simplemedia.ErrEntryNotFound)

	_, err = store.Remove(ctx, "u2", "id-2")
	assert.ErrorIs(t, err, simplemedia.ErrEntryNotFound)
}

func TestObjectStore_RequiresBlobStore(t *testing.T) {
	_, err := object.New(nil, nil)
	assert.Error(t, err)
}
