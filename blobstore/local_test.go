package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocal_PutGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "a/b/c.bin", []byte("hello")))

	got, err := store.Get(ctx, "a/b/c.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestLocal_GetMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(ctx, "missing.bin")
	require.Error(t, err)
}

func TestLocal_ExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "x.bin")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(ctx, "x.bin", []byte("data")))

	ok, err = store.Exists(ctx, "x.bin")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Delete(ctx, "x.bin"))

	ok, err = store.Exists(ctx, "x.bin")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx, "x.bin"))
}

func TestLocal_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "myindex/segments/seg-1/terms.bin", []byte("a")))
	require.NoError(t, store.Put(ctx, "myindex/segments/seg-2/terms.bin", []byte("b")))
	require.NoError(t, store.Put(ctx, "otherindex/manifest.json", []byte("c")))

	keys, err := store.List(ctx, "myindex/segments")
	require.NoError(t, err)
	require.Len(t, keys, 2)
}
