package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "applications/123/document.jpg", []byte("jpeg-bytes"), "image/jpeg"))

	data, err := store.Get(ctx, "applications/123/document.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg-bytes"), data)

	url, err := store.PresignGet(ctx, "applications/123/document.jpg", 15*time.Minute)
	require.NoError(t, err)
	require.Contains(t, url, "memory://applications/123/document.jpg")
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrObjectNotFound)

	_, err = store.PresignGet(ctx, "missing", time.Minute)
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStoreCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	src := []byte("original")
	require.NoError(t, store.Put(ctx, "k", src, "application/octet-stream"))
	src[0] = 'X'

	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("original"), data)
}
