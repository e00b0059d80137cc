package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put get roundtrip", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a/one", []byte("first")))

		got, err := store.Get(ctx, "a/one")
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), got)
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a/one", []byte("second")))

		got, err := store.Get(ctx, "a/one")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("list by prefix", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a/two", []byte("x")))
		require.NoError(t, store.Put(ctx, "b/one", []byte("y")))

		names, err := store.List(ctx, "a/")
		require.NoError(t, err)
		assert.Equal(t, []string{"a/one", "a/two"}, names)

		all, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a/one", "a/two", "b/one"}, all)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "a/one"))

		_, err := store.Get(ctx, "a/one")
		require.ErrorIs(t, err, ErrNotFound)

		// Deleting again is fine.
		require.NoError(t, store.Delete(ctx, "a/one"))
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	testStore(t, store)
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}
