package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBadgerStore(t *testing.T, options ...Option) *BadgerStore {
	t.Helper()
	store, err := Badger(append([]Option{InMemory(true)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()

	t.Run("requires dir for on-disk mode", func(t *testing.T) {
		_, err := Badger()
		require.EqualError(t, err, "cache: Dir is required for on-disk mode")
	})

	t.Run("set and get round trip", func(t *testing.T) {
		store := newBadgerStore(t)

		created := time.Now().Truncate(time.Second)
		entry := Entry{Content: "persistent answer", Model: "claude-3-5-haiku-latest", CreatedAt: created}
		require.NoError(t, store.Set(ctx, "k1", entry))

		got, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "persistent answer", got.Content)
		assert.Equal(t, "claude-3-5-haiku-latest", got.Model)
		assert.True(t, got.CreatedAt.Equal(created))
	})

	t.Run("miss", func(t *testing.T) {
		store := newBadgerStore(t)
		_, err := store.Get(ctx, "absent")
		require.ErrorIs(t, err, ErrMiss)
	})

	t.Run("entries expire", func(t *testing.T) {
		store := newBadgerStore(t, TTL(10*time.Millisecond))
		require.NoError(t, store.Set(ctx, "k1", Entry{Content: "short lived"}))

		require.Eventually(t, func() bool {
			_, err := store.Get(ctx, "k1")
			return err != nil
		}, time.Second, 10*time.Millisecond)

		_, err := store.Get(ctx, "k1")
		require.ErrorIs(t, err, ErrMiss)
	})

	t.Run("delete", func(t *testing.T) {
		store := newBadgerStore(t)
		require.NoError(t, store.Set(ctx, "k1", Entry{Content: "x"}))
		require.NoError(t, store.Delete(ctx, "k1"))
		_, err := store.Get(ctx, "k1")
		require.ErrorIs(t, err, ErrMiss)

		// deleting again is fine
		require.NoError(t, store.Delete(ctx, "k1"))
	})

	t.Run("on disk", func(t *testing.T) {
		store, err := Badger(Dir(t.TempDir()))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })

		require.NoError(t, store.Set(ctx, "k1", Entry{Content: "disk"}))
		got, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "disk", got.Content)
	})
}
