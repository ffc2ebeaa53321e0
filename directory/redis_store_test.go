package directory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	config := DefaultRedisConfig()
	config.Addr = mr.Addr()

	store, err := NewRedisStore(config)
	require.NoError(t, err)

	return mr, store
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	mr, store := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, []byte(`{"a":{"agent_id":"a","name":"A"}}`)))

	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"agent_id":"a"`)
}

func TestRedisStore_DirectoryRoundTrip(t *testing.T) {
	mr, store := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	src := New(nil)
	require.NoError(t, src.Register(testCard("researcher", "web_search", "data_analysis")))
	require.NoError(t, Save(ctx, src, store))

	dst := New(nil)
	require.NoError(t, Restore(ctx, dst, store))

	got, ok := dst.Get("researcher")
	require.True(t, ok)
	assert.Equal(t, []string{"web_search", "data_analysis"}, got.Capabilities)
}

func TestRedisStore_RestoreEmptyIsNoop(t *testing.T) {
	mr, store := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	d := New(nil)
	require.NoError(t, Restore(context.Background(), d, store))
	assert.Equal(t, 0, d.Len())
}
