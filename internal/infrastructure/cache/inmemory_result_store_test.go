package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryResultStore_GetSet(t *testing.T) {
	store := NewInMemoryResultStore()
	defer store.Close()

	ctx := context.Background()

	// miss
	v, ok, err := store.Get(ctx, "forecast:abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)

	require.NoError(t, store.Set(ctx, "forecast:abc", []byte(`{"horizon":30}`), time.Minute))

	v, ok, err = store.Get(ctx, "forecast:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"horizon":30}`, string(v))
}

func TestInMemoryResultStore_CopiesValue(t *testing.T) {
	store := NewInMemoryResultStore()
	defer store.Close()

	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(v))
}

func TestInMemoryResultStore_Expiry(t *testing.T) {
	store := NewInMemoryResultStore()
	defer store.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte("2"), time.Hour))

	now = now.Add(2 * time.Minute)

	_, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should be a miss")

	_, ok, err = store.Get(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 2, store.Size())
	store.cleanup()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryResultStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryResultStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
