package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(time.Hour)
	defer store.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "a", []byte("alpha"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("beta"), 10*time.Minute))

	value, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("alpha"), value)

	value[0] = 'X'
	value, _, _ = store.Get(ctx, "a")
	assert.Equal(t, []byte("alpha"), value)

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	store.evictExpired()
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "b"))
	assert.Equal(t, 0, store.Len())
}

func TestInMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryStore(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
