package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, RedisOptions{
		KeyPrefix: "test:session:",
		TTL:       30 * time.Minute,
		Logger:    zerolog.Nop(),
	})
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	id := store.Create(ctx, Payload{"call_id": "CA1"})
	require.True(t, mr.Exists("test:session:"+id))
	assert.Equal(t, 30*time.Minute, mr.TTL("test:session:"+id))

	got, ok := store.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "CA1", got["call_id"])
	assert.Equal(t, 1, store.Count(ctx))
}

func TestRedisStore_ExpiresNatively(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	id := store.Create(ctx, Payload{"a": 1})
	mr.FastForward(31 * time.Minute)

	_, ok := store.Get(ctx, id)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Count(ctx))
}

func TestRedisStore_UpdateMergesAndSlides(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	id := store.Create(ctx, Payload{"a": 0, "b": 2})
	mr.FastForward(20 * time.Minute)

	require.True(t, store.Update(ctx, id, Payload{"a": 1}))
	assert.Equal(t, 30*time.Minute, mr.TTL("test:session:"+id))

	got, ok := store.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, Payload{"a": float64(1), "b": float64(2)}, got)
}

func TestRedisStore_UpdateNeverRecreates(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	id := store.Create(ctx, Payload{"a": 0})
	store.Remove(ctx, id)

	assert.False(t, store.Update(ctx, id, Payload{"a": 1}))
	assert.False(t, mr.Exists("test:session:"+id))
}

func TestRedisStore_FailsOpen(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	id := store.Create(ctx, Payload{"a": 0})
	mr.Close()

	_, ok := store.Get(ctx, id)
	assert.False(t, ok)
	assert.False(t, store.Update(ctx, id, Payload{"a": 1}))
	assert.Equal(t, 0, store.Count(ctx))
	assert.NotPanics(t, func() {
		store.Remove(ctx, id)
		store.Create(ctx, Payload{})
		store.Sweep(ctx)
	})
}

func TestRedisStore_SweepRepairsMissingTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	id := store.Create(ctx, Payload{})
	require.NoError(t, store.client.Persist(ctx, "test:session:"+id).Err())
	require.Equal(t, time.Duration(0), mr.TTL("test:session:"+id))

	assert.Equal(t, 0, store.Sweep(ctx))
	assert.Greater(t, mr.TTL("test:session:"+id), time.Duration(0))
}

func TestRedisStore_UpdateIf(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	id := store.Create(ctx, Payload{"step": 1})
	onStep := func(want float64) UpdateFunc {
		return func(current Payload) (Payload, bool) {
			if current["step"] != want {
				return nil, false
			}
			return Payload{"step": want + 1}, true
		}
	}

	assert.False(t, store.UpdateIf(ctx, id, onStep(2)))
	assert.True(t, store.UpdateIf(ctx, id, onStep(1)))
	assert.False(t, store.UpdateIf(ctx, id, onStep(1)))

	got, ok := store.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, float64(2), got["step"])
	assert.False(t, store.UpdateIf(ctx, "missing", onStep(1)))
}
