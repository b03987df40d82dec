package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemoryStore(clock *fakeClock, max int) *MemoryStore {
	return NewMemoryStore(MemoryOptions{
		TTL:        30 * time.Minute,
		MaxEntries: max,
		Now:        clock.Now,
		Logger:     zerolog.Nop(),
	})
}

func TestMemoryStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(newFakeClock(), 0)
	defer store.Close()

	id := store.Create(ctx, Payload{"call_id": "CA1", "a": 0})
	require.NotEmpty(t, id)

	got, ok := store.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, Payload{"call_id": "CA1", "a": 0}, got)
	assert.Equal(t, 1, store.Count(ctx))
}

func TestMemoryStore_ExpiresLazily(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestMemoryStore(clock, 0)
	defer store.Close()

	id := store.Create(ctx, Payload{"a": 1})
	clock.Advance(30*time.Minute + time.Second)

	assert.Equal(t, 0, store.Count(ctx))
	_, ok := store.Get(ctx, id)
	assert.False(t, ok)

	store.mu.Lock()
	_, present := store.entries[id]
	store.mu.Unlock()
	assert.False(t, present, "expired read must remove the entry")
}

func TestMemoryStore_UpdateMergesAndSlides(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestMemoryStore(clock, 0)
	defer store.Close()

	id := store.Create(ctx, Payload{"a": 0, "b": 2})
	clock.Advance(20 * time.Minute)

	require.True(t, store.Update(ctx, id, Payload{"a": 1}))
	clock.Advance(20 * time.Minute)

	got, ok := store.Get(ctx, id)
	require.True(t, ok, "update must reset expiry")
	assert.Equal(t, Payload{"a": 1, "b": 2}, got)
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	store := newTestMemoryStore(newFakeClock(), 0)
	defer store.Close()

	assert.False(t, store.Update(context.Background(), "nope", Payload{"a": 1}))
}

func TestMemoryStore_RemoveAndSweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestMemoryStore(clock, 0)
	defer store.Close()

	keep := store.Create(ctx, Payload{})
	gone := store.Create(ctx, Payload{})
	stale := store.Create(ctx, Payload{})

	store.Remove(ctx, gone)
	clock.Advance(25 * time.Minute)
	store.Update(ctx, keep, Payload{"x": true})
	clock.Advance(10 * time.Minute)

	assert.Equal(t, 1, store.Sweep(ctx))
	_, ok := store.Get(ctx, stale)
	assert.False(t, ok)
	_, ok = store.Get(ctx, keep)
	assert.True(t, ok)
	assert.Equal(t, 1, store.Count(ctx))
}

func TestMemoryStore_EvictsClosestToExpiryWhenFull(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestMemoryStore(clock, 2)
	defer store.Close()

	first := store.Create(ctx, Payload{"n": 1})
	clock.Advance(time.Minute)
	second := store.Create(ctx, Payload{"n": 2})
	clock.Advance(time.Minute)
	third := store.Create(ctx, Payload{"n": 3})

	_, ok := store.Get(ctx, first)
	assert.False(t, ok)
	_, ok = store.Get(ctx, second)
	assert.True(t, ok)
	_, ok = store.Get(ctx, third)
	assert.True(t, ok)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(newFakeClock(), 0)
	defer store.Close()

	id := store.Create(ctx, Payload{"a": 1})
	got, _ := store.Get(ctx, id)
	got["a"] = 99

	again, _ := store.Get(ctx, id)
	assert.Equal(t, 1, again["a"])
}

func TestMemoryStore_TimerEviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(MemoryOptions{TTL: 20 * time.Millisecond, Logger: zerolog.Nop()})
	defer store.Close()

	id := store.Create(ctx, Payload{})
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, ok := store.entries[id]
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestDecode(t *testing.T) {
	type draft struct {
		Stage string `json:"stage"`
		Polls int    `json:"polls"`
	}
	p := Payload{"quotation": draft{Stage: "origin", Polls: 2}}

	var got draft
	require.NoError(t, Decode(p, "quotation", &got))
	assert.Equal(t, draft{Stage: "origin", Polls: 2}, got)

	generic := Payload{"quotation": map[string]any{"stage": "vehicle", "polls": float64(4)}}
	require.NoError(t, Decode(generic, "quotation", &got))
	assert.Equal(t, draft{Stage: "vehicle", Polls: 4}, got)

	assert.ErrorIs(t, Decode(p, "record", &got), ErrMissingKey)
}

func TestMemoryStore_UpdateIf(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(newFakeClock(), 0)
	defer store.Close()

	id := store.Create(ctx, Payload{"step": 1})
	onStep := func(want int) UpdateFunc {
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
	assert.Equal(t, 2, got["step"])
	assert.False(t, store.UpdateIf(ctx, "missing", onStep(1)))
}
