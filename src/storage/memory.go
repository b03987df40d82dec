package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MemoryOptions configures a MemoryStore. Zero values take the defaults.
type MemoryOptions struct {
	TTL        time.Duration
	MaxEntries int
	Now        func() time.Time
	Logger     zerolog.Logger
}

type memoryEntry struct {
	session Session
	timer   *time.Timer
}

// MemoryStore is the in-process backend: a bounded map with a timer per entry
// plus lazy eviction on read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	max     int
	now     func() time.Time
	log     zerolog.Logger
	closed  bool
}

func NewMemoryStore(opts MemoryOptions) *MemoryStore {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     opts.TTL,
		max:     opts.MaxEntries,
		now:     opts.Now,
		log:     opts.Logger,
	}
}

func (m *MemoryStore) Backend() string { return "memory" }

func (m *MemoryStore) Create(ctx context.Context, payload Payload) string {
	id := uuid.NewString()
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return id
	}
	if len(m.entries) >= m.max {
		m.sweepLocked(now)
	}
	if len(m.entries) >= m.max {
		m.evictOldestLocked()
	}

	e := &memoryEntry{session: Session{
		ID:        id,
		Payload:   clone(payload),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		TTL:       m.ttl,
	}}
	e.timer = time.AfterFunc(m.ttl, func() { m.expire(id, e) })
	m.entries[id] = e
	return id
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	if e.session.Expired(m.now()) {
		m.removeLocked(id)
		return nil, false
	}
	return clone(e.session.Payload), true
}

func (m *MemoryStore) Update(ctx context.Context, id string, partial Payload) bool {
	return m.UpdateIf(ctx, id, func(Payload) (Payload, bool) { return partial, true })
}

// UpdateIf calls fn with the entry locked, so no other writer can land
// between its check and the write.
func (m *MemoryStore) UpdateIf(ctx context.Context, id string, fn UpdateFunc) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	now := m.now()
	if e.session.Expired(now) {
		m.removeLocked(id)
		return false
	}
	partial, write := fn(clone(e.session.Payload))
	if !write {
		return false
	}
	e.session.Payload = merge(e.session.Payload, partial)
	e.session.ExpiresAt = now.Add(m.ttl)
	e.timer.Reset(m.ttl)
	return true
}

func (m *MemoryStore) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

func (m *MemoryStore) Count(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for _, e := range m.entries {
		if !e.session.Expired(now) {
			n++
		}
	}
	return n
}

func (m *MemoryStore) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.entries {
		m.removeLocked(id)
	}
	m.closed = true
	return nil
}

// expire runs from the entry timer. The entry may have been refreshed or
// replaced since the timer was armed, so it is checked against the clock.
func (m *MemoryStore) expire(id string, e *memoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entries[id]
	if !ok || cur != e || !cur.session.Expired(m.now()) {
		return
	}
	delete(m.entries, id)
	m.log.Debug().Str("session_id", id).Msg("session expired")
}

func (m *MemoryStore) sweepLocked(now time.Time) int {
	n := 0
	for id, e := range m.entries {
		if e.session.Expired(now) {
			m.removeLocked(id)
			n++
		}
	}
	return n
}

func (m *MemoryStore) evictOldestLocked() {
	var (
		victim string
		soon   time.Time
	)
	for id, e := range m.entries {
		if victim == "" || e.session.ExpiresAt.Before(soon) {
			victim, soon = id, e.session.ExpiresAt
		}
	}
	if victim != "" {
		m.removeLocked(victim)
		m.log.Warn().Str("session_id", victim).Int("max_entries", m.max).Msg("session store full, evicted entry closest to expiry")
	}
}

func (m *MemoryStore) removeLocked(id string) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(m.entries, id)
}
