package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

const (
	DefaultTTL        = 30 * time.Minute
	DefaultMaxEntries = 10000
)

// Payload keys shared by the dialogue and the quotation bridge
const (
	KeyCallID    = "call_id"
	KeyCaller    = "caller"
	KeyRecord    = "record"
	KeyQuotation = "quotation"
)

var ErrMissingKey = errors.New("storage: payload key not present")

// Payload is the per-call data a session carries. The store never looks inside it.
type Payload map[string]any

// UpdateFunc inspects the current payload and returns the partial to merge.
// Returning write=false leaves the session untouched.
type UpdateFunc func(current Payload) (partial Payload, write bool)

// Session is one stored entry with its expiry bookkeeping
type Session struct {
	ID        string        `json:"id"`
	Payload   Payload       `json:"payload"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	TTL       time.Duration `json:"ttl"`
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store is the session store contract shared by every backend.
//
// Backends must not surface infrastructure failures: a read that cannot reach
// the backend reports absent and a write reports false.
type Store interface {
	Create(ctx context.Context, payload Payload) string
	Get(ctx context.Context, id string) (Payload, bool)
	Update(ctx context.Context, id string, partial Payload) bool
	// UpdateIf runs fn against the stored payload and applies its result in
	// the same atomic step. It reports false when the session is absent or fn
	// declines.
	UpdateIf(ctx context.Context, id string, fn UpdateFunc) bool
	Remove(ctx context.Context, id string)
	Count(ctx context.Context) int
	Sweep(ctx context.Context) int
	Backend() string
	Close() error
}

// Decode converts the value stored under key into dst. Values written by the
// memory backend are Go values while the redis backend returns generic JSON,
// so both go through the same JSON round trip.
func Decode(payload Payload, key string, dst any) error {
	v, ok := payload[key]
	if !ok || v == nil {
		return ErrMissingKey
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return nil
}

// merge applies partial over base without touching keys partial omits
func merge(base, partial Payload) Payload {
	out := make(Payload, len(base)+len(partial))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

func clone(p Payload) Payload {
	if p == nil {
		return Payload{}
	}
	return merge(p, nil)
}
