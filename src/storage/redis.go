package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultKeyPrefix   = "ivr:session:"
	updateWatchRetries = 3
)

var (
	errSessionGone    = errors.New("session not found")
	errUpdateDeclined = errors.New("update declined")
)

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisOptions configures a RedisStore
type RedisOptions struct {
	URL       string
	KeyPrefix string
	TTL       time.Duration
	Now       func() time.Time
	Logger    zerolog.Logger
}

// RedisStore implements Store on redis with native per-key expiry.
// Every failure is logged and reported as absent / false.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewRedisStore connects to REDIS_URL and pings it once
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("storage: redis url is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to parse redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("storage: failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, opts), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, opts RedisOptions) *RedisStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RedisStore{
		client: client,
		prefix: opts.KeyPrefix,
		ttl:    opts.TTL,
		now:    opts.Now,
		log:    opts.Logger,
	}
}

func (r *RedisStore) Backend() string { return "redis" }

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Create(ctx context.Context, payload Payload) string {
	id := uuid.NewString()
	now := r.now()
	s := Session{
		ID:        id,
		Payload:   clone(payload),
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
		TTL:       r.ttl,
	}

	data, err := sonic.Marshal(&s)
	if err != nil {
		r.log.Error().Err(err).Str("session_id", id).Msg("failed to marshal session")
		return id
	}
	if err := r.client.Set(ctx, r.key(id), data, r.ttl).Err(); err != nil {
		r.log.Error().Err(err).Str("session_id", id).Msg("failed to store session")
	}
	return id
}

func (r *RedisStore) Get(ctx context.Context, id string) (Payload, bool) {
	s, err := r.load(ctx, r.client, id)
	if err != nil {
		if !errors.Is(err, errSessionGone) {
			r.log.Error().Err(err).Str("session_id", id).Msg("failed to read session")
		}
		return nil, false
	}
	if s.Expired(r.now()) {
		r.Remove(ctx, id)
		return nil, false
	}
	return s.Payload, true
}

// Update merges partial into an existing session. The write is conditional on
// the key still existing when the transaction commits, so a late writer never
// resurrects a removed session.
func (r *RedisStore) Update(ctx context.Context, id string, partial Payload) bool {
	return r.UpdateIf(ctx, id, func(Payload) (Payload, bool) { return partial, true })
}

// UpdateIf reads under WATCH and commits with MULTI, retrying when another
// writer touched the key in between. fn may run more than once.
func (r *RedisStore) UpdateIf(ctx context.Context, id string, fn UpdateFunc) bool {
	key := r.key(id)

	txf := func(tx *redis.Tx) error {
		s, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		partial, write := fn(clone(s.Payload))
		if !write {
			return errUpdateDeclined
		}
		now := r.now()
		s.Payload = merge(s.Payload, partial)
		s.ExpiresAt = now.Add(r.ttl)
		s.TTL = r.ttl

		data, err := sonic.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < updateWatchRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return true
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, errSessionGone), errors.Is(err, errUpdateDeclined):
			return false
		default:
			r.log.Error().Err(err).Str("session_id", id).Msg("failed to update session")
			return false
		}
	}
	r.log.Warn().Str("session_id", id).Msg("session update lost to concurrent writers")
	return false
}

func (r *RedisStore) Remove(ctx context.Context, id string) {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		r.log.Error().Err(err).Str("session_id", id).Msg("failed to delete session")
	}
}

func (r *RedisStore) Count(ctx context.Context) int {
	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		r.log.Error().Err(err).Msg("failed to count sessions")
		return 0
	}
	return n
}

// Sweep relies on native expiry and only repairs keys that lost their TTL:
// stale ones are deleted and live ones get their expiry back.
func (r *RedisStore) Sweep(ctx context.Context) int {
	removed := 0
	now := r.now()
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := r.client.TTL(ctx, key).Result()
		if err != nil || ttl != -1 {
			continue
		}
		id := key[len(r.prefix):]
		s, err := r.load(ctx, r.client, id)
		if err != nil {
			continue
		}
		if s.Expired(now) {
			r.client.Del(ctx, key)
			removed++
			continue
		}
		r.client.Expire(ctx, key, s.ExpiresAt.Sub(now))
	}
	if err := iter.Err(); err != nil {
		r.log.Error().Err(err).Msg("failed to sweep sessions")
	}
	return removed
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) load(ctx context.Context, c getter, id string) (*Session, error) {
	raw, err := c.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errSessionGone
		}
		return nil, fmt.Errorf("failed to get session data: %w", err)
	}
	var s Session
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &s, nil
}
