package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const threadPrefix = "ivr:thread:"

// RedisRepository stores each thread as one JSON document with a TTL that
// is refreshed on every access.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(ctx context.Context, redisURL string, ttl time.Duration) (*RedisRepository, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("conversation: redis url is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRepositoryWithClient(client, ttl), nil
}

func NewRedisRepositoryWithClient(client *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = DefaultThreadTTL
	}
	return &RedisRepository{client: client, ttl: ttl}
}

func (r *RedisRepository) key(threadID string) string {
	return threadPrefix + threadID
}

func (r *RedisRepository) Open(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := r.save(ctx, id, &ConversationHistory{Messages: []*schema.Message{}}); err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisRepository) Load(ctx context.Context, threadID string) (*ConversationHistory, error) {
	key := r.key(threadID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrThreadClosed
		}
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var history ConversationHistory
	if err := sonic.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	// Refresh TTL
	r.client.Expire(ctx, key, r.ttl)
	return &history, nil
}

func (r *RedisRepository) AddMessage(ctx context.Context, threadID string, message *schema.Message) error {
	history, err := r.Load(ctx, threadID)
	if err != nil {
		return err
	}
	history.Messages = append(history.Messages, message)
	return r.save(ctx, threadID, history)
}

func (r *RedisRepository) Close(ctx context.Context, threadID string) error {
	return r.client.Del(ctx, r.key(threadID)).Err()
}

// Sweep is a no-op: every thread key carries a native expiry
func (r *RedisRepository) Sweep(ctx context.Context) int {
	return 0
}

func (r *RedisRepository) save(ctx context.Context, threadID string, history *ConversationHistory) error {
	data, err := sonic.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return r.client.Set(ctx, r.key(threadID), data, r.ttl).Err()
}
