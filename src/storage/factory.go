package storage

import (
	"context"
	"fmt"

	"tracking_ivr/src/model"

	"github.com/rs/zerolog"
)

// New builds the backend selected by SESSION_BACKEND
func New(ctx context.Context, cfg model.SessionConfig, log zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(MemoryOptions{
			TTL:        cfg.TTL,
			MaxEntries: cfg.MaxEntries,
			Logger:     log,
		}), nil
	case "redis":
		return NewRedisStore(ctx, RedisOptions{
			URL:       cfg.RedisURL,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL,
			Logger:    log,
		})
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
