package denylist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avolkov/proxdeck/internal/logger"
)

// RedisStore backs the denylist with a Redis set.
// Every command failure is logged and absorbed: the cache is an
// optimization, losing it must never fail an auth operation
type RedisStore struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisStore(url string, l logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error while parsing redis url. Err: %w", err)
	}
	opts.MaxRetries = 3

	return &RedisStore{
		client: redis.NewClient(opts),
		logger: l,
	}, nil
}

// IsReady pings the server synchronously.
// No retry or backoff here: callers poll before each dependent call
func (s *RedisStore) IsReady(ctx context.Context) bool {
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.logger.Warn("redis not available, continuing without cache", "error", err.Error())
		return false
	}
	return true
}

func (s *RedisStore) AddToSet(ctx context.Context, key string, member string) {
	if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
		s.logger.Warn("redis SADD error", "key", key, "error", err.Error())
	}
}

func (s *RedisStore) SetExpire(ctx context.Context, key string, seconds int64) {
	if err := s.client.Expire(ctx, key, time.Duration(seconds)*time.Second).Err(); err != nil {
		s.logger.Warn("redis EXPIRE error", "key", key, "error", err.Error())
	}
}

func (s *RedisStore) IsMember(ctx context.Context, key string, member string) bool {
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		s.logger.Warn("redis SISMEMBER error", "key", key, "error", err.Error())
		return false
	}
	return ok
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
