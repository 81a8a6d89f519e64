package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisInvalidator drops the per-user cached counters from Redis. It is the
// production Invalidator; the forum frontend repopulates the keys lazily.
type RedisInvalidator struct {
	client *redis.Client
}

var _ Invalidator = (*RedisInvalidator)(nil)

// NewRedisInvalidator connects to the Redis instance at url and verifies the
// connection with a short ping.
func NewRedisInvalidator(url string) (*RedisInvalidator, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisInvalidator{client: c}, nil
}

func (r *RedisInvalidator) InvalidateUser(ctx context.Context, uid string) error {
	return r.client.Del(ctx, UserKeys(uid)...).Err()
}

func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}
