package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	mergeerr "github.com/matzehuels/nativemerge/pkg/errors"
)

// RedisCache stores entries in Redis so several servers can share them.
// Transient connection failures are retried with [RetryWithBackoff].
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance at url, for example
// "redis://localhost:6379/0", and checks that it answers.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, mergeerr.Wrap(mergeerr.ErrCodeInvalidConfig, err, "invalid redis url")
	}
	c := NewRedisCacheFromClient(redis.NewClient(opts))
	err = RetryWithBackoff(ctx, func() error {
		return classify(c.client.Ping(ctx).Err())
	})
	if err != nil {
		_ = c.client.Close()
		return nil, mergeerr.Wrap(mergeerr.ErrCodeCacheUnavailable, err, "redis at %s", opts.Addr)
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value. redis.Nil is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		b, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			return classify(err)
		}
		data = b
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable(err)
	}
	return data, true, nil
}

// Set stores data with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := RetryWithBackoff(ctx, func() error {
		return classify(c.client.Set(ctx, key, data, ttl).Err())
	})
	return unavailable(err)
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := RetryWithBackoff(ctx, func() error {
		return classify(c.client.Del(ctx, key).Err())
	})
	return unavailable(err)
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// classify marks errors worth retrying. Misses and cancellations are final.
func classify(err error) error {
	if err == nil || errors.Is(err, redis.Nil) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return Retryable(errors.Join(ErrUnavailable, err))
}

func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return mergeerr.Wrap(mergeerr.ErrCodeCacheUnavailable, err, "redis cache")
}

var _ Cache = (*RedisCache)(nil)
