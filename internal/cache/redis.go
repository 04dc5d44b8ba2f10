package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	urlKeyPrefix    = "short:"
	clicksKeyPrefix = "clicks:"
)

// RedisCache holds derived copies of url mappings and click counters.
// Mappings expire after urlTTL; counters never expire and are repaired
// from the durable store by the service layer when absent.
type RedisCache struct {
	client *redis.Client
	urlTTL time.Duration
}

// NewRedisCache creates a RedisCache on top of the provided client.
// urlTTL bounds the staleness window of cached short code mappings.
func NewRedisCache(client *redis.Client, urlTTL time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		urlTTL: urlTTL,
	}
}

// GetURL returns the cached long URL for the short code.
// It returns ErrCacheMiss when no mapping is cached.
func (c *RedisCache) GetURL(ctx context.Context, shortCode string) (string, error) {
	const op = "cache.RedisCache.GetURL"

	longURL, err := c.client.Get(ctx, urlKeyPrefix+shortCode).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, ErrCacheMiss)
		}

		return "", fmt.Errorf("%s: failed to get url mapping: %w", op, err)
	}

	return longURL, nil
}

// SetURL caches the short code to long URL mapping with the configured TTL.
func (c *RedisCache) SetURL(ctx context.Context, shortCode, longURL string) error {
	const op = "cache.RedisCache.SetURL"

	if err := c.client.Set(ctx, urlKeyPrefix+shortCode, longURL, c.urlTTL).Err(); err != nil {
		return fmt.Errorf("%s: failed to set url mapping: %w", op, err)
	}

	return nil
}

// IncrementClicks atomically increments the click counter for the short
// code, creating it at 1 when absent, and returns the new value.
func (c *RedisCache) IncrementClicks(ctx context.Context, shortCode string) (int64, error) {
	const op = "cache.RedisCache.IncrementClicks"

	total, err := c.client.Incr(ctx, clicksKeyPrefix+shortCode).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to increment click counter: %w", op, err)
	}

	return total, nil
}

// GetClicks returns the cached click counter for the short code.
// It returns ErrCacheMiss when no counter is cached.
func (c *RedisCache) GetClicks(ctx context.Context, shortCode string) (int64, error) {
	const op = "cache.RedisCache.GetClicks"

	total, err := c.client.Get(ctx, clicksKeyPrefix+shortCode).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, fmt.Errorf("%s: %w", op, ErrCacheMiss)
		}

		return 0, fmt.Errorf("%s: failed to get click counter: %w", op, err)
	}

	return total, nil
}

// SetClicks stores the click counter for the short code without expiry.
func (c *RedisCache) SetClicks(ctx context.Context, shortCode string, total int64) error {
	const op = "cache.RedisCache.SetClicks"

	if err := c.client.Set(ctx, clicksKeyPrefix+shortCode, total, 0).Err(); err != nil {
		return fmt.Errorf("%s: failed to set click counter: %w", op, err)
	}

	return nil
}
