package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liver-predict/internal/domain"
)

// RedisCache shares prediction results between gateway instances.
type RedisCache struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

// CachedResult represents a cached prediction with metadata
type CachedResult struct {
	Result    *domain.PredictionResult `json:"result"`
	CachedAt  time.Time                `json:"cached_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

// Get retrieves a cached result. Corrupt or expired entries are removed and
// reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.PredictionResult, bool, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached prediction: %w", err)
	}

	var cached CachedResult
	if err := json.Unmarshal([]byte(val), &cached); err != nil || cached.Result == nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if !cached.ExpiresAt.IsZero() && time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Result, true, nil
}

// Set caches result under key for the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, result *domain.PredictionResult) error {
	now := time.Now()
	cached := CachedResult{Result: result, CachedAt: now}
	if c.ttl > 0 {
		cached.ExpiresAt = now.Add(c.ttl)
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cached prediction: %w", err)
	}

	return c.redis.Set(ctx, key, data, c.ttl).Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
