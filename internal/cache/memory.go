// Package cache provides the in-process prediction result cache.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/liver-predict/internal/domain"
)

// MemoryCache is a size-bounded LRU of prediction results whose entries
// expire after a fixed TTL.
type MemoryCache struct {
	lru    *expirable.LRU[string, *domain.PredictionResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache usage counters.
type Stats struct {
	Items  int   `json:"items"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewMemoryCache creates a cache holding at most maxItems results. A zero ttl
// disables expiry.
func NewMemoryCache(maxItems int, ttl time.Duration) (*MemoryCache, error) {
	if maxItems <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxItems)
	}
	if ttl < 0 {
		return nil, fmt.Errorf("cache TTL must not be negative, got %s", ttl)
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, *domain.PredictionResult](maxItems, nil, ttl),
	}, nil
}

// Get returns the cached result for key.
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.PredictionResult, bool, error) {
	result, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return result, true, nil
}

// Set stores result under key, evicting the least recently used entry when full.
func (c *MemoryCache) Set(_ context.Context, key string, result *domain.PredictionResult) error {
	c.lru.Add(key, result)
	return nil
}

// Stats returns a snapshot of the usage counters.
func (c *MemoryCache) Stats() Stats {
	return Stats{
		Items:  c.lru.Len(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}
