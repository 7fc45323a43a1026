package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vatpac-net/ingestd/internal/metrics"
)

// MemoryCache is the in-process TTL cache, grounded on the teacher's
// CacheService (internal/common/cache_service.go).
type MemoryCache struct {
	cache *gocache.Cache
}

var _ Interface = (*MemoryCache)(nil)

// NewMemoryCache builds a MemoryCache with the given default expiration and
// janitor cleanup interval.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(defaultExpiration, cleanupInterval)}
}

func extractCacheKeyPattern(key string) string {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) > 0 {
		return parts[0]
	}
	return "unknown"
}

func (c *MemoryCache) Set(key string, value interface{}, duration time.Duration) {
	c.cache.Set(key, value, duration)
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	val, found := c.cache.Get(key)
	pattern := extractCacheKeyPattern(key)
	if found {
		metrics.CacheHitsTotal.WithLabelValues(pattern).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(pattern).Inc()
	}
	return val, found
}

func (c *MemoryCache) Delete(key string) {
	c.cache.Delete(key)
}

func (c *MemoryCache) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := c.Get(key); found {
		return val, nil
	}
	val, err := loader()
	if err != nil {
		return nil, err
	}
	c.Set(key, val, duration)
	return val, nil
}

func (c *MemoryCache) Close() error { return nil }
