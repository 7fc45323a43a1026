// Package cache provides the CacheInterface abstraction and two
// implementations (in-process and Redis-backed), grounded on the teacher's
// internal/common/cache_service.go and internal/common/redis_cache_service.go.
// Used here to memoize airspace reference lookups and Correlator sample
// queries, which are read far more often than the underlying data changes.
package cache

import "time"

// Interface is implemented by both the in-memory and Redis cache. Mirrors
// the teacher's CacheInterface.
type Interface interface {
	Set(key string, value interface{}, duration time.Duration)
	Get(key string) (interface{}, bool)
	Delete(key string)
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)
	Close() error
}
