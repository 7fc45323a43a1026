package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vatpac-net/ingestd/internal/logging"
)

// RedisCache implements Interface on top of a shared redis.Client,
// grounded on the teacher's RedisCacheService
// (internal/common/redis_cache_service.go).
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

var _ Interface = (*RedisCache)(nil)

// NewRedisCache wraps an already-connected redis.Client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, ctx: context.Background()}
}

func (r *RedisCache) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.GetLogger().Warnw("cache: marshal failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(r.ctx, key, data, duration).Err(); err != nil {
		logging.GetLogger().Warnw("cache: set failed", "key", key, "error", err)
	}
}

func (r *RedisCache) Get(key string) (interface{}, bool) {
	data, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logging.GetLogger().Warnw("cache: get failed", "key", key, "error", err)
		return nil, false
	}

	var result interface{}
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		logging.GetLogger().Warnw("cache: unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return result, true
}

func (r *RedisCache) Delete(key string) {
	if err := r.client.Del(r.ctx, key).Err(); err != nil {
		logging.GetLogger().Warnw("cache: delete failed", "key", key, "error", err)
	}
}

func (r *RedisCache) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := r.Get(key); found {
		return val, nil
	}
	val, err := loader()
	if err != nil {
		return nil, err
	}
	r.Set(key, val, duration)
	return val, nil
}

func (r *RedisCache) Close() error { return r.client.Close() }

// NewRedisClient builds a redis.Client from host/port/password, matching
// the teacher's connection options (internal/common/redis_cache_service.go).
func NewRedisClient(host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("cache: connecting to redis: %w", err)
	}
	return client, nil
}
