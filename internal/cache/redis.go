package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "vasop:wizard:"
	DefaultTTL       = 7 * 24 * time.Hour
)

type RedisOptions struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisDraftCache keeps serialized wizard state in redis.
type RedisDraftCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisDraftCache(options RedisOptions) *RedisDraftCache {
	client := redis.NewClient(&redis.Options{
		Addr:         options.Address,
		Password:     options.Password,
		DB:           options.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return NewRedisDraftCacheWithClient(client, options.KeyPrefix, options.TTL)
}

func NewRedisDraftCacheWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisDraftCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisDraftCache{client: client, prefix: prefix, ttl: ttl}
}

func (cache *RedisDraftCache) Ping(ctx context.Context) error {
	if err := cache.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (cache *RedisDraftCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := cache.client.Get(ctx, cache.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return payload, true, nil
}

func (cache *RedisDraftCache) Set(ctx context.Context, key string, payload []byte) error {
	if err := cache.client.Set(ctx, cache.prefix+key, payload, cache.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (cache *RedisDraftCache) Delete(ctx context.Context, key string) error {
	if err := cache.client.Del(ctx, cache.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (cache *RedisDraftCache) Close() error {
	return cache.client.Close()
}
