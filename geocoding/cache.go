// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores geocoding results by folded query.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, error)
	Set(ctx context.Context, key string, r *Result) error
}

// MemoryCache is an in-process Cache without expiration.
type MemoryCache struct {
	mu      sync.RWMutex
	results map[string]Result
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{results: map[string]Result{}}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.results[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	return &r, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, r *Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[key] = *r

	return nil
}

// RedisConfig holds the Redis connection configuration.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// RedisCache is a Cache shared between server instances.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisCache(client, cfg), nil
}

func newRedisCache(client *redis.Client, cfg RedisConfig) *RedisCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "geocode:"
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}

	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*Result, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var r Result
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("decoding cached result: %w", err)
	}

	return &r, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, r *Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
