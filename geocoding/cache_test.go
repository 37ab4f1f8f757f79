// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, err := c.Get(ctx, "rua goias, 100")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "rua goias, 100", uberlandia))

	got, err := c.Get(ctx, "rua goias, 100")
	require.NoError(t, err)
	assert.Equal(t, uberlandia, got)
	assert.NotSame(t, uberlandia, got)
	assert.Len(t, c.results, 1)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewRedisCacheDefaults(t *testing.T) {
	c := newRedisCache(nil, RedisConfig{})
	assert.Equal(t, "geocode:", c.prefix)
	assert.Equal(t, 30*24*time.Hour, c.ttl)
}
