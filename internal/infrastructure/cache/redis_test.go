package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crwatch/backend/internal/domain"
)

// unreachableClient points at a port nothing listens on
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url", DefaultRedisConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.DialTimeout = 100 * time.Millisecond
	cfg.MaxRetries = -1

	_, err := NewRedisCache(context.Background(), "redis://127.0.0.1:1/0", cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCacheUnavailable))
}

func TestRedisCache_ErrorsWrapUnavailable(t *testing.T) {
	cache := NewRedisCacheFromClient(unreachableClient(), "")
	defer cache.Close()
	ctx := context.Background()

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)

	err = cache.Set(ctx, "key", []byte("value"), time.Minute)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)

	err = cache.Delete(ctx, "key")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)

	_, err = cache.Exists(ctx, "key")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestRedisCache_KeyPrefix(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	assert.Equal(t, "crw:match:v1:abc", NewRedisCacheFromClient(client, "").key("match:v1:abc"))
	assert.Equal(t, "test:k", NewRedisCacheFromClient(client, "test:").key("k"))
}

var (
	_ domain.CacheRepository = (*RedisCache)(nil)
	_ domain.CacheRepository = (*MemoryCache)(nil)
)
