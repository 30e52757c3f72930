//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkmark/internal/shortener"
	"github.com/serroba/linkmark/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}

	return "localhost:6379"
}

func openRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: getRedisAddr()})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return client
}

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := openRedis(t)
	s := store.NewRateLimitRedisStore(client)

	t.Cleanup(func() { client.Del(ctx, "ratelimit:it-key") })

	for want := int64(1); want <= 3; want++ {
		count, err := s.Record(ctx, "it-key", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	ttl := client.TTL(ctx, "ratelimit:it-key").Val()
	assert.Positive(t, ttl)
}

func TestLedgerRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := openRedis(t)
	s := store.NewLedgerRedisStore(client, time.Minute)

	t.Cleanup(func() { client.Del(ctx, "billing:event:evt_it") })

	first, err := s.Claim(ctx, "evt_it")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := s.Claim(ctx, "evt_it")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, s.Release(ctx, "evt_it"))

	retry, err := s.Claim(ctx, "evt_it")
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestLinkCacheRepositoryIntegration(t *testing.T) {
	ctx := context.Background()
	client := openRedis(t)
	backing := store.NewLinkMemoryStore()
	s := store.NewLinkCacheRepository(backing, client, time.Minute, zap.NewNop())

	link := &shortener.Link{ID: "l1", ShortCode: "itcache", OriginalURL: "https://example.com", IsActive: true}
	require.NoError(t, s.Create(ctx, link))

	t.Cleanup(func() { client.Del(ctx, "link:itcache") })

	t.Run("read-through populates the cache", func(t *testing.T) {
		got, err := s.GetByCode(ctx, "itcache")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.OriginalURL)

		assert.Equal(t, int64(1), client.Exists(ctx, "link:itcache").Val())
	})

	t.Run("update evicts", func(t *testing.T) {
		link.IsActive = false
		require.NoError(t, s.Update(ctx, link))

		assert.Equal(t, int64(0), client.Exists(ctx, "link:itcache").Val())

		got, err := s.GetByCode(ctx, "itcache")
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})
}
