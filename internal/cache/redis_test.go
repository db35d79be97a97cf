package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisDraftCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewRedisDraftCacheWithClient(client, "", ttl), server
}

func TestRedisDraftCacheRoundTrip(t *testing.T) {
	cache, server := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Ping(ctx))
	require.NoError(t, cache.Set(ctx, "acct-1", []byte(`{"phase":"active"}`)))
	assert.True(t, server.Exists(DefaultKeyPrefix+"acct-1"))

	payload, found, err := cache.Get(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"phase":"active"}`, string(payload))

	require.NoError(t, cache.Delete(ctx, "acct-1"))
	_, found, err = cache.Get(ctx, "acct-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisDraftCacheMissIsNotAnError(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)

	payload, found, err := cache.Get(context.Background(), "nobody")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, payload)
}

func TestRedisDraftCacheAppliesTTL(t *testing.T) {
	cache, server := newTestCache(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "acct-2", []byte("state")))
	assert.Equal(t, 10*time.Minute, server.TTL(DefaultKeyPrefix+"acct-2"))

	server.FastForward(11 * time.Minute)
	_, found, err := cache.Get(ctx, "acct-2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisDraftCacheReportsServerErrors(t *testing.T) {
	cache, server := newTestCache(t, time.Hour)
	server.Close()

	_, _, err := cache.Get(context.Background(), "acct-3")
	assert.Error(t, err)
}
