//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menumail/pkg/cache"
	"github.com/dmitrymomot/menumail/pkg/redis"
)

const testRedisURL = "redis://localhost:6379/0"

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = testRedisURL
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err, "failed to connect to Redis")

	t.Cleanup(func() { _ = client.Close() })
	return client
}

type payload struct {
	Menus []string `json:"Menus"`
}

func TestRedis_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestRedisClient(t)
	c := cache.NewRedis[payload](client, nil, "test-roundtrip", time.Minute)

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, c.Set(ctx, "75204001:2024-03-07", payload{Menus: []string{"a"}}, 0))
	got, err := c.Get(ctx, "75204001:2024-03-07")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Menus)

	ttl, err := client.TTL(ctx, "test-roundtrip:75204001:2024-03-07").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Delete(ctx, "75204001:2024-03-07"))
	_, err = c.Get(ctx, "75204001:2024-03-07")
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedis_Loader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewRedis[string](newTestRedisClient(t), nil, "test-loader", time.Minute)
	loader := cache.NewLoader[string](c, time.Minute)
	t.Cleanup(func() { _ = loader.Invalidate(ctx, "k") })

	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	_, _, err := loader.Load(ctx, "k", fn)
	require.NoError(t, err)
	v, hit, err := loader.Load(ctx, "k", fn)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, calls)
}
