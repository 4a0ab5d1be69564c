package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electrocyb/backend/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "electrocyb:"), mr
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "product:1", []byte(`{"id":1}`), time.Minute))

	got, err := c.Get(ctx, "product:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(got))

	// stored under the prefixed key with a TTL
	assert.True(t, mr.Exists("electrocyb:product:1"))
	assert.Equal(t, time.Minute, mr.TTL("electrocyb:product:1"))
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), "product:404")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "product:2", []byte("x"), time.Second))
	mr.FastForward(2 * time.Second)

	exists, err := c.Exists(ctx, "product:2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_DeleteAndExists(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "product:3", []byte("x"), time.Minute))
	exists, err := c.Exists(ctx, "product:3")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "product:3"))
	exists, err = c.Exists(ctx, "product:3")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_Unavailable(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "product:1")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)

	err = c.Set(context.Background(), "product:1", []byte("x"), time.Minute)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestNewRedisClient_PingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}
