package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisResponseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisResponseCache(rdb, ttl), mr
}

func TestRedisResponseCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t, time.Hour)

	_, err := cache.Get(ctx, "abc")
	assert.ErrorIs(t, err, errx.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "abc", []byte(`{"ok":true}`)))
	assert.True(t, mr.Exists("extract:cache:abc"))
	assert.Equal(t, time.Hour, mr.TTL("extract:cache:abc"))

	got, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(got))

	mr.FastForward(2 * time.Hour)
	_, err = cache.Get(ctx, "abc")
	assert.ErrorIs(t, err, errx.ErrCacheMiss)
}

func TestRedisResponseCacheNoTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t, 0)

	require.NoError(t, cache.Set(ctx, "k", []byte("1")))
	assert.Zero(t, mr.TTL("extract:cache:k"))
}

func TestRedisResponseCacheServerDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, err := cache.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errx.ErrCacheMiss)
	assert.Equal(t, errx.KindCache, errx.KindOf(err))
}
