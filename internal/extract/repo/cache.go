package repo

import (
	"context"
	"fmt"
	"time"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type RedisResponseCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisResponseCache(rdb redis.Cmdable, ttl time.Duration) *RedisResponseCache {
	return &RedisResponseCache{rdb: rdb, ttl: ttl}
}

func (r *RedisResponseCache) cacheKey(key string) string {
	return fmt.Sprintf("extract:cache:%s", key)
}

func (r *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	k := r.cacheKey(key)
	b, err := r.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if err != redis.Nil {
			logx.Error().Err(err).Str("key", k).Msg("failed to read cached response from redis")
		}
		return nil, errx.WrapRedis(err)
	}
	return b, nil
}

func (r *RedisResponseCache) Set(ctx context.Context, key string, raw []byte) error {
	k := r.cacheKey(key)
	if err := r.rdb.Set(ctx, k, raw, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", k).Msg("failed to store response in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ResponseCache = (*RedisResponseCache)(nil)
