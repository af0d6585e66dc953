package errx

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by cache lookups that found nothing.
var ErrCacheMiss = errors.New("cache miss")

// WrapRedis maps Redis errors to AppError. redis.Nil becomes ErrCacheMiss.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(fmt.Errorf("%w: %w", ErrCacheMiss, err), KindCache, RedisNotFoundMessage)
	}

	return New(err, KindCache, RedisErrorMessage)
}
