package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	redisKeyspace    = "saarthak:cache:"
	redisGenKeyspace = "saarthak:gen:"
)

type redisStore struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

// NewRedisStore shares cached reads between instances. Entries expire after
// ttl so a missed cross-instance invalidation is bounded.
func NewRedisStore(rdb goredis.UniversalClient, ttl time.Duration) (Store, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{rdb: rdb, ttl: ttl}, nil
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, redisKeyspace+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *redisStore) Set(ctx context.Context, key string, val []byte) error {
	return r.rdb.Set(ctx, redisKeyspace+key, val, r.ttl).Err()
}

func (r *redisStore) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, redisKeyspace+prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.rdb.Unlink(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *redisStore) Generation(ctx context.Context, family string) (uint64, error) {
	n, err := r.rdb.Get(ctx, redisGenKeyspace+family).Uint64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return n, err
}

func (r *redisStore) BumpGeneration(ctx context.Context, family string) (uint64, error) {
	n, err := r.rdb.Incr(ctx, redisGenKeyspace+family).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}
