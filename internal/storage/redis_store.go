package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps posted ids in a single redis set.
type redisStore struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
}

func openRedis(opts Options) (Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), opts.RedisTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &redisStore{rdb: rdb, key: opts.RedisKey, timeout: opts.RedisTimeout}, nil
}

func (r *redisStore) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func (r *redisStore) Contains(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	ok, err := r.rdb.SIsMember(ctx, r.key, strings.TrimSpace(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return ok, nil
}

func (r *redisStore) Add(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("empty id")
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.rdb.SAdd(ctx, r.key, id).Err(); err != nil {
		return fmt.Errorf("redis sadd: %w", err)
	}
	return nil
}
