package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rqhall/cowchain-farm/internal/port"
)

const (
	recordKeyPrefix = "farm:"

	// One logical tick is roughly one ledger close, about 5 seconds.
	tickDuration = 5 * time.Second
)

// RedisStore backs the tiered expiring store with Redis. Lifetimes map to
// key TTLs, so lapsed records disappear without any eviction pass. Redis
// cannot tell a deleted key from an expired one, which is why callers that
// need the distinction use MemoryStore.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, recordKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, recordKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	// KEEPTTL so a rewrite does not silently extend the record's life;
	// only RenewLifetime does that.
	return r.client.Set(ctx, recordKeyPrefix+key, value, redis.KeepTTL).Err()
}

func (r *RedisStore) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, recordKeyPrefix+key).Err()
}

func (r *RedisStore) RenewLifetime(ctx context.Context, key string, ticks uint64) error {
	return r.client.Expire(ctx, recordKeyPrefix+key, time.Duration(ticks)*tickDuration).Err()
}
