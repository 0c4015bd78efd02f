// Package store fronts Redis with the small hash-oriented surface the bot
// needs: point read/write/delete of a field and a whole-hash read. State is
// laid out as one hash per logical subtree (checked rooms per date, the
// global emptied set), so a "subtree read" is a single HGETALL.
package store

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned when a field does not exist.
var ErrMiss = errors.New("store: miss")

// KV is the persistence gateway. Implemented by RedisKV; unit tests use
// miniredis behind the same implementation.
type KV interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) error
	HExists(ctx context.Context, key, field string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) HGet(ctx context.Context, key, field string) (string, error) {
	val, err := r.c.HGet(ctx, key, field).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) HSet(ctx context.Context, key, field, value string) error {
	return r.c.HSet(ctx, key, field, value).Err()
}

func (r *RedisKV) HDel(ctx context.Context, key string, fields ...string) error {
	return r.c.HDel(ctx, key, fields...).Err()
}

func (r *RedisKV) HExists(ctx context.Context, key, field string) (bool, error) {
	return r.c.HExists(ctx, key, field).Result()
}

func (r *RedisKV) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.c.HGetAll(ctx, key).Result()
}

func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
