package repositories

import (
	"context"
	"errors"
	"time"

	"finspark-backoffice/internal/session"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements session.Storage on redis
type RedisStorage struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisStorage creates a new redis-backed session storage
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix, timeout: 5 * time.Second}
}

// Get returns the value for key, nil when missing
func (r *RedisStorage) Get(key string) ([]byte, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

// Set stores a value; exp of zero means no expiry
func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	ctx, cancel := r.ctx()
	defer cancel()

	return r.client.Set(ctx, r.prefix+key, val, exp).Err()
}

// Delete removes a key
func (r *RedisStorage) Delete(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	return r.client.Del(ctx, r.prefix+key).Err()
}

// SetMany writes all values in one MULTI/EXEC
func (r *RedisStorage) SetMany(values map[string][]byte, exp time.Duration) error {
	ctx, cancel := r.ctx()
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, val := range values {
			pipe.Set(ctx, r.prefix+key, val, exp)
		}
		return nil
	})
	return err
}

// DeleteMany removes all keys in one command
func (r *RedisStorage) DeleteMany(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := r.ctx()
	defer cancel()

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.prefix + key
	}
	return r.client.Del(ctx, prefixed...).Err()
}

func (r *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

var (
	_ session.Storage = (*RedisStorage)(nil)
	_ session.Batch   = (*RedisStorage)(nil)
)
