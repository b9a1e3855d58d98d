package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ KV = (*RedisKV)(nil)

// RedisKV хранит значения в Redis.
type RedisKV struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewRedisKV(client redis.UniversalClient, logger *zap.Logger) *RedisKV {
	return &RedisKV{
		client: client,
		logger: logger.Named("RedisKV"),
	}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get key from redis", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Error("Failed to set key in redis", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Failed to delete keys from redis", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Touch продлевает срок жизни набора ключей одной транзакцией.
// Отсутствующие ключи пропускаются.
func (r *RedisKV) Touch(ctx context.Context, ttl time.Duration, keys ...string) error {
	if ttl <= 0 || len(keys) == 0 {
		return nil
	}
	pipe := r.client.TxPipeline()
	for _, key := range keys {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis expire: %w", err)
	}
	return nil
}
