package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig - параметры подключения и повторных попыток.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	MaxRetries int
	RetryDelay time.Duration
}

// ConnectRedis создает клиента и ждет, пока Redis ответит на PING.
func ConnectRedis(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	log := logger.Named("Redis")
	log.Info("Connecting to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB), zap.Int("maxRetries", cfg.MaxRetries))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			log.Info("Connected to Redis", zap.Int("attempt", attempt))
			return client, nil
		}
		log.Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(lastErr))

		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", cfg.MaxRetries, lastErr)
}
