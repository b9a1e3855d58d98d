package messaging

import (
	"context"
	"fmt"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConnectOptions задает число попыток подключения и паузу между ними.
type ConnectOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

var DefaultConnectOptions = ConnectOptions{MaxRetries: 30, RetryDelay: 2 * time.Second}

// Connect подключается к RabbitMQ, повторяя попытки, пока брокер не поднимется.
func Connect(ctx context.Context, rawURL string, opts ConnectOptions, logger *zap.Logger) (*amqp.Connection, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	log := logger.Named("RabbitMQ")
	log.Info("Connecting to RabbitMQ",
		zap.String("url", maskURL(rawURL)),
		zap.Int("maxRetries", opts.MaxRetries),
		zap.Duration("retryDelay", opts.RetryDelay),
	)

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		conn, err := amqp.Dial(rawURL)
		if err == nil {
			log.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			go watchClose(conn, log)
			return conn, nil
		}
		lastErr = err
		log.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", opts.MaxRetries, lastErr)
}

func watchClose(conn *amqp.Connection, log *zap.Logger) {
	notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))
	if err, ok := <-notifyClose; ok && err != nil {
		log.Error("RabbitMQ connection closed unexpectedly", zap.Error(err))
		return
	}
	log.Info("RabbitMQ connection closed")
}

// maskURL скрывает пароль в строке подключения для логов.
func maskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
