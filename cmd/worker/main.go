package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ezcode-server/internal/config"
	"ezcode-server/internal/logger"
	"ezcode-server/internal/messaging"
	"ezcode-server/internal/notification"
	"ezcode-server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to worker config")
	flag.Parse()

	cfg, err := config.LoadWorkerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("NotificationWorker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := storage.ConnectRedis(ctx, storage.RedisConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		MaxRetries: 30,
		RetryDelay: 2 * time.Second,
	}, log)
	if err != nil {
		log.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	defer redisClient.Close()

	rabbitConn, err := messaging.Connect(ctx, cfg.RabbitMQ.URL, messaging.DefaultConnectOptions, log)
	if err != nil {
		log.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()

	store := notification.NewStore(redisClient, notification.DefaultKey, cfg.NotificationsLimit, log)
	processor := messaging.NewProcessor(notification.NewHandler(store, log), log)
	consumer := messaging.NewConsumer(rabbitConn, cfg.SubmissionEventsQueue, cfg.Prefetch, processor, log)

	healthSrv := startHealthCheckServer(cfg.HealthCheckPort, redisClient, rabbitConn, log)

	consumerErr := make(chan error, 1)
	go func() {
		log.Info("Запуск консьюмера", zap.String("queue", cfg.SubmissionEventsQueue), zap.Int("prefetch", cfg.Prefetch))
		consumerErr <- consumer.Run(ctx)
	}()

	consumerDone := false
	select {
	case <-ctx.Done():
		log.Info("Получен сигнал завершения, останавливаемся...")
	case err := <-consumerErr:
		consumerDone = true
		if err != nil {
			log.Error("Консьюмер завершился с ошибкой", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка остановки health check сервера", zap.Error(err))
	}

	consumer.Stop()
	if !consumerDone {
		// Run дожидается, пока воркеры закончат текущие сообщения.
		<-consumerErr
	}
	log.Info("Воркер уведомлений остановлен")
}

func startHealthCheckServer(port string, redisClient *redis.Client, conn *amqp.Connection, log *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "redis": err.Error()})
			return
		}
		if conn.IsClosed() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "rabbitmq": "connection closed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Запуск health check сервера", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка health check сервера", zap.Error(err))
		}
	}()
	return srv
}
