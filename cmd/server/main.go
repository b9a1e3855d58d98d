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

	"ezcode-server/internal/auth"
	"ezcode-server/internal/config"
	"ezcode-server/internal/database"
	"ezcode-server/internal/handler"
	"ezcode-server/internal/logger"
	"ezcode-server/internal/messaging"
	"ezcode-server/internal/notification"
	"ezcode-server/internal/realtime"
	"ezcode-server/internal/session"
	"ezcode-server/internal/storage"
	"ezcode-server/internal/submission"
	"ezcode-server/internal/tools"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

const janitorInterval = time.Minute

func main() {
	envFile := flag.String("env", ".env", "path to .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	cfg.LogSummary(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- PostgreSQL ---
	if cfg.MigrateOnStart {
		migrationLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		if err := database.NewMigrator(cfg.GetDSN(), migrationLogger).Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}
	pool, err := database.Connect(ctx, database.PoolConfig{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to PostgreSQL")

	// --- Хранилище сессий ---
	var (
		kv          storage.KV
		redisClient *redis.Client
	)
	switch cfg.StorageBackend {
	case config.StorageRedis:
		redisClient, err = storage.ConnectRedis(ctx, storage.RedisConfig{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			MaxRetries: 30,
			RetryDelay: 2 * time.Second,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		kv = storage.NewRedisKV(redisClient, log)
	default:
		log.Warn("Using in-memory session storage: state is lost on restart")
		kv = storage.NewMemoryKV()
	}

	// --- RabbitMQ ---
	mqConn, err := messaging.Connect(ctx, cfg.RabbitMQURL, messaging.DefaultConnectOptions, log)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()

	publisher, err := messaging.NewRabbitMQPublisher(mqConn, cfg.SubmissionEventsQueue, "ezcode-server", log)
	if err != nil {
		log.Fatal("Failed to create submission event publisher", zap.Error(err))
	}
	defer publisher.Close()

	// --- Сервисы ---
	toolRepo := tools.NewPgRepository(pool, log)
	submissionService := submission.NewService(
		submission.NewPgRepository(pool, log),
		publisher,
		submission.Fees{SubmissionFee: cfg.SubmissionFee, ProcessingFee: cfg.ProcessingFee},
		log,
	)

	hub := realtime.NewHub(cfg.CORSOrigins, log)
	go hub.Run(ctx)

	sessions := session.NewManager(kv, submissionService, hub, session.Config{
		TTL:                cfg.SessionTTL,
		ComparisonCapacity: cfg.ComparisonCapacity,
	}, log)
	go sessions.RunJanitor(ctx, janitorInterval, cfg.SessionIdleEvict)

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, log)
	if err != nil {
		log.Fatal("Failed to create JWT verifier", zap.Error(err))
	}

	var notifications handler.NotificationReader
	if redisClient != nil {
		notifications = notification.NewStore(redisClient, notification.DefaultKey, notification.DefaultLimit, log)
	}

	h := handler.New(handler.Deps{
		Sessions:      sessions,
		Tools:         toolRepo,
		Reviews:       tools.NewPgReviewRepository(pool, log),
		Submissions:   submissionService,
		Notifications: notifications,
		Realtime:      hub,
		Auth:          auth.NewMiddleware(verifier.VerifyToken, log),
		SubmitLimiter: submitRateLimiter(cfg, redisClient, log),
	}, log)

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(handler.ZapLogger(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "postgres": err.Error()})
			return
		}
		if mqConn.IsClosed() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "rabbitmq": "connection closed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.RegisterRoutes(router)

	// Метрики собираются после регистрации маршрутов, /metrics отдается тем же роутером.
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// submitRateLimiter ограничивает отправку заявок по IP. С Redis счетчики общие для всех реплик.
func submitRateLimiter(cfg *config.Config, redisClient *redis.Client, log *zap.Logger) gin.HandlerFunc {
	var store ratelimit.Store
	if redisClient != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: redisClient,
			Rate:        cfg.SubmitRateWindow,
			Limit:       cfg.SubmitRateLimit,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  cfg.SubmitRateWindow,
			Limit: cfg.SubmitRateLimit,
		})
	}

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			log.Warn("Submit rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "rate_limited",
				"message": "Too many submissions. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
