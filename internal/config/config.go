package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config - конфигурация API-сервера.
type Config struct {
	Env         string   `envconfig:"ENV" default:"development"`
	Port        string   `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string   `envconfig:"LOG_ENCODING" default:"json"`
	CORSOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	SecretsDir  string   `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// PostgreSQL
	DBHost         string        `envconfig:"DB_HOST" required:"true"`
	DBPort         string        `envconfig:"DB_PORT" default:"5432"`
	DBUser         string        `envconfig:"DB_USER" required:"true"`
	DBName         string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode      string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns     int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout  time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"5m"`
	MigrateOnStart bool          `envconfig:"DB_MIGRATE_ON_START" default:"true"`
	// Секрет, без тега
	DBPassword string `ignored:"true"`

	// Хранилище состояния сессий
	StorageBackend     string        `envconfig:"STORAGE_BACKEND" default:"redis"`
	RedisAddr          string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB            int           `envconfig:"REDIS_DB" default:"0"`
	RedisPassword      string        `ignored:"true"`
	SessionTTL         time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	SessionIdleEvict   time.Duration `envconfig:"SESSION_IDLE_EVICT" default:"30m"`
	ComparisonCapacity int           `envconfig:"COMPARISON_CAPACITY" default:"3"`

	// RabbitMQ
	RabbitMQURL           string `envconfig:"RABBITMQ_URL" required:"true"`
	SubmissionEventsQueue string `envconfig:"SUBMISSION_EVENTS_QUEUE" default:"submission_events"`

	// Оплата размещения
	SubmissionFee float64 `envconfig:"SUBMISSION_FEE" default:"2.00"`
	ProcessingFee float64 `envconfig:"PROCESSING_FEE" default:"0.30"`

	// Ограничение частоты отправки заявок (на IP)
	SubmitRateLimit  uint          `envconfig:"SUBMIT_RATE_LIMIT" default:"5"`
	SubmitRateWindow time.Duration `envconfig:"SUBMIT_RATE_WINDOW" default:"1m"`

	// Секрет, без тега
	JWTSecret string `ignored:"true"`
}

// GetDSN возвращает строку подключения к PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadConfig читает .env (если есть), переменные окружения и секреты из SecretsDir.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	var err error
	if cfg.DBPassword, err = ReadSecret(cfg.SecretsDir, "db_password"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = ReadSecret(cfg.SecretsDir, "jwt_secret"); err != nil {
		return nil, err
	}
	// Пароль Redis необязателен.
	if pw, err := ReadSecret(cfg.SecretsDir, "redis_password"); err == nil {
		cfg.RedisPassword = pw
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StorageBackend = strings.ToLower(c.StorageBackend)
	if c.StorageBackend != StorageRedis && c.StorageBackend != StorageMemory {
		return fmt.Errorf("invalid STORAGE_BACKEND %q: expected %q or %q", c.StorageBackend, StorageRedis, StorageMemory)
	}
	if c.ComparisonCapacity <= 0 {
		return fmt.Errorf("COMPARISON_CAPACITY must be positive, got %d", c.ComparisonCapacity)
	}
	if c.SubmissionFee < 0 || c.ProcessingFee < 0 {
		return errors.New("submission and processing fees must not be negative")
	}
	return nil
}

// LogSummary пишет в лог конфигурацию без секретов.
func (c *Config) LogSummary(logger *zap.Logger) {
	logger.Info("Configuration loaded",
		zap.String("env", c.Env),
		zap.String("port", c.Port),
		zap.String("logLevel", c.LogLevel),
		zap.String("db", fmt.Sprintf("postgres://%s:***@%s:%s/%s?sslmode=%s", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)),
		zap.Int("dbMaxConns", c.DBMaxConns),
		zap.String("storageBackend", c.StorageBackend),
		zap.String("redisAddr", c.RedisAddr),
		zap.Duration("sessionTTL", c.SessionTTL),
		zap.Int("comparisonCapacity", c.ComparisonCapacity),
		zap.String("submissionEventsQueue", c.SubmissionEventsQueue),
		zap.Float64("submissionFee", c.SubmissionFee),
		zap.Float64("processingFee", c.ProcessingFee),
		zap.Strings("corsOrigins", c.CORSOrigins),
	)
}

// ReadSecret читает секрет из файла dir/name (Docker secrets).
func ReadSecret(dir, name string) (string, error) {
	path := dir + string(os.PathSeparator) + name
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", path, err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", path)
	}
	return secret, nil
}
