package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
)

// WorkerConfig - конфигурация воркера уведомлений. Читается из yaml-файла,
// переменные окружения имеют приоритет.
type WorkerConfig struct {
	RabbitMQ WorkerRabbitMQConfig `yaml:"rabbitmq"`
	Redis    WorkerRedisConfig    `yaml:"redis"`
	Log      WorkerLogConfig      `yaml:"log"`

	SubmissionEventsQueue string `yaml:"submission_events_queue" env:"SUBMISSION_EVENTS_QUEUE" env-default:"submission_events"`
	NotificationsLimit    int64  `yaml:"notifications_limit" env:"ADMIN_NOTIFICATIONS_LIMIT" env-default:"100"`
	Prefetch              int    `yaml:"prefetch" env:"WORKER_PREFETCH" env-default:"10"`
	HealthCheckPort       string `yaml:"health_check_port" env:"HEALTH_CHECK_PORT" env-default:"8088"`
}

type WorkerRabbitMQConfig struct {
	URL string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
}

type WorkerRedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

type WorkerLogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
}

// LoadWorkerConfig читает configPath, а при его отсутствии - только окружение.
func LoadWorkerConfig(configPath string) (*WorkerConfig, error) {
	var cfg WorkerConfig
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read worker config %s: %w", configPath, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read worker config from env: %w", err)
		}
	}
	if cfg.NotificationsLimit <= 0 {
		return nil, fmt.Errorf("notifications_limit must be positive, got %d", cfg.NotificationsLimit)
	}
	return &cfg, nil
}
