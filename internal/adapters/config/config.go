package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"coinwhisperer/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Storage       StorageConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	Analysis      AnalysisConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"coinwhisperer"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type HTTPConfig struct {
	Port         int           `envconfig:"HTTP_PORT" default:"3000"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
}

// Recognized storage backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// StorageConfig selects which store backend serves the dashboard.
type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" default:"memory"`
}
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"coinwhisperer"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host      string `envconfig:"REDIS_HOST" default:"localhost"`
	Port      int    `envconfig:"REDIS_PORT" default:"6379"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"coinwhisperer"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig configures the optional event mirror. Broadcasting to
// WebSocket clients works without Kafka; events are additionally published
// to the topic when brokers are set.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_EVENTS_TOPIC" default:"coinwhisperer.events"`
}

// Enabled reports whether the Kafka event mirror is configured
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// TelegramConfig configures the optional trade notifier
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// Enabled reports whether the Telegram notifier is configured
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// AnalysisConfig tunes the ingestion/analysis step
type AnalysisConfig struct {
	// Number of most recent posts averaged into overall sentiment
	SentimentLookback int `envconfig:"ANALYSIS_SENTIMENT_LOOKBACK" default:"100"`

	// Request-scoped timeout for a single analysis run
	RunTimeout time.Duration `envconfig:"ANALYSIS_RUN_TIMEOUT" default:"10s"`

	// Rate limit for POST /api/analyze
	RateLimit float64 `envconfig:"ANALYSIS_RATE_LIMIT" default:"1"`
	RateBurst int     `envconfig:"ANALYSIS_RATE_BURST" default:"3"`

	// Optional background worker re-running analysis on an interval.
	// Disabled by default: the dashboard triggers analysis on demand.
	WorkerEnabled  bool          `envconfig:"ANALYSIS_WORKER_ENABLED" default:"false"`
	WorkerInterval time.Duration `envconfig:"ANALYSIS_WORKER_INTERVAL" default:"1m"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that envconfig tags cannot express: backend
// credentials are required only for the backend actually selected.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.Postgres.User == "" {
			return errors.NewValidationError("POSTGRES_USER", "required for postgres backend", c.Postgres.User)
		}
	default:
		return errors.Wrapf(errors.ErrUnknownBackend, "%q", c.Storage.Backend)
	}

	if c.Analysis.SentimentLookback <= 0 {
		return errors.NewValidationError("ANALYSIS_SENTIMENT_LOOKBACK", "must be positive", c.Analysis.SentimentLookback)
	}

	return nil
}
