package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Model     ModelConfig
	Dashboard DashboardConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"forecast"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Host           string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           string        `envconfig:"SERVER_PORT" default:"8000"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	MaxRequestBody int64         `envconfig:"MAX_REQUEST_BODY_BYTES" default:"1048576"`
	RateLimitRPS   float64       `envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"100"`
	CORSOrigin     string        `envconfig:"CORS_ORIGIN" default:"*"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type PostgresConfig struct {
	Host         string        `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port         int           `envconfig:"POSTGRES_PORT" default:"5432"`
	User         string        `envconfig:"POSTGRES_USER" default:"postgres"`
	Password     string        `envconfig:"POSTGRES_PASSWORD"`
	Database     string        `envconfig:"POSTGRES_DB" default:"disease_db"`
	SSLMode      string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLife  time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig leaves event publication off when no brokers are set.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"forecast-events"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type ModelConfig struct {
	Path          string `envconfig:"MODEL_PATH" default:"models/progression.json"`
	ONNXLibrary   string `envconfig:"MODEL_ONNX_LIBRARY"`
	ONNXInput     string `envconfig:"MODEL_ONNX_INPUT" default:"float_input"`
	ONNXOutput    string `envconfig:"MODEL_ONNX_OUTPUT" default:"variable"`
	ONNXModelName string `envconfig:"MODEL_ONNX_NAME" default:"diabetes-progression"`
}

type DashboardConfig struct {
	RecentLimit int           `envconfig:"DASHBOARD_RECENT_LIMIT" default:"10"`
	CacheTTL    time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"15s"`
}

// Load reads an optional .env file (or the one named by ENV_FILE) and then
// the process environment.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &cfg, nil
}
