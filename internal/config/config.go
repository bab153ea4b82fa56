package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverPebble   = "pebble"
	StorageDriverMemory   = "memory"
)

// Broadcast drivers.
const (
	BroadcastDriverLocal = "local"
	BroadcastDriverRedis = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Broadcast BroadcastConfig
	Kafka     KafkaConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Matching  MatchingConfig
	Telemetry TelemetryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"match-service"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	CORSAllowOrigins      string `env:"HTTP_CORS_ALLOW_ORIGINS" envDefault:"*"`
}

// StorageConfig selects the match and directory store.
type StorageConfig struct {
	Driver    string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	PebbleDir string `env:"PEBBLE_DIR" envDefault:"data/pebble"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr          string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password      string `env:"REDIS_PASSWORD"`
	DB            int    `env:"REDIS_DB" envDefault:"0"`
	ChannelPrefix string `env:"REDIS_CHANNEL_PREFIX" envDefault:"match-service:user:"`
}

// BroadcastConfig controls real-time delivery of lifecycle events.
type BroadcastConfig struct {
	Driver                string `env:"BROADCAST_DRIVER" envDefault:"local"`
	SubscriberBuffer      int    `env:"BROADCAST_SUBSCRIBER_BUFFER" envDefault:"32"`
	DeliveryTimeoutMillis int    `env:"BROADCAST_DELIVERY_TIMEOUT_MS" envDefault:"2000"`
	HeartbeatSeconds      int    `env:"BROADCAST_HEARTBEAT_SECONDS" envDefault:"25"`
}

// KafkaConfig enables mirroring lifecycle events to a topic when brokers are set.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"match-lifecycle"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	BcryptCost            int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
	// AdminEmail and AdminPassword seed the admin account at startup when both are set.
	AdminEmail            string `env:"AUTH_ADMIN_EMAIL"`
	AdminPassword         string `env:"AUTH_ADMIN_PASSWORD"`
}

// MatchingConfig tunes suggestion ranking.
type MatchingConfig struct {
	SuggestConcurrency int `env:"MATCH_SUGGEST_CONCURRENCY" envDefault:"8"`
}

// TelemetryConfig enables OTLP tracing when an endpoint is configured.
type TelemetryConfig struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`
}

// Load reads configuration from the environment after applying the optional
// dotenv files. A missing dotenv file is not an error.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverPebble, StorageDriverMemory:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StorageDriverPostgres && c.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required for the postgres storage driver")
	}

	c.Broadcast.Driver = strings.ToLower(strings.TrimSpace(c.Broadcast.Driver))
	switch c.Broadcast.Driver {
	case BroadcastDriverLocal, BroadcastDriverRedis:
	default:
		return fmt.Errorf("invalid BROADCAST_DRIVER %q", c.Broadcast.Driver)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DeliveryTimeout bounds how long a publish waits on one slow subscriber.
func (b BroadcastConfig) DeliveryTimeout() time.Duration {
	if b.DeliveryTimeoutMillis <= 0 {
		return 0
	}
	return time.Duration(b.DeliveryTimeoutMillis) * time.Millisecond
}

// Heartbeat returns the SSE keep-alive interval.
func (b BroadcastConfig) Heartbeat() time.Duration {
	if b.HeartbeatSeconds <= 0 {
		return 25 * time.Second
	}
	return time.Duration(b.HeartbeatSeconds) * time.Second
}

// SeedAdmin reports whether an admin account should be ensured at startup.
func (a AuthConfig) SeedAdmin() bool {
	return a.AdminEmail != "" && a.AdminPassword != ""
}

// Enabled reports whether the lifecycle mirror should be started.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}
