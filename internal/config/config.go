// Package config loads the worker's configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the stockroom worker.
type Config struct {
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// DatabaseConfig holds PostgreSQL configuration for the single worker
// connection.
type DatabaseConfig struct {
	Host           string        `envconfig:"DATABASE_HOST" default:"localhost"`
	Port           int           `envconfig:"DATABASE_PORT" default:"5432"`
	User           string        `envconfig:"DATABASE_USER" default:"stockroom"`
	Password       string        `envconfig:"DATABASE_PASSWORD" default:"stockroom"`
	Database       string        `envconfig:"DATABASE_NAME" default:"stockroom"`
	SSLMode        string        `envconfig:"DATABASE_SSL_MODE" default:"disable"`
	ConnectTimeout time.Duration `envconfig:"DATABASE_CONNECT_TIMEOUT" default:"10s"`
}

// RedisConfig holds the optional session cache configuration. When
// disabled the session lives in process memory only.
type RedisConfig struct {
	Enabled    bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host       string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port       int           `envconfig:"REDIS_PORT" default:"6379"`
	Password   string        `envconfig:"REDIS_PASSWORD" default:""`
	DB         int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL time.Duration `envconfig:"REDIS_SESSION_TTL" default:"24h"`
}

// NATSConfig holds the optional domain event stream configuration.
type NATSConfig struct {
	Enabled       bool          `envconfig:"NATS_ENABLED" default:"false"`
	URL           string        `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	SubjectPrefix string        `envconfig:"NATS_SUBJECT_PREFIX" default:"stockroom"`
	MaxReconnects int           `envconfig:"NATS_MAX_RECONNECTS" default:"10"`
	ReconnectWait time.Duration `envconfig:"NATS_RECONNECT_WAIT" default:"2s"`
}

// Load loads configuration from environment variables with the STOCKROOM
// prefix.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("stockroom", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
		int(c.ConnectTimeout.Seconds()),
	)
}

// Address returns the Redis address.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
