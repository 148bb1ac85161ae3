package config_test

import (
	"testing"
	"time"

	"github.com/stockroomhq/stockroom/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}

		if cfg.Log.Level != "info" {
			t.Errorf("unexpected log level %q", cfg.Log.Level)
		}
		if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
			t.Errorf("unexpected database defaults %s:%d", cfg.Database.Host, cfg.Database.Port)
		}
		if cfg.Redis.Enabled || cfg.NATS.Enabled {
			t.Error("expected redis and nats to default to disabled")
		}
		if cfg.Redis.SessionTTL != 24*time.Hour {
			t.Errorf("unexpected session ttl %v", cfg.Redis.SessionTTL)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("STOCKROOM_DATABASE_HOST", "db.internal")
		t.Setenv("STOCKROOM_DATABASE_PORT", "5433")
		t.Setenv("STOCKROOM_REDIS_ENABLED", "true")
		t.Setenv("STOCKROOM_NATS_SUBJECT_PREFIX", "till1")

		cfg, err := config.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}

		if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
			t.Errorf("unexpected database config %s:%d", cfg.Database.Host, cfg.Database.Port)
		}
		if !cfg.Redis.Enabled {
			t.Error("expected redis to be enabled")
		}
		if cfg.NATS.SubjectPrefix != "till1" {
			t.Errorf("unexpected subject prefix %q", cfg.NATS.SubjectPrefix)
		}
	})
}

func TestConnectionString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:           "localhost",
		Port:           5432,
		User:           "stockroom",
		Password:       "secret",
		Database:       "stockroom",
		SSLMode:        "disable",
		ConnectTimeout: 10 * time.Second,
	}

	want := "host=localhost port=5432 user=stockroom password=secret dbname=stockroom sslmode=disable connect_timeout=10"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("unexpected connection string\n got %q\nwant %q", got, want)
	}
}

func TestRedisAddress(t *testing.T) {
	cfg := config.RedisConfig{Host: "cache.internal", Port: 6380}
	if got := cfg.Address(); got != "cache.internal:6380" {
		t.Errorf("unexpected address %q", got)
	}
}
