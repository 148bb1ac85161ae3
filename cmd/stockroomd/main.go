package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	natsclient "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	memorycache "github.com/stockroomhq/stockroom/internal/adapter/outbound/memory"
	natsadapter "github.com/stockroomhq/stockroom/internal/adapter/outbound/nats"
	rediscache "github.com/stockroomhq/stockroom/internal/adapter/outbound/redis"
	"github.com/stockroomhq/stockroom/internal/config"
	"github.com/stockroomhq/stockroom/internal/dispatch"
	"github.com/stockroomhq/stockroom/internal/port/outbound/cache"
	"github.com/stockroomhq/stockroom/internal/port/outbound/messaging"
	"github.com/stockroomhq/stockroom/internal/session"
	"github.com/stockroomhq/stockroom/internal/sqlmanager"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting stockroom worker",
		zap.String("database", cfg.Database.Database),
		zap.String("host", cfg.Database.Host),
	)

	// Open the single worker-owned connection. A failure does not abort:
	// the worker runs in the permanently-failed state and answers every
	// request with a connection-unavailable result instead of dropping it.
	var worker *dispatch.Worker
	conn, err := connectPostgres(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", zap.Error(err))
		worker = dispatch.NewUnavailable(err, dispatch.Options{Logger: logger})
	} else {
		worker = dispatch.New(conn, dispatch.Options{Logger: logger})
	}

	// Session cache: redis when configured, process memory otherwise.
	sessionCache, err := newSessionCache(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	sessions := session.NewManager(sessionCache, logger)
	if err := sessions.Restore(ctx); err != nil {
		logger.Warn("failed to restore session", zap.Error(err))
	}

	// Domain event stream: NATS when configured, no-op otherwise.
	publisher, natsConn, err := newEventPublisher(cfg.NATS, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	// Register the SQL manager factories.
	deps := sqlmanager.Deps{
		Logger:    logger,
		Session:   sessions,
		Publisher: publisher,
	}
	worker.Register(dispatch.DomainUser, sqlmanager.UserFactory(deps))
	worker.Register(dispatch.DomainStock, sqlmanager.StockFactory(deps))
	worker.Register(dispatch.DomainIncome, sqlmanager.IncomeFactory(deps))
	worker.Register(dispatch.DomainDebtor, sqlmanager.DebtorFactory(deps))

	// Keep the session in step with sign-in results.
	results, unsubscribe := worker.Subscribe()
	defer unsubscribe()
	go sessions.Watch(ctx, results)

	errChan := make(chan error, 1)
	go func() {
		errChan <- worker.Run(ctx)
	}()

	logger.Info("stockroom worker started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := worker.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop worker: %w", err)
		}
		cancel()

		logger.Info("stockroom worker stopped gracefully")
		return nil
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgx.Conn, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, err := pgx.Connect(connectCtx, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := conn.Ping(connectCtx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to postgres",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)
	return conn, nil
}

func newSessionCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (cache.SessionCache, error) {
	if !cfg.Enabled {
		return memorycache.NewSessionCache(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to redis", zap.String("address", cfg.Address()))
	return rediscache.NewSessionCache(client, cfg.SessionTTL), nil
}

func newEventPublisher(cfg config.NATSConfig, logger *zap.Logger) (messaging.EventPublisher, *natsclient.Conn, error) {
	if !cfg.Enabled {
		return messaging.NopPublisher{}, nil, nil
	}

	opts := []natsclient.Option{
		natsclient.MaxReconnects(cfg.MaxReconnects),
		natsclient.ReconnectWait(cfg.ReconnectWait),
		natsclient.DisconnectErrHandler(func(nc *natsclient.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		natsclient.ReconnectHandler(func(nc *natsclient.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := natsclient.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	logger.Info("connected to nats", zap.String("url", conn.ConnectedUrl()))
	return natsadapter.NewEventPublisher(conn, cfg.SubjectPrefix), conn, nil
}
