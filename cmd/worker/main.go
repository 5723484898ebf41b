// Package main provides the entry point for the notification relay worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/scicomm/abstract-review-service/internal/config"
	"github.com/scicomm/abstract-review-service/internal/database"
	"github.com/scicomm/abstract-review-service/internal/observability"
	"github.com/scicomm/abstract-review-service/internal/outbox"
)

// relayLockKey is the advisory lock key guarding the outbox relay. Only one
// worker across the deployment may publish at a time; unserialized publishers
// would deliver the same notification twice.
const relayLockKey int64 = 7_201_001

// lockRetryInterval is how long a standby worker waits before retrying the
// advisory lock.
const lockRetryInterval = 5 * time.Second

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "worker").Logger()
	logger.Info().Msg("abstract-review-service worker starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Acquire the relay advisory lock; stand by until it is free. The lock
	// handle pins one connection for the worker's lifetime so the session
	// holding the lock cannot be recycled by the pool.
	lock, err := acquireRelayLock(ctx, db, logger)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			logger.Error().Err(err).Msg("failed to release relay lock")
		}
	}()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("abstract_review")
	}

	// Create the Kafka writer and the relay over the outbox table.
	writer := outbox.NewKafkaWriter(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.BatchSize,
		cfg.Kafka.BatchTimeout,
	)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka writer")
		}
	}()
	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Msg("kafka writer created")

	relay := outbox.NewRelay(
		outbox.NewPgRepository(db.Pool()),
		writer,
		outbox.RelayConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			PublishRate:  cfg.Outbox.PublishRate,
			PublishBurst: cfg.Outbox.PublishBurst,
		},
		logger,
		metrics,
	)

	err = relay.Run(ctx)
	logger.Info().Msg("abstract-review-service worker shutdown complete")
	return err
}

// acquireRelayLock blocks until the advisory lock is held or the context is
// cancelled. Losing the lock race is normal when another worker is active.
func acquireRelayLock(ctx context.Context, db *database.DB, logger zerolog.Logger) (*database.SessionLock, error) {
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		lock, err := db.AcquireAdvisoryLock(ctx, relayLockKey)
		if err != nil {
			return nil, fmt.Errorf("acquire relay lock: %w", err)
		}
		if lock != nil {
			logger.Info().Int64("lock_key", relayLockKey).Msg("relay lock acquired")
			return lock, nil
		}

		logger.Info().
			Int64("lock_key", relayLockKey).
			Dur("retry_in", lockRetryInterval).
			Msg("relay lock held by another worker, standing by")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
