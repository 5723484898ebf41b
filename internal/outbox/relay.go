package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"

	"github.com/scicomm/abstract-review-service/internal/domain"
	"github.com/scicomm/abstract-review-service/internal/observability"
)

// MessageWriter is the Kafka producer surface the relay needs.
// *kafka.Writer satisfies it.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// RelayConfig configures the outbox relay worker.
type RelayConfig struct {
	// PollInterval is how often the relay polls for pending rows.
	PollInterval time.Duration

	// BatchSize is the maximum number of rows fetched per poll.
	BatchSize int

	// PublishRate is the sustained publish rate in messages per second.
	PublishRate float64

	// PublishBurst is the burst size for the rate limiter.
	PublishBurst int
}

// Relay polls the notification outbox and publishes pending rows to Kafka.
// Run one relay per deployment; the worker entrypoint guards this with a
// database advisory lock.
type Relay struct {
	repo    Repository
	writer  MessageWriter
	limiter *rate.Limiter
	config  RelayConfig
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewRelay creates a relay over the given repository and Kafka writer.
func NewRelay(repo Repository, writer MessageWriter, cfg RelayConfig, logger zerolog.Logger, metrics *observability.Metrics) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.PublishRate <= 0 {
		cfg.PublishRate = 50
	}
	if cfg.PublishBurst <= 0 {
		cfg.PublishBurst = int(cfg.PublishRate)
	}

	return &Relay{
		repo:    repo,
		writer:  writer,
		limiter: rate.NewLimiter(rate.Limit(cfg.PublishRate), cfg.PublishBurst),
		config:  cfg,
		metrics: metrics,
		logger:  logger.With().Str("component", "outbox_relay").Logger(),
	}
}

// Run polls until the context is cancelled. It returns the context's error on
// shutdown.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info().
		Dur("poll_interval", r.config.PollInterval).
		Int("batch_size", r.config.BatchSize).
		Float64("publish_rate", r.config.PublishRate).
		Msg("outbox relay started")

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.ProcessBatch(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error().Err(err).Msg("outbox batch failed")
			}
		}
	}
}

// ProcessBatch fetches one batch of pending rows and publishes them.
// Individual publish failures are recorded per row and do not abort the
// batch.
func (r *Relay) ProcessBatch(ctx context.Context) error {
	pending, err := r.repo.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("count pending: %w", err)
	}
	if r.metrics != nil {
		r.metrics.RecordOutboxDepth(pending)
	}
	if pending == 0 {
		return nil
	}

	events, err := r.repo.FetchPending(ctx, r.config.BatchSize)
	if err != nil {
		return fmt.Errorf("fetch pending: %w", err)
	}

	for _, event := range events {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		r.publishOne(ctx, event)
	}

	return nil
}

// publishOne delivers a single notification and records the outcome.
func (r *Relay) publishOne(ctx context.Context, event *domain.NotificationEvent) {
	logger := observability.WithNotificationContext(r.logger, event.ID, event.Kind)

	value, err := json.Marshal(event)
	if err != nil {
		// Unmarshalable rows can never succeed; fail them immediately.
		logger.Error().Err(err).Msg("notification serialization failed")
		r.recordFailure(ctx, event, err.Error(), true)
		return
	}

	msg := kafka.Message{
		// Key by abstract so consumers see one abstract's notifications in order.
		Key:   []byte(event.AbstractID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "notification_id", Value: []byte(event.ID.String())},
		},
	}

	start := time.Now()
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		final := event.Attempts+1 >= event.MaxAttempts
		logger.Warn().
			Err(err).
			Int("attempts", event.Attempts+1).
			Int("max_attempts", event.MaxAttempts).
			Bool("final", final).
			Msg("notification publish failed")
		r.recordFailure(ctx, event, err.Error(), final)
		return
	}

	if err := r.repo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
		logger.Error().Err(err).Msg("failed to mark notification published")
		return
	}

	if r.metrics != nil {
		r.metrics.RecordNotificationPublished(event.Kind, time.Since(start).Seconds())
	}
	logger.Debug().Msg("notification published")
}

func (r *Relay) recordFailure(ctx context.Context, event *domain.NotificationEvent, lastError string, final bool) {
	if err := r.repo.MarkAttemptFailed(ctx, event.ID, lastError, final); err != nil {
		r.logger.Error().Err(err).Str("notification_id", event.ID.String()).Msg("failed to record notification attempt")
		return
	}
	if final && r.metrics != nil {
		r.metrics.RecordNotificationFailed(event.Kind)
	}
}

// NewKafkaWriter creates the Kafka writer used by the relay.
func NewKafkaWriter(brokers []string, topic string, batchSize int, batchTimeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireAll,
	}
}
