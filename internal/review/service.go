// Package review implements the abstract review workflow: intake, reviewer
// assignment, review submission with score and decision aggregation, and the
// revision-resubmission cycle.
//
// All workflow operations run inside a single storage transaction obtained
// from Storage.InTransaction. Notification intents are enqueued in the same
// transaction as the state change they describe, so an aborted operation
// never leaks notifications.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scicomm/abstract-review-service/internal/domain"
	"github.com/scicomm/abstract-review-service/internal/observability"
)

// Abstract content limits enforced at intake and resubmission.
const (
	MaxTitleLength   = 300
	MaxAbstractWords = 500
)

// Review score bounds.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// TxOps groups the storage operations available inside one workflow
// transaction. All mutations performed through a TxOps either commit together
// or roll back together.
type TxOps interface {
	// CreateAbstract inserts a new abstract record.
	CreateAbstract(ctx context.Context, abstract *domain.AbstractRecord) error

	// GetAbstractForUpdate retrieves an abstract with a row lock held for the
	// remainder of the transaction.
	GetAbstractForUpdate(ctx context.Context, id uuid.UUID) (*domain.AbstractRecord, error)

	// SaveAbstract persists the record guarded by its version.
	// Returns domain.ErrConflict on concurrent modification.
	SaveAbstract(ctx context.Context, abstract *domain.AbstractRecord) error

	// GetReviewer retrieves a reviewer by ID.
	GetReviewer(ctx context.Context, id uuid.UUID) (*domain.Reviewer, error)

	// IncrementReviewerWorkload adds one to the reviewer's assignment counter.
	IncrementReviewerWorkload(ctx context.Context, id uuid.UUID) error

	// GetEventConfig retrieves the notification and submission-window
	// configuration for an event.
	GetEventConfig(ctx context.Context, id uuid.UUID) (*domain.EventConfig, error)

	// EnqueueNotification inserts a notification intent into the outbox.
	EnqueueNotification(ctx context.Context, event *domain.NotificationEvent) error
}

// Storage is the transactional boundary the workflow runs on.
type Storage interface {
	// InTransaction runs fn inside one storage transaction. If fn returns an
	// error the transaction is rolled back and the error is returned
	// unchanged; otherwise the transaction commits.
	InTransaction(ctx context.Context, fn func(ops TxOps) error) error
}

// Service implements the abstract review workflow operations.
type Service struct {
	storage Storage
	metrics *observability.Metrics
	logger  zerolog.Logger

	// now is the clock used for timestamps and deadline checks.
	now func() time.Time
}

// NewService creates a workflow service over the given storage.
func NewService(storage Storage, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		storage: storage,
		metrics: metrics,
		logger:  logger.With().Str("component", "review_service").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// transition applies a status change to the abstract and records it.
func (s *Service) transition(abstract *domain.AbstractRecord, to domain.AbstractStatus) {
	from := abstract.Status
	if from == to {
		return
	}
	abstract.Status = to
	if s.metrics != nil {
		s.metrics.RecordStatusTransition(string(from), string(to))
	}
	s.logger.Info().
		Str("abstract_id", abstract.ID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("abstract status changed")
}

// enqueueNotification builds and stores a notification intent, honoring the
// event's notification switch. A disabled event silently drops the intent.
func (s *Service) enqueueNotification(
	ctx context.Context,
	ops TxOps,
	cfg *domain.EventConfig,
	kind string,
	abstract *domain.AbstractRecord,
	recipients []uuid.UUID,
	payload interface{},
) error {
	if cfg != nil && !cfg.NotifyEnabled {
		return nil
	}
	if len(recipients) == 0 {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	event := &domain.NotificationEvent{
		ID:           uuid.New(),
		Kind:         kind,
		AbstractID:   abstract.ID,
		EventID:      abstract.EventID,
		RecipientIDs: recipients,
		Payload:      data,
		Status:       domain.NotificationPending,
		CreatedAt:    s.now(),
	}

	if err := ops.EnqueueNotification(ctx, event); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordNotificationEnqueued(kind)
	}
	return nil
}

// domainNotFound reports whether err is a not-found error from storage.
func domainNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// decisionRecipients returns the author plus, when the event opts in, the
// configured admin recipients. Used for final decision notifications.
func decisionRecipients(cfg *domain.EventConfig, abstract *domain.AbstractRecord, approved bool) []uuid.UUID {
	recipients := []uuid.UUID{abstract.RegistrationID}
	if approved && cfg != nil && cfg.NotifyAdminsOnApproval {
		recipients = append(recipients, cfg.AdminRecipients...)
	}
	return recipients
}
