package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scicomm/abstract-review-service/internal/database"
	"github.com/scicomm/abstract-review-service/internal/domain"
)

// defaultMaxAttempts caps delivery attempts for rows enqueued without
// an explicit one.
const defaultMaxAttempts = 5

// Repository persists notification intents and tracks their delivery state.
type Repository interface {
	// Insert enqueues a notification intent. Call within the same
	// transaction as the state change the notification describes.
	Insert(ctx context.Context, event *domain.NotificationEvent) error

	// FetchPending returns up to limit pending rows in enqueue order.
	FetchPending(ctx context.Context, limit int) ([]*domain.NotificationEvent, error)

	// CountPending returns the number of pending rows.
	CountPending(ctx context.Context) (int, error)

	// MarkPublished records a successful delivery.
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkAttemptFailed records a failed delivery attempt. When final is
	// true the row is marked failed and never retried.
	MarkAttemptFailed(ctx context.Context, id uuid.UUID, lastError string, final bool) error
}

// Compile-time interface verification.
var _ Repository = (*PgRepository)(nil)

// PgRepository is a PostgreSQL implementation of Repository.
type PgRepository struct {
	db database.DBTX
}

// NewPgRepository creates a new PostgreSQL outbox repository.
func NewPgRepository(db database.DBTX) *PgRepository {
	return &PgRepository{db: db}
}

// Insert enqueues a notification intent.
func (r *PgRepository) Insert(ctx context.Context, event *domain.NotificationEvent) error {
	if event == nil {
		return domain.NewValidationError("notification", "notification cannot be nil")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Kind == "" {
		return domain.NewValidationError("kind", "notification kind is required")
	}
	if len(event.RecipientIDs) == 0 {
		return domain.NewValidationError("recipient_ids", "at least one recipient is required")
	}
	if event.Status == "" {
		event.Status = domain.NotificationPending
	}
	if event.MaxAttempts <= 0 {
		event.MaxAttempts = defaultMaxAttempts
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO notification_outbox (
			id, kind, abstract_id, event_id, recipient_ids, payload,
			status, attempts, max_attempts, last_error, created_at, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.Kind, event.AbstractID, event.EventID, event.RecipientIDs, event.Payload,
		event.Status, event.Attempts, event.MaxAttempts, nullableString(event.LastError),
		event.CreatedAt, event.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// FetchPending returns up to limit pending rows in enqueue order.
func (r *PgRepository) FetchPending(ctx context.Context, limit int) ([]*domain.NotificationEvent, error) {
	query := `
		SELECT id, kind, abstract_id, event_id, recipient_ids, payload,
			status, attempts, max_attempts, last_error, created_at, published_at
		FROM notification_outbox
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending notifications: %w", err)
	}
	defer rows.Close()

	var events []*domain.NotificationEvent
	for rows.Next() {
		var event domain.NotificationEvent
		var lastError *string
		if err := rows.Scan(
			&event.ID, &event.Kind, &event.AbstractID, &event.EventID, &event.RecipientIDs, &event.Payload,
			&event.Status, &event.Attempts, &event.MaxAttempts, &lastError,
			&event.CreatedAt, &event.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if lastError != nil {
			event.LastError = *lastError
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return events, nil
}

// CountPending returns the number of pending rows.
func (r *PgRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM notification_outbox WHERE status = 'pending'").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending notifications: %w", err)
	}
	return count, nil
}

// MarkPublished records a successful delivery.
func (r *PgRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE notification_outbox
		SET status = 'published', attempts = attempts + 1, last_error = NULL, published_at = $1
		WHERE id = $2`

	result, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification published: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("notification", id.String())
	}

	return nil
}

// MarkAttemptFailed records a failed delivery attempt.
func (r *PgRepository) MarkAttemptFailed(ctx context.Context, id uuid.UUID, lastError string, final bool) error {
	status := domain.NotificationPending
	if final {
		status = domain.NotificationFailed
	}

	query := `
		UPDATE notification_outbox
		SET status = $1, attempts = attempts + 1, last_error = $2
		WHERE id = $3`

	result, err := r.db.Exec(ctx, query, status, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification attempt: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("notification", id.String())
	}

	return nil
}

// Get retrieves a notification row by ID. Used by tests and operational
// tooling.
func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (*domain.NotificationEvent, error) {
	query := `
		SELECT id, kind, abstract_id, event_id, recipient_ids, payload,
			status, attempts, max_attempts, last_error, created_at, published_at
		FROM notification_outbox
		WHERE id = $1`

	var event domain.NotificationEvent
	var lastError *string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.Kind, &event.AbstractID, &event.EventID, &event.RecipientIDs, &event.Payload,
		&event.Status, &event.Attempts, &event.MaxAttempts, &lastError,
		&event.CreatedAt, &event.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("notification", id.String())
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if lastError != nil {
		event.LastError = *lastError
	}

	return &event, nil
}

// nullableString returns a pointer to the string if non-empty, otherwise nil.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
