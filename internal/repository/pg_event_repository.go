package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// Compile-time interface verification.
var _ EventRepository = (*PgEventRepository)(nil)

// PgEventRepository is a PostgreSQL implementation of EventRepository.
type PgEventRepository struct {
	db DBTX
}

// NewPgEventRepository creates a new PostgreSQL event repository.
func NewPgEventRepository(db DBTX) *PgEventRepository {
	return &PgEventRepository{db: db}
}

// Create inserts a new event configuration.
func (r *PgEventRepository) Create(ctx context.Context, event *domain.EventConfig) error {
	if event == nil {
		return domain.NewValidationError("event", "event cannot be nil")
	}
	if event.ID == uuid.Nil {
		return domain.NewValidationError("id", "event ID is required")
	}

	query := `
		INSERT INTO events (
			id, name, notify_enabled, notify_admins_on_approval, admin_recipients,
			submission_open_at, submission_close_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	recipients := event.AdminRecipients
	if recipients == nil {
		recipients = []uuid.UUID{}
	}

	_, err := r.db.Exec(ctx, query,
		event.ID, event.Name, event.NotifyEnabled, event.NotifyAdminsOnApproval, recipients,
		event.SubmissionOpenAt, event.SubmissionCloseAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("event", event.ID.String())
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// Get retrieves the configuration for an event.
func (r *PgEventRepository) Get(ctx context.Context, id uuid.UUID) (*domain.EventConfig, error) {
	query := `
		SELECT id, name, notify_enabled, notify_admins_on_approval, admin_recipients,
			submission_open_at, submission_close_at
		FROM events
		WHERE id = $1`

	var event domain.EventConfig
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.Name, &event.NotifyEnabled, &event.NotifyAdminsOnApproval, &event.AdminRecipients,
		&event.SubmissionOpenAt, &event.SubmissionCloseAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("event", id.String())
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}
