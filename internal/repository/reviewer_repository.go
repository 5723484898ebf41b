package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// ReviewerRepository handles reviewer persistence and workload tracking.
type ReviewerRepository interface {
	// Create inserts a new reviewer.
	// Returns domain.ErrAlreadyExists if a reviewer with the same ID or email
	// already exists.
	Create(ctx context.Context, reviewer *domain.Reviewer) error

	// Get retrieves a reviewer by ID.
	// Returns domain.ErrNotFound if no matching reviewer exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.Reviewer, error)

	// IncrementAssignedCount adds delta to the reviewer's workload counter.
	// Returns domain.ErrNotFound if no matching reviewer exists.
	IncrementAssignedCount(ctx context.Context, id uuid.UUID, delta int) error

	// List retrieves reviewers, optionally restricted to active ones,
	// ordered by ascending workload.
	List(ctx context.Context, activeOnly bool) ([]*domain.Reviewer, error)
}

// EventRepository provides access to per-event configuration.
type EventRepository interface {
	// Create inserts a new event configuration.
	// Returns domain.ErrAlreadyExists if the event already exists.
	Create(ctx context.Context, event *domain.EventConfig) error

	// Get retrieves the configuration for an event.
	// Returns domain.ErrNotFound if no matching event exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.EventConfig, error)
}
