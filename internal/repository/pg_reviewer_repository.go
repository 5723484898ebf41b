package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// Compile-time interface verification.
var _ ReviewerRepository = (*PgReviewerRepository)(nil)

// PgReviewerRepository is a PostgreSQL implementation of ReviewerRepository.
type PgReviewerRepository struct {
	db DBTX
}

// NewPgReviewerRepository creates a new PostgreSQL reviewer repository.
func NewPgReviewerRepository(db DBTX) *PgReviewerRepository {
	return &PgReviewerRepository{db: db}
}

// Create inserts a new reviewer.
func (r *PgReviewerRepository) Create(ctx context.Context, reviewer *domain.Reviewer) error {
	if reviewer == nil {
		return domain.NewValidationError("reviewer", "reviewer cannot be nil")
	}
	if reviewer.ID == uuid.Nil {
		return domain.NewValidationError("id", "reviewer ID is required")
	}
	if reviewer.Email == "" {
		return domain.NewValidationError("email", "reviewer email is required")
	}

	query := `
		INSERT INTO reviewers (
			id, name, email, active, assigned_abstracts_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		reviewer.ID, reviewer.Name, reviewer.Email, reviewer.Active,
		reviewer.AssignedAbstractsCount, reviewer.CreatedAt, reviewer.UpdatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("reviewer", reviewer.ID.String())
		}
		return fmt.Errorf("failed to create reviewer: %w", err)
	}

	return nil
}

// Get retrieves a reviewer by ID.
func (r *PgReviewerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Reviewer, error) {
	query := `
		SELECT id, name, email, active, assigned_abstracts_count, created_at, updated_at
		FROM reviewers
		WHERE id = $1`

	var reviewer domain.Reviewer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&reviewer.ID, &reviewer.Name, &reviewer.Email, &reviewer.Active,
		&reviewer.AssignedAbstractsCount, &reviewer.CreatedAt, &reviewer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("reviewer", id.String())
		}
		return nil, fmt.Errorf("failed to get reviewer: %w", err)
	}

	return &reviewer, nil
}

// IncrementAssignedCount adds delta to the reviewer's workload counter.
func (r *PgReviewerRepository) IncrementAssignedCount(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE reviewers
		SET assigned_abstracts_count = assigned_abstracts_count + $1,
			updated_at = $2
		WHERE id = $3`

	result, err := r.db.Exec(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to increment assigned count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("reviewer", id.String())
	}

	return nil
}

// List retrieves reviewers ordered by ascending workload.
func (r *PgReviewerRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Reviewer, error) {
	query := `
		SELECT id, name, email, active, assigned_abstracts_count, created_at, updated_at
		FROM reviewers
		WHERE ($1 = FALSE OR active = TRUE)
		ORDER BY assigned_abstracts_count ASC, created_at ASC`

	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewers: %w", err)
	}
	defer rows.Close()

	var reviewers []*domain.Reviewer
	for rows.Next() {
		var reviewer domain.Reviewer
		if err := rows.Scan(
			&reviewer.ID, &reviewer.Name, &reviewer.Email, &reviewer.Active,
			&reviewer.AssignedAbstractsCount, &reviewer.CreatedAt, &reviewer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reviewer: %w", err)
		}
		reviewers = append(reviewers, &reviewer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviewers: %w", err)
	}

	return reviewers, nil
}
