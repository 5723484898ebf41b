package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// AbstractRepository handles abstract record persistence and lifecycle state.
// An abstract is stored as a single row holding the assigned reviewer set and
// the review entries, so every lifecycle mutation is one atomic row update.
type AbstractRepository interface {
	// Create inserts a new abstract record.
	// The record must have a valid ID, EventID, and RegistrationID.
	// Returns domain.ErrAlreadyExists if a record with the same ID already exists.
	// Returns domain.ErrNotFound if the referenced event does not exist.
	Create(ctx context.Context, abstract *domain.AbstractRecord) error

	// Get retrieves an abstract record by its ID.
	// Returns domain.ErrNotFound if no matching record exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.AbstractRecord, error)

	// GetForUpdate retrieves an abstract record with a row lock (SELECT FOR
	// UPDATE). It must be called within a transaction; the lock is held until
	// the transaction ends. Returns domain.ErrNotFound if no matching record
	// exists.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.AbstractRecord, error)

	// Save persists all mutable fields of the record, guarded by its Version.
	// The row is updated only if the stored version still matches
	// abstract.Version; on success the version is incremented both in the
	// database and on the passed record. Returns domain.ErrConflict if the
	// record was modified concurrently, domain.ErrNotFound if it no longer
	// exists.
	Save(ctx context.Context, abstract *domain.AbstractRecord) error

	// List retrieves abstract records matching the filter criteria.
	// Returns the matching records and total count for pagination.
	List(ctx context.Context, filter AbstractFilter) ([]*domain.AbstractRecord, int64, error)
}

// AbstractFilter specifies criteria for listing abstract records.
type AbstractFilter struct {
	// EventID filters by conference event (optional).
	EventID *uuid.UUID

	// RegistrationID filters by the submitting registration (optional).
	RegistrationID *uuid.UUID

	// ReviewerID filters to abstracts with the reviewer in their assigned set (optional).
	ReviewerID *uuid.UUID

	// Status filters by one or more lifecycle statuses (optional).
	// When multiple statuses are provided, records matching any status are returned.
	Status []domain.AbstractStatus

	// CreatedAfter filters to records created after this timestamp (optional).
	CreatedAfter *time.Time

	// CreatedBefore filters to records created before this timestamp (optional).
	CreatedBefore *time.Time

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the number of results to skip for pagination.
	Offset int
}

// Validate checks the filter criteria and normalizes pagination values.
func (f *AbstractFilter) Validate() error {
	for _, s := range f.Status {
		if !domain.IsValidStatus(s) {
			return domain.NewValidationError("status", "unknown status "+string(s))
		}
	}
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
