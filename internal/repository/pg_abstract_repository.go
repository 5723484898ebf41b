package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// abstractColumns is the column list shared by all abstract SELECT queries.
const abstractColumns = `id, event_id, registration_id, category_id,
		title, content, word_count, status,
		assigned_reviewers, reviews, average_score,
		final_decision, decision_by, decision_date, decision_reason,
		revision_deadline, version,
		submitted_at, created_at, updated_at`

// Compile-time interface verification.
var _ AbstractRepository = (*PgAbstractRepository)(nil)

// PgAbstractRepository is a PostgreSQL implementation of AbstractRepository.
type PgAbstractRepository struct {
	db DBTX
}

// NewPgAbstractRepository creates a new PostgreSQL abstract repository.
func NewPgAbstractRepository(db DBTX) *PgAbstractRepository {
	return &PgAbstractRepository{db: db}
}

// Create inserts a new abstract record.
func (r *PgAbstractRepository) Create(ctx context.Context, abstract *domain.AbstractRecord) error {
	if abstract == nil {
		return domain.NewValidationError("abstract", "abstract cannot be nil")
	}
	if abstract.ID == uuid.Nil {
		return domain.NewValidationError("id", "abstract ID is required")
	}
	if abstract.EventID == uuid.Nil {
		return domain.NewValidationError("event_id", "event ID is required")
	}
	if abstract.RegistrationID == uuid.Nil {
		return domain.NewValidationError("registration_id", "registration ID is required")
	}

	reviewsJSON, err := marshalReviews(abstract.Reviews)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO abstracts (
			id, event_id, registration_id, category_id,
			title, content, word_count, status,
			assigned_reviewers, reviews, average_score,
			final_decision, decision_by, decision_date, decision_reason,
			revision_deadline, version,
			submitted_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14, $15,
			$16, $17,
			$18, $19, $20
		)`

	_, err = r.db.Exec(ctx, query,
		abstract.ID, abstract.EventID, abstract.RegistrationID, abstract.CategoryID,
		abstract.Title, abstract.Content, abstract.WordCount, abstract.Status,
		reviewerIDs(abstract.AssignedReviewers), reviewsJSON, abstract.AverageScore,
		nullString(string(abstract.FinalDecision)), abstract.DecisionBy, abstract.DecisionDate, nullString(abstract.DecisionReason),
		abstract.RevisionDeadline, abstract.Version,
		abstract.SubmittedAt, abstract.CreatedAt, abstract.UpdatedAt,
	)

	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("abstract", abstract.ID.String())
		}
		if isPgForeignKeyViolation(err) {
			return domain.NewNotFoundError("event", abstract.EventID.String())
		}
		return fmt.Errorf("failed to create abstract: %w", err)
	}

	return nil
}

// Get retrieves an abstract record by its ID.
func (r *PgAbstractRepository) Get(ctx context.Context, id uuid.UUID) (*domain.AbstractRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM abstracts WHERE id = $1", abstractColumns)

	row := r.db.QueryRow(ctx, query, id)
	abstract, err := scanAbstract(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("abstract", id.String())
		}
		return nil, fmt.Errorf("failed to get abstract: %w", err)
	}

	return abstract, nil
}

// GetForUpdate retrieves an abstract record with a row lock. The caller must
// run this within a transaction; otherwise the lock is released immediately.
func (r *PgAbstractRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.AbstractRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM abstracts WHERE id = $1 FOR UPDATE", abstractColumns)

	row := r.db.QueryRow(ctx, query, id)
	abstract, err := scanAbstract(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("abstract", id.String())
		}
		return nil, fmt.Errorf("failed to lock abstract: %w", err)
	}

	return abstract, nil
}

// Save persists all mutable fields of the record guarded by its version.
func (r *PgAbstractRepository) Save(ctx context.Context, abstract *domain.AbstractRecord) error {
	if abstract == nil {
		return domain.NewValidationError("abstract", "abstract cannot be nil")
	}

	reviewsJSON, err := marshalReviews(abstract.Reviews)
	if err != nil {
		return err
	}

	abstract.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE abstracts SET
			category_id = $1,
			title = $2,
			content = $3,
			word_count = $4,
			status = $5,
			assigned_reviewers = $6,
			reviews = $7,
			average_score = $8,
			final_decision = $9,
			decision_by = $10,
			decision_date = $11,
			decision_reason = $12,
			revision_deadline = $13,
			version = version + 1,
			submitted_at = $14,
			updated_at = $15
		WHERE id = $16 AND version = $17`

	result, err := r.db.Exec(ctx, query,
		abstract.CategoryID,
		abstract.Title,
		abstract.Content,
		abstract.WordCount,
		abstract.Status,
		reviewerIDs(abstract.AssignedReviewers),
		reviewsJSON,
		abstract.AverageScore,
		nullString(string(abstract.FinalDecision)),
		abstract.DecisionBy,
		abstract.DecisionDate,
		nullString(abstract.DecisionReason),
		abstract.RevisionDeadline,
		abstract.SubmittedAt,
		abstract.UpdatedAt,
		abstract.ID, abstract.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save abstract: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a concurrent modification from a deleted row.
		var current int
		err := r.db.QueryRow(ctx, "SELECT version FROM abstracts WHERE id = $1", abstract.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewNotFoundError("abstract", abstract.ID.String())
		}
		if err != nil {
			return fmt.Errorf("failed to check abstract version: %w", err)
		}
		return domain.NewConflictError("abstract", abstract.ID.String(), current)
	}

	abstract.Version++
	return nil
}

// List retrieves abstract records matching the filter criteria.
func (r *PgAbstractRepository) List(ctx context.Context, filter AbstractFilter) ([]*domain.AbstractRecord, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	// Build dynamic WHERE clause
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIndex := 1

	if filter.EventID != nil {
		conditions = append(conditions, fmt.Sprintf("event_id = $%d", argIndex))
		args = append(args, *filter.EventID)
		argIndex++
	}

	if filter.RegistrationID != nil {
		conditions = append(conditions, fmt.Sprintf("registration_id = $%d", argIndex))
		args = append(args, *filter.RegistrationID)
		argIndex++
	}

	if filter.ReviewerID != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_reviewers @> ARRAY[$%d]::uuid[]", argIndex))
		args = append(args, *filter.ReviewerID)
		argIndex++
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, s)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.CreatedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("created_at > $%d", argIndex))
		args = append(args, *filter.CreatedAfter)
		argIndex++
	}

	if filter.CreatedBefore != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argIndex))
		args = append(args, *filter.CreatedBefore)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// Count total matching records
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM abstracts WHERE %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count abstracts: %w", err)
	}

	// Query with pagination
	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM abstracts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		abstractColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list abstracts: %w", err)
	}
	defer rows.Close()

	abstracts := make([]*domain.AbstractRecord, 0, filter.Limit)
	for rows.Next() {
		abstract, err := scanAbstractFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan abstract: %w", err)
		}
		abstracts = append(abstracts, abstract)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating abstracts: %w", err)
	}

	return abstracts, totalCount, nil
}

// marshalReviews serializes the review entries for the jsonb column.
func marshalReviews(reviews []domain.ReviewEntry) ([]byte, error) {
	if reviews == nil {
		reviews = []domain.ReviewEntry{}
	}
	data, err := json.Marshal(reviews)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reviews: %w", err)
	}
	return data, nil
}

// reviewerIDs normalizes a nil reviewer set to an empty array for the uuid[]
// column.
func reviewerIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

// abstractScanDest holds the destination pointers for scanning an abstract row.
// This eliminates code duplication between pgx.Row and pgx.Rows scanning.
type abstractScanDest struct {
	abstract       domain.AbstractRecord
	reviewsJSON    []byte
	finalDecision  *string
	decisionReason *string
}

// destinations returns the slice of pointers for Scan operations.
func (d *abstractScanDest) destinations() []interface{} {
	return []interface{}{
		&d.abstract.ID, &d.abstract.EventID, &d.abstract.RegistrationID, &d.abstract.CategoryID,
		&d.abstract.Title, &d.abstract.Content, &d.abstract.WordCount, &d.abstract.Status,
		&d.abstract.AssignedReviewers, &d.reviewsJSON, &d.abstract.AverageScore,
		&d.finalDecision, &d.abstract.DecisionBy, &d.abstract.DecisionDate, &d.decisionReason,
		&d.abstract.RevisionDeadline, &d.abstract.Version,
		&d.abstract.SubmittedAt, &d.abstract.CreatedAt, &d.abstract.UpdatedAt,
	}
}

// finalize performs post-scan processing: sets nullable string fields and unmarshals JSON.
func (d *abstractScanDest) finalize() (*domain.AbstractRecord, error) {
	if d.finalDecision != nil {
		d.abstract.FinalDecision = domain.AbstractStatus(*d.finalDecision)
	}
	if d.decisionReason != nil {
		d.abstract.DecisionReason = *d.decisionReason
	}

	if len(d.reviewsJSON) > 0 {
		if err := json.Unmarshal(d.reviewsJSON, &d.abstract.Reviews); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reviews: %w", err)
		}
	}

	return &d.abstract, nil
}

// scanAbstract scans a single row into an AbstractRecord.
func scanAbstract(row pgx.Row) (*domain.AbstractRecord, error) {
	var dest abstractScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanAbstractFromRows scans the current row from pgx.Rows into an AbstractRecord.
func scanAbstractFromRows(rows pgx.Rows) (*domain.AbstractRecord, error) {
	var dest abstractScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
