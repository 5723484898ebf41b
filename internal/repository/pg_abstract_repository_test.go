package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// Helper to create a valid abstract record for testing.
func newTestAbstract() *domain.AbstractRecord {
	now := time.Now().UTC()
	return &domain.AbstractRecord{
		ID:                uuid.New(),
		EventID:           uuid.New(),
		RegistrationID:    uuid.New(),
		Title:             "Transactional Outbox Patterns",
		Content:           "We evaluate outbox relays under partial failure.",
		WordCount:         7,
		Status:            domain.StatusSubmitted,
		AssignedReviewers: []uuid.UUID{},
		Reviews:           []domain.ReviewEntry{},
		Version:           1,
		SubmittedAt:       &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// abstractRow builds a mock result row matching abstractColumns.
func abstractRow(a *domain.AbstractRecord) *pgxmock.Rows {
	reviewsJSON, _ := json.Marshal(a.Reviews)
	var finalDecision *string
	if a.FinalDecision != "" {
		s := string(a.FinalDecision)
		finalDecision = &s
	}
	var decisionReason *string
	if a.DecisionReason != "" {
		decisionReason = &a.DecisionReason
	}

	return pgxmock.NewRows([]string{
		"id", "event_id", "registration_id", "category_id",
		"title", "content", "word_count", "status",
		"assigned_reviewers", "reviews", "average_score",
		"final_decision", "decision_by", "decision_date", "decision_reason",
		"revision_deadline", "version",
		"submitted_at", "created_at", "updated_at",
	}).AddRow(
		a.ID, a.EventID, a.RegistrationID, a.CategoryID,
		a.Title, a.Content, a.WordCount, a.Status,
		a.AssignedReviewers, reviewsJSON, a.AverageScore,
		finalDecision, a.DecisionBy, a.DecisionDate, decisionReason,
		a.RevisionDeadline, a.Version,
		a.SubmittedAt, a.CreatedAt, a.UpdatedAt,
	)
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPgAbstractRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts the record", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		repo := NewPgAbstractRepository(mock)

		mock.ExpectExec("INSERT INTO abstracts").
			WithArgs(anyArgs(20)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Create(ctx, abstract))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("validates required fields", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAbstractRepository(mock)

		assert.ErrorIs(t, repo.Create(ctx, nil), domain.ErrInvalidInput)

		abstract := newTestAbstract()
		abstract.ID = uuid.Nil
		assert.ErrorIs(t, repo.Create(ctx, abstract), domain.ErrInvalidInput)

		abstract = newTestAbstract()
		abstract.EventID = uuid.Nil
		assert.ErrorIs(t, repo.Create(ctx, abstract), domain.ErrInvalidInput)

		abstract = newTestAbstract()
		abstract.RegistrationID = uuid.Nil
		assert.ErrorIs(t, repo.Create(ctx, abstract), domain.ErrInvalidInput)
	})

	t.Run("duplicate ID", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		repo := NewPgAbstractRepository(mock)

		mock.ExpectExec("INSERT INTO abstracts").
			WithArgs(anyArgs(20)...).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

		err = repo.Create(ctx, abstract)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown event", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		repo := NewPgAbstractRepository(mock)

		mock.ExpectExec("INSERT INTO abstracts").
			WithArgs(anyArgs(20)...).
			WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})

		err = repo.Create(ctx, abstract)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgAbstractRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the record", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		score := 7.5
		abstract.AverageScore = &score
		abstract.Reviews = []domain.ReviewEntry{{
			ReviewerID: uuid.New(),
			Score:      &score,
			Decision:   domain.DecisionAccept,
			IsComplete: true,
			ReviewedAt: time.Now().UTC(),
		}}
		repo := NewPgAbstractRepository(mock)

		mock.ExpectQuery("(?s)SELECT .* FROM abstracts WHERE id = \\$1").
			WithArgs(abstract.ID).
			WillReturnRows(abstractRow(abstract))

		got, err := repo.Get(ctx, abstract.ID)
		require.NoError(t, err)
		assert.Equal(t, abstract.ID, got.ID)
		assert.Equal(t, abstract.Title, got.Title)
		require.NotNil(t, got.AverageScore)
		assert.InDelta(t, 7.5, *got.AverageScore, 1e-9)
		require.Len(t, got.Reviews, 1)
		assert.Equal(t, domain.DecisionAccept, got.Reviews[0].Decision)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAbstractRepository(mock)
		id := uuid.New()

		mock.ExpectQuery("(?s)SELECT .* FROM abstracts WHERE id = \\$1").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgAbstractRepository_GetForUpdate(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	abstract := newTestAbstract()
	repo := NewPgAbstractRepository(mock)

	mock.ExpectQuery("(?s)SELECT .* FROM abstracts WHERE id = \\$1 FOR UPDATE").
		WithArgs(abstract.ID).
		WillReturnRows(abstractRow(abstract))

	got, err := repo.GetForUpdate(ctx, abstract.ID)
	require.NoError(t, err)
	assert.Equal(t, abstract.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAbstractRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps the version on success", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		repo := NewPgAbstractRepository(mock)

		mock.ExpectExec("UPDATE abstracts SET").
			WithArgs(anyArgs(17)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.Save(ctx, abstract))
		assert.Equal(t, 2, abstract.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent modification is a conflict", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		repo := NewPgAbstractRepository(mock)

		mock.ExpectExec("UPDATE abstracts SET").
			WithArgs(anyArgs(17)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT version FROM abstracts WHERE id = \\$1").
			WithArgs(abstract.ID).
			WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(3))

		err = repo.Save(ctx, abstract)
		require.ErrorIs(t, err, domain.ErrConflict)

		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 3, conflict.Version)
		assert.Equal(t, 1, abstract.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleted row is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		repo := NewPgAbstractRepository(mock)

		mock.ExpectExec("UPDATE abstracts SET").
			WithArgs(anyArgs(17)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT version FROM abstracts WHERE id = \\$1").
			WithArgs(abstract.ID).
			WillReturnError(pgx.ErrNoRows)

		err = repo.Save(ctx, abstract)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates exec errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		repo := NewPgAbstractRepository(mock)

		mock.ExpectExec("UPDATE abstracts SET").
			WithArgs(anyArgs(17)...).
			WillReturnError(errors.New("connection reset"))

		err = repo.Save(ctx, abstract)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save abstract")
	})
}

func TestPgAbstractRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("lists with filters and pagination", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		abstract := newTestAbstract()
		repo := NewPgAbstractRepository(mock)

		filter := AbstractFilter{
			EventID: &abstract.EventID,
			Status:  []domain.AbstractStatus{domain.StatusSubmitted, domain.StatusUnderReview},
			Limit:   25,
		}

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM abstracts WHERE").
			WithArgs(abstract.EventID, domain.StatusSubmitted, domain.StatusUnderReview).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectQuery("(?s)SELECT .* FROM abstracts.*WHERE.*ORDER BY created_at DESC").
			WithArgs(abstract.EventID, domain.StatusSubmitted, domain.StatusUnderReview, 25, 0).
			WillReturnRows(abstractRow(abstract))

		abstracts, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, abstracts, 1)
		assert.Equal(t, abstract.ID, abstracts[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters by assigned reviewer", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAbstractRepository(mock)
		reviewerID := uuid.New()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM abstracts WHERE .* assigned_reviewers @> ARRAY\\[\\$1\\]::uuid\\[\\]").
			WithArgs(reviewerID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery("(?s)SELECT .* FROM abstracts").
			WithArgs(reviewerID, defaultFilterLimit, 0).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		abstracts, total, err := repo.List(ctx, AbstractFilter{ReviewerID: &reviewerID})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, abstracts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an invalid filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAbstractRepository(mock)

		_, _, err = repo.List(ctx, AbstractFilter{
			Status: []domain.AbstractStatus{domain.AbstractStatus("archived")},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
