package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scicomm/abstract-review-service/internal/database"
	"github.com/scicomm/abstract-review-service/internal/domain"
	"github.com/scicomm/abstract-review-service/internal/outbox"
	"github.com/scicomm/abstract-review-service/internal/review"
)

// Compile-time checks that the storage satisfies the workflow contracts.
var (
	_ review.Storage = (*Storage)(nil)
	_ review.TxOps   = (*txOps)(nil)
)

// Storage is the PostgreSQL unit of work backing the review workflow. Each
// InTransaction call binds the abstract, reviewer, event, and outbox
// repositories to one database transaction, so a workflow operation's state
// change, counter updates, and notification intents commit or roll back
// together.
type Storage struct {
	db *database.DB
}

// NewStorage creates a unit of work over the given database.
func NewStorage(db *database.DB) *Storage {
	return &Storage{db: db}
}

// InTransaction implements review.Storage.
func (s *Storage) InTransaction(ctx context.Context, fn func(ops review.TxOps) error) error {
	return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		ops := &txOps{
			abstracts: NewPgAbstractRepository(tx),
			reviewers: NewPgReviewerRepository(tx),
			events:    NewPgEventRepository(tx),
			outbox:    outbox.NewPgRepository(tx),
		}
		return fn(ops)
	})
}

// txOps exposes the transaction-bound repositories through the narrow
// interface the workflow needs.
type txOps struct {
	abstracts *PgAbstractRepository
	reviewers *PgReviewerRepository
	events    *PgEventRepository
	outbox    *outbox.PgRepository
}

func (t *txOps) CreateAbstract(ctx context.Context, abstract *domain.AbstractRecord) error {
	return t.abstracts.Create(ctx, abstract)
}

func (t *txOps) GetAbstractForUpdate(ctx context.Context, id uuid.UUID) (*domain.AbstractRecord, error) {
	return t.abstracts.GetForUpdate(ctx, id)
}

func (t *txOps) SaveAbstract(ctx context.Context, abstract *domain.AbstractRecord) error {
	return t.abstracts.Save(ctx, abstract)
}

func (t *txOps) GetReviewer(ctx context.Context, id uuid.UUID) (*domain.Reviewer, error) {
	return t.reviewers.Get(ctx, id)
}

func (t *txOps) IncrementReviewerWorkload(ctx context.Context, id uuid.UUID) error {
	return t.reviewers.IncrementAssignedCount(ctx, id, 1)
}

func (t *txOps) GetEventConfig(ctx context.Context, id uuid.UUID) (*domain.EventConfig, error) {
	return t.events.Get(ctx, id)
}

func (t *txOps) EnqueueNotification(ctx context.Context, event *domain.NotificationEvent) error {
	return t.outbox.Insert(ctx, event)
}
