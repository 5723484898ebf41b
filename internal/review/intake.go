package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// CreateAbstractInput carries the fields for a new abstract submission.
type CreateAbstractInput struct {
	EventID        uuid.UUID
	RegistrationID uuid.UUID
	CategoryID     *uuid.UUID
	Title          string
	Content        string
}

// CreateAbstract validates and stores a new abstract submission. The event's
// submission window is enforced; intake outside the window is rejected with a
// validation error. The abstract enters the lifecycle as submitted.
func (s *Service) CreateAbstract(ctx context.Context, actor domain.Actor, input CreateAbstractInput) (*domain.AbstractRecord, error) {
	if input.EventID == uuid.Nil {
		return nil, domain.NewValidationError("event_id", "event ID is required")
	}
	if input.RegistrationID == uuid.Nil {
		return nil, domain.NewValidationError("registration_id", "registration ID is required")
	}
	if input.Title == "" {
		return nil, domain.NewValidationError("title", "title is required")
	}
	if len(input.Title) > MaxTitleLength {
		return nil, domain.NewValidationError("title", fmt.Sprintf("title exceeds %d characters", MaxTitleLength))
	}
	if input.Content == "" {
		return nil, domain.NewValidationError("content", "content is required")
	}

	wordCount := domain.CountWords(input.Content)
	if wordCount > MaxAbstractWords {
		return nil, domain.NewValidationError("content", fmt.Sprintf("abstract exceeds %d words", MaxAbstractWords))
	}

	// Authors submit on their own registration; elevated actors may submit
	// on behalf of any registration.
	if !actor.IsElevated() && actor.ID != input.RegistrationID {
		return nil, domain.NewForbiddenError("create abstract", "cannot submit for another registration")
	}

	now := s.now()
	abstract := &domain.AbstractRecord{
		ID:                uuid.New(),
		EventID:           input.EventID,
		RegistrationID:    input.RegistrationID,
		CategoryID:        input.CategoryID,
		Title:             input.Title,
		Content:           input.Content,
		WordCount:         wordCount,
		Status:            domain.StatusSubmitted,
		AssignedReviewers: []uuid.UUID{},
		Reviews:           []domain.ReviewEntry{},
		Version:           1,
		SubmittedAt:       &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.storage.InTransaction(ctx, func(ops TxOps) error {
		cfg, err := ops.GetEventConfig(ctx, input.EventID)
		if err != nil {
			return err
		}
		if !cfg.SubmissionOpen(now) {
			return domain.NewValidationError("event_id", "submission window is closed")
		}
		return ops.CreateAbstract(ctx, abstract)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordAbstractCreated()
	}
	s.logger.Info().
		Str("abstract_id", abstract.ID.String()).
		Str("event_id", abstract.EventID.String()).
		Int("word_count", wordCount).
		Msg("abstract created")

	return abstract, nil
}
