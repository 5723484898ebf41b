package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// RequestRevisionInput carries an admin revision request.
type RequestRevisionInput struct {
	AbstractID uuid.UUID
	Reason     string
	Deadline   *time.Time
}

// RequestRevision moves an abstract to revision-requested, recording who
// asked for the revision and an optional resubmission deadline. Only
// elevated actors may request revisions; the abstract must be somewhere in
// the active review cycle.
func (s *Service) RequestRevision(ctx context.Context, actor domain.Actor, input RequestRevisionInput) (*domain.AbstractRecord, error) {
	if !actor.IsElevated() {
		return nil, domain.NewForbiddenError("request revision", "admin or staff role required")
	}
	if input.Reason == "" {
		return nil, domain.NewValidationError("reason", "revision reason is required")
	}
	if input.Deadline != nil && input.Deadline.Before(s.now()) {
		return nil, domain.NewValidationError("deadline", "revision deadline is in the past")
	}

	var updated *domain.AbstractRecord
	err := s.storage.InTransaction(ctx, func(ops TxOps) error {
		abstract, err := ops.GetAbstractForUpdate(ctx, input.AbstractID)
		if err != nil {
			return err
		}

		switch abstract.Status {
		case domain.StatusDraft:
			return domain.NewStateError("request revision", abstract.Status, "abstract has not been submitted")
		case domain.StatusRevisionRequested:
			return domain.NewStateError("request revision", abstract.Status, "revision already requested")
		}

		now := s.now()
		s.transition(abstract, domain.StatusRevisionRequested)
		abstract.FinalDecision = domain.StatusRevisionRequested
		abstract.RevisionDeadline = input.Deadline
		abstract.DecisionBy = &actor.ID
		abstract.DecisionDate = &now
		abstract.DecisionReason = input.Reason

		cfg, err := ops.GetEventConfig(ctx, abstract.EventID)
		if err != nil {
			return err
		}
		if err := s.notifyStatusOutcome(ctx, ops, cfg, abstract, &actor.ID, input.Reason); err != nil {
			return err
		}

		if err := ops.SaveAbstract(ctx, abstract); err != nil {
			return err
		}
		updated = abstract
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRevisionRequested()
	}
	s.logger.Info().
		Str("abstract_id", input.AbstractID.String()).
		Str("requested_by", actor.ID.String()).
		Msg("revision requested")

	return updated, nil
}

// ResubmitRevisionInput carries the author's revised abstract.
type ResubmitRevisionInput struct {
	AbstractID uuid.UUID
	Title      string
	Content    string
}

// ResubmitRevision replaces the abstract's content with the author's
// revision and returns it to the review cycle as revised-pending-review.
// Only the owning registration may resubmit; for any other caller the
// abstract presents as not found. Resubmission after the revision deadline
// is rejected. Assigned reviewers keep their assignments and are notified
// that a revised version awaits them; their previous review entries remain
// until they re-review.
func (s *Service) ResubmitRevision(ctx context.Context, actor domain.Actor, input ResubmitRevisionInput) (*domain.AbstractRecord, error) {
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

	var updated *domain.AbstractRecord
	err := s.storage.InTransaction(ctx, func(ops TxOps) error {
		abstract, err := ops.GetAbstractForUpdate(ctx, input.AbstractID)
		if err != nil {
			return err
		}

		// Ownership is checked before status so non-owners cannot probe the
		// abstract's existence or state.
		if !abstract.IsOwnedBy(actor.ID) && !actor.IsElevated() {
			return domain.NewNotFoundError("abstract", input.AbstractID.String())
		}

		if abstract.Status != domain.StatusRevisionRequested {
			return domain.NewStateError("resubmit", abstract.Status, "no revision was requested")
		}

		now := s.now()
		if abstract.RevisionDeadline != nil && now.After(*abstract.RevisionDeadline) {
			return domain.NewDeadlinePassedError(*abstract.RevisionDeadline)
		}

		abstract.Title = input.Title
		abstract.Content = input.Content
		abstract.WordCount = wordCount
		abstract.SubmittedAt = &now
		s.transition(abstract, domain.StatusRevisedPendingReview)

		cfg, err := ops.GetEventConfig(ctx, abstract.EventID)
		if err != nil {
			return err
		}
		if len(abstract.AssignedReviewers) > 0 {
			payload := domain.RevisionResubmittedPayload{
				AbstractID:    abstract.ID,
				AbstractTitle: abstract.Title,
			}
			if err := s.enqueueNotification(ctx, ops, cfg, domain.NotifyRevisionResubmitted,
				abstract, abstract.AssignedReviewers, payload); err != nil {
				return err
			}
		}

		if err := ops.SaveAbstract(ctx, abstract); err != nil {
			return err
		}
		updated = abstract
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordAbstractResubmitted()
	}
	s.logger.Info().
		Str("abstract_id", input.AbstractID.String()).
		Int("word_count", wordCount).
		Msg("revised abstract resubmitted")

	return updated, nil
}

// DecideInput carries an admin's final accept or reject decision.
type DecideInput struct {
	AbstractID uuid.UUID
	Reason     string
}

// ApproveAbstract records an admin approval, overriding whatever the
// individual reviewer decisions produced.
func (s *Service) ApproveAbstract(ctx context.Context, actor domain.Actor, input DecideInput) (*domain.AbstractRecord, error) {
	return s.decide(ctx, actor, input, domain.StatusApproved)
}

// RejectAbstract records an admin rejection, overriding whatever the
// individual reviewer decisions produced.
func (s *Service) RejectAbstract(ctx context.Context, actor domain.Actor, input DecideInput) (*domain.AbstractRecord, error) {
	return s.decide(ctx, actor, input, domain.StatusRejected)
}

func (s *Service) decide(ctx context.Context, actor domain.Actor, input DecideInput, outcome domain.AbstractStatus) (*domain.AbstractRecord, error) {
	action := "approve"
	if outcome == domain.StatusRejected {
		action = "reject"
	}

	if !actor.IsElevated() {
		return nil, domain.NewForbiddenError(action, "admin or staff role required")
	}

	var updated *domain.AbstractRecord
	err := s.storage.InTransaction(ctx, func(ops TxOps) error {
		abstract, err := ops.GetAbstractForUpdate(ctx, input.AbstractID)
		if err != nil {
			return err
		}

		if abstract.Status == domain.StatusDraft {
			return domain.NewStateError(action, abstract.Status, "abstract has not been submitted")
		}
		if abstract.Status == outcome {
			return domain.NewStateError(action, abstract.Status, "decision already recorded")
		}

		now := s.now()
		s.transition(abstract, outcome)
		abstract.FinalDecision = outcome
		abstract.DecisionBy = &actor.ID
		abstract.DecisionDate = &now
		abstract.DecisionReason = input.Reason
		abstract.RevisionDeadline = nil

		cfg, err := ops.GetEventConfig(ctx, abstract.EventID)
		if err != nil {
			return err
		}
		if err := s.notifyStatusOutcome(ctx, ops, cfg, abstract, &actor.ID, input.Reason); err != nil {
			return err
		}

		if err := ops.SaveAbstract(ctx, abstract); err != nil {
			return err
		}
		updated = abstract
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(string(outcome), true)
	}
	s.logger.Info().
		Str("abstract_id", input.AbstractID.String()).
		Str("decided_by", actor.ID.String()).
		Str("outcome", string(outcome)).
		Msg("final decision recorded")

	return updated, nil
}
