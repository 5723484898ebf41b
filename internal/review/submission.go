package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// SubmitReviewInput carries one reviewer's verdict on an abstract.
type SubmitReviewInput struct {
	AbstractID uuid.UUID
	Score      *float64
	Comments   string
	Decision   domain.ReviewDecision
}

// SubmitReview records a reviewer's score and decision on an abstract and
// derives the resulting lifecycle status. A reviewer resubmitting replaces
// their previous entry in place; the assigned reviewer set is unaffected.
//
// Status derivation is last-writer-wins: the submitted decision moves the
// abstract regardless of what other reviewers decided earlier. An undecided
// decision stores the entry as an incomplete draft and leaves the status
// untouched.
func (s *Service) SubmitReview(ctx context.Context, actor domain.Actor, input SubmitReviewInput) (*domain.AbstractRecord, error) {
	if input.Decision == "" {
		input.Decision = domain.DecisionUndecided
	}
	if !domain.IsValidDecision(input.Decision) {
		return nil, domain.NewValidationError("decision", "unknown decision "+string(input.Decision))
	}
	if input.Score != nil && (*input.Score < MinScore || *input.Score > MaxScore) {
		return nil, domain.NewValidationError("score", fmt.Sprintf("score must be between %.0f and %.0f", MinScore, MaxScore))
	}

	var updated *domain.AbstractRecord
	err := s.storage.InTransaction(ctx, func(ops TxOps) error {
		abstract, err := ops.GetAbstractForUpdate(ctx, input.AbstractID)
		if err != nil {
			return err
		}

		if !abstract.HasReviewer(actor.ID) && !actor.IsElevated() {
			return domain.NewForbiddenError("submit review", "reviewer is not assigned to this abstract")
		}
		if abstract.Status == domain.StatusDraft || abstract.Status == domain.StatusSubmitted {
			return domain.NewStateError("submit review", abstract.Status, "abstract is not under review")
		}

		entry := domain.ReviewEntry{
			ReviewerID: actor.ID,
			Score:      input.Score,
			Comments:   input.Comments,
			Decision:   input.Decision,
			IsComplete: input.Decision != domain.DecisionUndecided,
			ReviewedAt: s.now(),
		}
		abstract.UpsertReview(entry)
		abstract.AverageScore = domain.AverageScore(abstract.Reviews)

		next := domain.NextStatus(abstract.Status, input.Decision)
		statusChanged := next != abstract.Status
		s.transition(abstract, next)

		if statusChanged {
			cfg, err := ops.GetEventConfig(ctx, abstract.EventID)
			if err != nil {
				return err
			}
			if err := s.notifyStatusOutcome(ctx, ops, cfg, abstract, nil, ""); err != nil {
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
		s.metrics.RecordReviewSubmitted(string(input.Decision), input.Score)
	}
	s.logger.Info().
		Str("abstract_id", input.AbstractID.String()).
		Str("reviewer_id", actor.ID.String()).
		Str("decision", string(input.Decision)).
		Str("status", string(updated.Status)).
		Msg("review submitted")

	return updated, nil
}

// notifyStatusOutcome enqueues the notification matching the abstract's new
// status after a review decision or admin override. decidedBy and reason are
// set for admin overrides only.
func (s *Service) notifyStatusOutcome(
	ctx context.Context,
	ops TxOps,
	cfg *domain.EventConfig,
	abstract *domain.AbstractRecord,
	decidedBy *uuid.UUID,
	reason string,
) error {
	switch abstract.Status {
	case domain.StatusApproved:
		payload := domain.StatusChangedPayload{
			AbstractID:    abstract.ID,
			AbstractTitle: abstract.Title,
			Status:        abstract.Status,
			AverageScore:  abstract.AverageScore,
			DecidedBy:     decidedBy,
			Reason:        reason,
		}
		return s.enqueueNotification(ctx, ops, cfg, domain.NotifyAbstractApproved,
			abstract, decisionRecipients(cfg, abstract, true), payload)

	case domain.StatusRejected:
		payload := domain.StatusChangedPayload{
			AbstractID:    abstract.ID,
			AbstractTitle: abstract.Title,
			Status:        abstract.Status,
			AverageScore:  abstract.AverageScore,
			DecidedBy:     decidedBy,
			Reason:        reason,
		}
		return s.enqueueNotification(ctx, ops, cfg, domain.NotifyAbstractRejected,
			abstract, decisionRecipients(cfg, abstract, false), payload)

	case domain.StatusRevisionRequested:
		payload := domain.RevisionRequestedPayload{
			AbstractID:    abstract.ID,
			AbstractTitle: abstract.Title,
			Reason:        reason,
			Deadline:      abstract.RevisionDeadline,
		}
		return s.enqueueNotification(ctx, ops, cfg, domain.NotifyRevisionRequested,
			abstract, []uuid.UUID{abstract.RegistrationID}, payload)
	}

	return nil
}
