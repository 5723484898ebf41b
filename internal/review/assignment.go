package review

import (
	"context"

	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// AssignmentResult reports the per-reviewer outcome of an assignment request.
// The three sets are disjoint and together cover every requested reviewer.
type AssignmentResult struct {
	// NewlyAssigned lists reviewers added to the abstract by this request.
	NewlyAssigned []uuid.UUID `json:"newly_assigned"`

	// AlreadyAssigned lists reviewers that were in the assigned set before
	// this request. Repeating them has no effect on state or counters.
	AlreadyAssigned []uuid.UUID `json:"already_assigned"`

	// Invalid lists reviewers that do not exist, are inactive, or lack an
	// email identity.
	Invalid []uuid.UUID `json:"invalid"`

	// Status is the abstract's status after the assignment.
	Status domain.AbstractStatus `json:"status"`
}

// AssignReviewers adds reviewers to an abstract's assigned set. The operation
// is idempotent per reviewer: repeating an assignment neither duplicates the
// set entry nor increments the workload counter again. Invalid reviewers are
// reported without failing the valid ones; a storage failure rolls the whole
// request back, counters included.
//
// Assigning the first reviewer to an abstract that is awaiting review
// advances it to under-review.
func (s *Service) AssignReviewers(ctx context.Context, actor domain.Actor, abstractID uuid.UUID, reviewerIDs []uuid.UUID) (*AssignmentResult, error) {
	if !actor.IsElevated() {
		return nil, domain.NewForbiddenError("assign reviewers", "admin or staff role required")
	}
	if len(reviewerIDs) == 0 {
		return nil, domain.NewValidationError("reviewer_ids", "at least one reviewer is required")
	}

	result := &AssignmentResult{
		NewlyAssigned:   []uuid.UUID{},
		AlreadyAssigned: []uuid.UUID{},
		Invalid:         []uuid.UUID{},
	}

	err := s.storage.InTransaction(ctx, func(ops TxOps) error {
		abstract, err := ops.GetAbstractForUpdate(ctx, abstractID)
		if err != nil {
			return err
		}

		if abstract.Status.IsDecided() {
			return domain.NewStateError("assign reviewers", abstract.Status, "abstract already decided")
		}

		cfg, err := ops.GetEventConfig(ctx, abstract.EventID)
		if err != nil {
			return err
		}

		// Deduplicate the request itself so a reviewer listed twice is
		// processed once.
		seen := make(map[uuid.UUID]bool, len(reviewerIDs))

		for _, reviewerID := range reviewerIDs {
			if seen[reviewerID] {
				continue
			}
			seen[reviewerID] = true

			if abstract.HasReviewer(reviewerID) {
				result.AlreadyAssigned = append(result.AlreadyAssigned, reviewerID)
				continue
			}

			reviewer, err := ops.GetReviewer(ctx, reviewerID)
			if err != nil {
				if domainNotFound(err) {
					result.Invalid = append(result.Invalid, reviewerID)
					continue
				}
				return err
			}
			if !reviewer.Assignable() {
				result.Invalid = append(result.Invalid, reviewerID)
				continue
			}

			abstract.AssignedReviewers = append(abstract.AssignedReviewers, reviewerID)
			if err := ops.IncrementReviewerWorkload(ctx, reviewerID); err != nil {
				return err
			}

			payload := domain.ReviewerAssignedPayload{
				AbstractID:    abstract.ID,
				AbstractTitle: abstract.Title,
				ReviewerID:    reviewerID,
			}
			if err := s.enqueueNotification(ctx, ops, cfg, domain.NotifyReviewerAssigned,
				abstract, []uuid.UUID{reviewerID}, payload); err != nil {
				return err
			}

			result.NewlyAssigned = append(result.NewlyAssigned, reviewerID)
		}

		if len(result.NewlyAssigned) > 0 && abstract.Status.AwaitingReviewers() {
			s.transition(abstract, domain.StatusUnderReview)
		}

		result.Status = abstract.Status

		if len(result.NewlyAssigned) == 0 {
			// Nothing changed; skip the version bump.
			return nil
		}
		return ops.SaveAbstract(ctx, abstract)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordAssignment(len(result.NewlyAssigned), len(result.AlreadyAssigned), len(result.Invalid))
	}
	s.logger.Info().
		Str("abstract_id", abstractID.String()).
		Int("newly_assigned", len(result.NewlyAssigned)).
		Int("already_assigned", len(result.AlreadyAssigned)).
		Int("invalid", len(result.Invalid)).
		Msg("reviewers assigned")

	return result, nil
}
