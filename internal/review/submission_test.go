package review

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

func scoreOf(v float64) *float64 { return &v }

// assignFixtureReviewer puts the reviewer directly into the abstract's
// assigned set, bypassing the assignment operation.
func (f *fixture) assignFixtureReviewer() domain.Actor {
	reviewer := f.addReviewer("reviewer")
	f.abstract.AssignedReviewers = append(f.abstract.AssignedReviewers, reviewer.ID)
	return domain.Actor{ID: reviewer.ID, Role: domain.RoleReviewer}
}

func TestSubmitReview(t *testing.T) {
	ctx := context.Background()

	t.Run("accept decision approves the abstract", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		reviewer := f.assignFixtureReviewer()

		updated, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Score:      scoreOf(8.5),
			Comments:   "solid work",
			Decision:   domain.DecisionAccept,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusApproved, updated.Status)
		require.Len(t, updated.Reviews, 1)
		assert.Equal(t, reviewer.ID, updated.Reviews[0].ReviewerID)
		assert.True(t, updated.Reviews[0].IsComplete)
		require.NotNil(t, updated.AverageScore)
		assert.InDelta(t, 8.5, *updated.AverageScore, 1e-9)

		assert.Len(t, f.storage.notifications(domain.NotifyAbstractApproved), 1)
	})

	t.Run("resubmission replaces the previous entry", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		reviewer := f.assignFixtureReviewer()

		_, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Score:      scoreOf(3),
			Decision:   domain.DecisionReject,
		})
		require.NoError(t, err)

		updated, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Score:      scoreOf(7),
			Decision:   domain.DecisionAccept,
		})
		require.NoError(t, err)

		require.Len(t, updated.Reviews, 1)
		require.NotNil(t, updated.AverageScore)
		assert.InDelta(t, 7, *updated.AverageScore, 1e-9)
		assert.Equal(t, domain.StatusApproved, updated.Status)
	})

	t.Run("average covers complete scored entries only", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		r1 := f.assignFixtureReviewer()
		r2 := f.assignFixtureReviewer()
		r3 := f.assignFixtureReviewer()

		_, err := f.service.SubmitReview(ctx, r1, SubmitReviewInput{
			AbstractID: f.abstract.ID, Score: scoreOf(4), Decision: domain.DecisionAccept,
		})
		require.NoError(t, err)

		// Draft entry: scored but undecided, excluded from the average.
		_, err = f.service.SubmitReview(ctx, r2, SubmitReviewInput{
			AbstractID: f.abstract.ID, Score: scoreOf(10), Decision: domain.DecisionUndecided,
		})
		require.NoError(t, err)

		// Complete but unscored, also excluded.
		updated, err := f.service.SubmitReview(ctx, r3, SubmitReviewInput{
			AbstractID: f.abstract.ID, Comments: "no score", Decision: domain.DecisionAccept,
		})
		require.NoError(t, err)

		require.NotNil(t, updated.AverageScore)
		assert.InDelta(t, 4, *updated.AverageScore, 1e-9)
		assert.Len(t, updated.Reviews, 3)
	})

	t.Run("last writer wins across reviewers", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		r1 := f.assignFixtureReviewer()
		r2 := f.assignFixtureReviewer()

		updated, err := f.service.SubmitReview(ctx, r1, SubmitReviewInput{
			AbstractID: f.abstract.ID, Decision: domain.DecisionAccept,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, updated.Status)

		// A later revise decision overrides the earlier approval.
		updated, err = f.service.SubmitReview(ctx, r2, SubmitReviewInput{
			AbstractID: f.abstract.ID, Decision: domain.DecisionRevise,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRevisionRequested, updated.Status)

		assert.Len(t, f.storage.notifications(domain.NotifyAbstractApproved), 1)
		assert.Len(t, f.storage.notifications(domain.NotifyRevisionRequested), 1)
	})

	t.Run("undecided stores a draft without moving status", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		reviewer := f.assignFixtureReviewer()

		updated, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Score:      scoreOf(6),
			Comments:   "still reading",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusUnderReview, updated.Status)
		require.Len(t, updated.Reviews, 1)
		assert.False(t, updated.Reviews[0].IsComplete)
		assert.Nil(t, updated.AverageScore)
		assert.Empty(t, f.storage.state.Outbox)
	})

	t.Run("approval notifies admins when configured", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		adminRecipient := uuid.New()
		f.event.NotifyAdminsOnApproval = true
		f.event.AdminRecipients = []uuid.UUID{adminRecipient}
		reviewer := f.assignFixtureReviewer()

		_, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Score:      scoreOf(9),
			Decision:   domain.DecisionAccept,
		})
		require.NoError(t, err)

		approved := f.storage.notifications(domain.NotifyAbstractApproved)
		require.Len(t, approved, 1)
		assert.ElementsMatch(t,
			[]uuid.UUID{f.abstract.RegistrationID, adminRecipient},
			approved[0].RecipientIDs)

		var payload domain.StatusChangedPayload
		require.NoError(t, json.Unmarshal(approved[0].Payload, &payload))
		assert.Equal(t, f.abstract.ID, payload.AbstractID)
		require.NotNil(t, payload.AverageScore)
		assert.InDelta(t, 9, *payload.AverageScore, 1e-9)
	})

	t.Run("rejection notifies the author only", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		f.event.NotifyAdminsOnApproval = true
		f.event.AdminRecipients = []uuid.UUID{uuid.New()}
		reviewer := f.assignFixtureReviewer()

		_, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Decision:   domain.DecisionReject,
		})
		require.NoError(t, err)

		rejected := f.storage.notifications(domain.NotifyAbstractRejected)
		require.Len(t, rejected, 1)
		assert.Equal(t, []uuid.UUID{f.abstract.RegistrationID}, rejected[0].RecipientIDs)
	})

	t.Run("unassigned reviewer is forbidden", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		outsider := domain.Actor{ID: uuid.New(), Role: domain.RoleReviewer}

		_, err := f.service.SubmitReview(ctx, outsider, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Decision:   domain.DecisionAccept,
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("elevated actor may review without assignment", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)

		updated, err := f.service.SubmitReview(ctx, f.admin, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Decision:   domain.DecisionAccept,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, updated.Status)
	})

	t.Run("rejects reviews before the abstract is under review", func(t *testing.T) {
		for _, status := range []domain.AbstractStatus{domain.StatusDraft, domain.StatusSubmitted} {
			f := newFixture(t, status)
			reviewer := f.assignFixtureReviewer()

			_, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
				AbstractID: f.abstract.ID,
				Decision:   domain.DecisionAccept,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidState)
		}
	})

	t.Run("score range validation", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		reviewer := f.assignFixtureReviewer()

		for _, score := range []float64{-0.1, 10.1} {
			_, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
				AbstractID: f.abstract.ID,
				Score:      scoreOf(score),
				Decision:   domain.DecisionAccept,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		}
	})

	t.Run("unknown decision", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		reviewer := f.assignFixtureReviewer()

		_, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Decision:   domain.ReviewDecision("maybe"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("simultaneous submissions both survive", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		r1 := f.assignFixtureReviewer()
		r2 := f.assignFixtureReviewer()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, actor := range []domain.Actor{r1, r2} {
			wg.Add(1)
			go func(i int, actor domain.Actor) {
				defer wg.Done()
				_, errs[i] = f.service.SubmitReview(ctx, actor, SubmitReviewInput{
					AbstractID: f.abstract.ID,
					Score:      scoreOf(float64(6 + i)),
					Decision:   domain.DecisionAccept,
				})
			}(i, actor)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		stored := f.stored()
		require.Len(t, stored.Reviews, 2)
		reviewers := []uuid.UUID{stored.Reviews[0].ReviewerID, stored.Reviews[1].ReviewerID}
		assert.ElementsMatch(t, []uuid.UUID{r1.ID, r2.ID}, reviewers)
		require.NotNil(t, stored.AverageScore)
		assert.InDelta(t, 6.5, *stored.AverageScore, 1e-9)
	})

	t.Run("storage failure rolls back the review", func(t *testing.T) {
		f := newFixture(t, domain.StatusUnderReview)
		reviewer := f.assignFixtureReviewer()
		f.storage.saveAbstractErr = assert.AnError

		_, err := f.service.SubmitReview(ctx, reviewer, SubmitReviewInput{
			AbstractID: f.abstract.ID,
			Decision:   domain.DecisionAccept,
		})
		require.Error(t, err)

		stored := f.stored()
		assert.Equal(t, domain.StatusUnderReview, stored.Status)
		assert.Empty(t, stored.Reviews)
		assert.Empty(t, f.storage.state.Outbox)
	})
}
