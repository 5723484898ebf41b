package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// fixture bundles the common test setup: one event, one abstract, and a
// pool of reviewers.
type fixture struct {
	storage  *fakeStorage
	service  *Service
	event    *domain.EventConfig
	abstract *domain.AbstractRecord
	admin    domain.Actor
	author   domain.Actor
}

func newFixture(t *testing.T, status domain.AbstractStatus) *fixture {
	t.Helper()

	storage := newFakeStorage()
	now := time.Now().UTC()

	event := &domain.EventConfig{
		ID:            uuid.New(),
		Name:          "GopherConf 2026",
		NotifyEnabled: true,
	}
	storage.state.Events[event.ID] = event

	registrationID := uuid.New()
	abstract := &domain.AbstractRecord{
		ID:                uuid.New(),
		EventID:           event.ID,
		RegistrationID:    registrationID,
		Title:             "Efficient Outbox Relays",
		Content:           "We present a transactional outbox design.",
		WordCount:         7,
		Status:            status,
		AssignedReviewers: []uuid.UUID{},
		Reviews:           []domain.ReviewEntry{},
		Version:           1,
		SubmittedAt:       &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	storage.state.Abstracts[abstract.ID] = abstract

	return &fixture{
		storage:  storage,
		service:  newTestService(t, storage),
		event:    event,
		abstract: abstract,
		admin:    domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin},
		author:   domain.Actor{ID: registrationID, Role: domain.RoleAuthor},
	}
}

// addReviewer registers an assignable reviewer in the fixture pool.
func (f *fixture) addReviewer(name string) *domain.Reviewer {
	reviewer := &domain.Reviewer{
		ID:     uuid.New(),
		Name:   name,
		Email:  name + "@example.org",
		Active: true,
	}
	f.storage.state.Reviewers[reviewer.ID] = reviewer
	return reviewer
}

func (f *fixture) stored() *domain.AbstractRecord {
	return f.storage.state.Abstracts[f.abstract.ID]
}

func TestAssignReviewers(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns reviewers and advances to under-review", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)
		r1 := f.addReviewer("ana")
		r2 := f.addReviewer("bo")

		result, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, []uuid.UUID{r1.ID, r2.ID})
		require.NoError(t, err)

		assert.ElementsMatch(t, []uuid.UUID{r1.ID, r2.ID}, result.NewlyAssigned)
		assert.Empty(t, result.AlreadyAssigned)
		assert.Empty(t, result.Invalid)
		assert.Equal(t, domain.StatusUnderReview, result.Status)

		stored := f.stored()
		assert.Equal(t, domain.StatusUnderReview, stored.Status)
		assert.ElementsMatch(t, []uuid.UUID{r1.ID, r2.ID}, stored.AssignedReviewers)
		assert.Equal(t, 1, f.storage.state.Reviewers[r1.ID].AssignedAbstractsCount)
		assert.Equal(t, 1, f.storage.state.Reviewers[r2.ID].AssignedAbstractsCount)

		// One assignment notification per newly assigned reviewer.
		assert.Len(t, f.storage.notifications(domain.NotifyReviewerAssigned), 2)
	})

	t.Run("repeat assignment is idempotent", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)
		r1 := f.addReviewer("ana")

		_, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, []uuid.UUID{r1.ID})
		require.NoError(t, err)

		result, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, []uuid.UUID{r1.ID})
		require.NoError(t, err)

		assert.Empty(t, result.NewlyAssigned)
		assert.Equal(t, []uuid.UUID{r1.ID}, result.AlreadyAssigned)

		// Counter incremented exactly once, one notification total.
		assert.Equal(t, 1, f.storage.state.Reviewers[r1.ID].AssignedAbstractsCount)
		assert.Len(t, f.storage.notifications(domain.NotifyReviewerAssigned), 1)
		assert.Len(t, f.stored().AssignedReviewers, 1)
	})

	t.Run("duplicate IDs within one request count once", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)
		r1 := f.addReviewer("ana")

		result, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, []uuid.UUID{r1.ID, r1.ID, r1.ID})
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{r1.ID}, result.NewlyAssigned)
		assert.Equal(t, 1, f.storage.state.Reviewers[r1.ID].AssignedAbstractsCount)
	})

	t.Run("invalid reviewers reported without failing valid ones", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)
		valid := f.addReviewer("ana")
		inactive := f.addReviewer("bo")
		inactive.Active = false
		noEmail := f.addReviewer("cy")
		noEmail.Email = ""
		missing := uuid.New()

		result, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID,
			[]uuid.UUID{valid.ID, inactive.ID, noEmail.ID, missing})
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{valid.ID}, result.NewlyAssigned)
		assert.ElementsMatch(t, []uuid.UUID{inactive.ID, noEmail.ID, missing}, result.Invalid)
		assert.Equal(t, []uuid.UUID{valid.ID}, f.stored().AssignedReviewers)
	})

	t.Run("storage failure rolls back the whole request", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)
		r1 := f.addReviewer("ana")
		r2 := f.addReviewer("bo")

		f.storage.saveAbstractErr = errors.New("connection reset")

		_, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, []uuid.UUID{r1.ID, r2.ID})
		require.Error(t, err)

		// Nothing committed: no assignments, no counter bumps, no notifications.
		stored := f.stored()
		assert.Empty(t, stored.AssignedReviewers)
		assert.Equal(t, domain.StatusSubmitted, stored.Status)
		assert.Equal(t, 0, f.storage.state.Reviewers[r1.ID].AssignedAbstractsCount)
		assert.Equal(t, 0, f.storage.state.Reviewers[r2.ID].AssignedAbstractsCount)
		assert.Empty(t, f.storage.state.Outbox)
	})

	t.Run("requires elevated role", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)
		r1 := f.addReviewer("ana")

		_, err := f.service.AssignReviewers(ctx, f.author, f.abstract.ID, []uuid.UUID{r1.ID})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		reviewer := domain.Actor{ID: uuid.New(), Role: domain.RoleReviewer}
		_, err = f.service.AssignReviewers(ctx, reviewer, f.abstract.ID, []uuid.UUID{r1.ID})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("rejects decided abstracts", func(t *testing.T) {
		for _, status := range []domain.AbstractStatus{domain.StatusApproved, domain.StatusRejected} {
			f := newFixture(t, status)
			r1 := f.addReviewer("ana")

			_, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, []uuid.UUID{r1.ID})
			assert.ErrorIs(t, err, domain.ErrInvalidState)
		}
	})

	t.Run("does not demote an abstract already under review", func(t *testing.T) {
		f := newFixture(t, domain.StatusRevisionRequested)
		r1 := f.addReviewer("ana")

		result, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, []uuid.UUID{r1.ID})
		require.NoError(t, err)

		// revision-requested is not awaiting reviewers; status is unchanged.
		assert.Equal(t, domain.StatusRevisionRequested, result.Status)
	})

	t.Run("unknown abstract", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)
		r1 := f.addReviewer("ana")

		_, err := f.service.AssignReviewers(ctx, f.admin, uuid.New(), []uuid.UUID{r1.ID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty reviewer list", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)

		_, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("notifications suppressed when event disables them", func(t *testing.T) {
		f := newFixture(t, domain.StatusSubmitted)
		f.event.NotifyEnabled = false
		r1 := f.addReviewer("ana")

		result, err := f.service.AssignReviewers(ctx, f.admin, f.abstract.ID, []uuid.UUID{r1.ID})
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{r1.ID}, result.NewlyAssigned)
		assert.Empty(t, f.storage.state.Outbox)
	})
}
