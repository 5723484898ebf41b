package review

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

func TestCreateAbstract(t *testing.T) {
	ctx := context.Background()

	newIntakeFixture := func(t *testing.T) (*fakeStorage, *Service, *domain.EventConfig) {
		t.Helper()
		storage := newFakeStorage()
		event := &domain.EventConfig{
			ID:            uuid.New(),
			Name:          "GopherConf 2026",
			NotifyEnabled: true,
		}
		storage.state.Events[event.ID] = event
		return storage, newTestService(t, storage), event
	}

	t.Run("creates a submitted abstract", func(t *testing.T) {
		storage, service, event := newIntakeFixture(t)
		author := domain.Actor{ID: uuid.New(), Role: domain.RoleAuthor}

		abstract, err := service.CreateAbstract(ctx, author, CreateAbstractInput{
			EventID:        event.ID,
			RegistrationID: author.ID,
			Title:          "Efficient Outbox Relays",
			Content:        "We present a transactional outbox design for workflow engines.",
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, abstract.ID)
		assert.Equal(t, domain.StatusSubmitted, abstract.Status)
		assert.Equal(t, 1, abstract.Version)
		assert.Equal(t, 9, abstract.WordCount)
		require.NotNil(t, abstract.SubmittedAt)
		assert.Empty(t, abstract.AssignedReviewers)
		assert.Empty(t, abstract.Reviews)

		stored := storage.state.Abstracts[abstract.ID]
		require.NotNil(t, stored)
		assert.Equal(t, abstract.Title, stored.Title)
	})

	t.Run("elevated actor may submit for another registration", func(t *testing.T) {
		_, service, event := newIntakeFixture(t)
		admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

		_, err := service.CreateAbstract(ctx, admin, CreateAbstractInput{
			EventID:        event.ID,
			RegistrationID: uuid.New(),
			Title:          "On Behalf",
			Content:        "Submitted by staff for a registrant.",
		})
		assert.NoError(t, err)
	})

	t.Run("author cannot submit for another registration", func(t *testing.T) {
		_, service, event := newIntakeFixture(t)
		author := domain.Actor{ID: uuid.New(), Role: domain.RoleAuthor}

		_, err := service.CreateAbstract(ctx, author, CreateAbstractInput{
			EventID:        event.ID,
			RegistrationID: uuid.New(),
			Title:          "Not Mine",
			Content:        "content",
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("input validation", func(t *testing.T) {
		_, service, event := newIntakeFixture(t)
		author := domain.Actor{ID: uuid.New(), Role: domain.RoleAuthor}

		valid := func() CreateAbstractInput {
			return CreateAbstractInput{
				EventID:        event.ID,
				RegistrationID: author.ID,
				Title:          "Title",
				Content:        "content",
			}
		}

		tests := []struct {
			name   string
			mutate func(*CreateAbstractInput)
		}{
			{"missing event", func(in *CreateAbstractInput) { in.EventID = uuid.Nil }},
			{"missing registration", func(in *CreateAbstractInput) { in.RegistrationID = uuid.Nil }},
			{"missing title", func(in *CreateAbstractInput) { in.Title = "" }},
			{"title too long", func(in *CreateAbstractInput) { in.Title = strings.Repeat("x", MaxTitleLength+1) }},
			{"missing content", func(in *CreateAbstractInput) { in.Content = "" }},
			{"content too long", func(in *CreateAbstractInput) {
				in.Content = strings.Repeat("word ", MaxAbstractWords+1)
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				input := valid()
				tt.mutate(&input)
				_, err := service.CreateAbstract(ctx, author, input)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			})
		}
	})

	t.Run("content at the word limit is accepted", func(t *testing.T) {
		_, service, event := newIntakeFixture(t)
		author := domain.Actor{ID: uuid.New(), Role: domain.RoleAuthor}

		abstract, err := service.CreateAbstract(ctx, author, CreateAbstractInput{
			EventID:        event.ID,
			RegistrationID: author.ID,
			Title:          "Limit",
			Content:        strings.TrimSpace(strings.Repeat("word ", MaxAbstractWords)),
		})
		require.NoError(t, err)
		assert.Equal(t, MaxAbstractWords, abstract.WordCount)
	})

	t.Run("rejects intake outside the submission window", func(t *testing.T) {
		_, service, event := newIntakeFixture(t)
		author := domain.Actor{ID: uuid.New(), Role: domain.RoleAuthor}

		closed := time.Now().UTC().Add(-time.Hour)
		event.SubmissionCloseAt = &closed

		_, err := service.CreateAbstract(ctx, author, CreateAbstractInput{
			EventID:        event.ID,
			RegistrationID: author.ID,
			Title:          "Too Late",
			Content:        "content",
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "submission window")
	})

	t.Run("unknown event", func(t *testing.T) {
		_, service, _ := newIntakeFixture(t)
		author := domain.Actor{ID: uuid.New(), Role: domain.RoleAuthor}

		_, err := service.CreateAbstract(ctx, author, CreateAbstractInput{
			EventID:        uuid.New(),
			RegistrationID: author.ID,
			Title:          "Orphan",
			Content:        "content",
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
