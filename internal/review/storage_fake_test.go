package review

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// fakeState is the in-memory storage snapshot used by fakeStorage.
type fakeState struct {
	Abstracts map[uuid.UUID]*domain.AbstractRecord
	Reviewers map[uuid.UUID]*domain.Reviewer
	Events    map[uuid.UUID]*domain.EventConfig
	Outbox    []*domain.NotificationEvent
}

func newFakeState() *fakeState {
	return &fakeState{
		Abstracts: make(map[uuid.UUID]*domain.AbstractRecord),
		Reviewers: make(map[uuid.UUID]*domain.Reviewer),
		Events:    make(map[uuid.UUID]*domain.EventConfig),
	}
}

// clone deep-copies the state so an aborted transaction leaves the committed
// state untouched.
func (s *fakeState) clone() *fakeState {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var out fakeState
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	if out.Abstracts == nil {
		out.Abstracts = make(map[uuid.UUID]*domain.AbstractRecord)
	}
	if out.Reviewers == nil {
		out.Reviewers = make(map[uuid.UUID]*domain.Reviewer)
	}
	if out.Events == nil {
		out.Events = make(map[uuid.UUID]*domain.EventConfig)
	}
	return &out
}

// fakeStorage implements Storage with transactional semantics: mutations
// made by fn become visible only when fn succeeds. Error injection fields
// simulate storage failures mid-transaction.
type fakeStorage struct {
	mu    sync.Mutex
	state *fakeState

	saveAbstractErr error
	incrementErr    error
	enqueueErr      error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{state: newFakeState()}
}

// InTransaction serializes callers the way row locks taken with
// SELECT FOR UPDATE serialize concurrent writers on the same abstract.
func (f *fakeStorage) InTransaction(_ context.Context, fn func(ops TxOps) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	txState := f.state.clone()
	ops := &fakeTxOps{state: txState, storage: f}
	if err := fn(ops); err != nil {
		return err
	}
	f.state = txState
	return nil
}

// notifications returns the committed outbox rows of the given kind.
func (f *fakeStorage) notifications(kind string) []*domain.NotificationEvent {
	var out []*domain.NotificationEvent
	for _, n := range f.state.Outbox {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeTxOps struct {
	state   *fakeState
	storage *fakeStorage
}

func (t *fakeTxOps) CreateAbstract(_ context.Context, abstract *domain.AbstractRecord) error {
	if _, ok := t.state.Abstracts[abstract.ID]; ok {
		return domain.NewAlreadyExistsError("abstract", abstract.ID.String())
	}
	copied := *abstract
	t.state.Abstracts[abstract.ID] = &copied
	return nil
}

func (t *fakeTxOps) GetAbstractForUpdate(_ context.Context, id uuid.UUID) (*domain.AbstractRecord, error) {
	abstract, ok := t.state.Abstracts[id]
	if !ok {
		return nil, domain.NewNotFoundError("abstract", id.String())
	}
	copied := *abstract
	return &copied, nil
}

func (t *fakeTxOps) SaveAbstract(_ context.Context, abstract *domain.AbstractRecord) error {
	if t.storage.saveAbstractErr != nil {
		return t.storage.saveAbstractErr
	}
	stored, ok := t.state.Abstracts[abstract.ID]
	if !ok {
		return domain.NewNotFoundError("abstract", abstract.ID.String())
	}
	if stored.Version != abstract.Version {
		return domain.NewConflictError("abstract", abstract.ID.String(), stored.Version)
	}
	abstract.Version++
	copied := *abstract
	t.state.Abstracts[abstract.ID] = &copied
	return nil
}

func (t *fakeTxOps) GetReviewer(_ context.Context, id uuid.UUID) (*domain.Reviewer, error) {
	reviewer, ok := t.state.Reviewers[id]
	if !ok {
		return nil, domain.NewNotFoundError("reviewer", id.String())
	}
	copied := *reviewer
	return &copied, nil
}

func (t *fakeTxOps) IncrementReviewerWorkload(_ context.Context, id uuid.UUID) error {
	if t.storage.incrementErr != nil {
		return t.storage.incrementErr
	}
	reviewer, ok := t.state.Reviewers[id]
	if !ok {
		return domain.NewNotFoundError("reviewer", id.String())
	}
	reviewer.AssignedAbstractsCount++
	return nil
}

func (t *fakeTxOps) GetEventConfig(_ context.Context, id uuid.UUID) (*domain.EventConfig, error) {
	event, ok := t.state.Events[id]
	if !ok {
		return nil, domain.NewNotFoundError("event", id.String())
	}
	copied := *event
	return &copied, nil
}

func (t *fakeTxOps) EnqueueNotification(_ context.Context, event *domain.NotificationEvent) error {
	if t.storage.enqueueErr != nil {
		return t.storage.enqueueErr
	}
	copied := *event
	t.state.Outbox = append(t.state.Outbox, &copied)
	return nil
}

// newTestService builds a Service over the fake storage with a nop logger
// and no metrics.
func newTestService(t *testing.T, storage *fakeStorage) *Service {
	t.Helper()
	return NewService(storage, zerolog.Nop(), nil)
}
