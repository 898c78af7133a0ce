package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"logistics-live-tracking/internal/domain/load"
)

// mockLoadRepo is an in-memory load.Repository shared by the reducer and
// poller tests.
type mockLoadRepo struct {
	mu        sync.Mutex
	loads     map[uuid.UUID]*load.Load
	updateErr error
	updates   int
}

func newMockLoadRepo(loads ...*load.Load) *mockLoadRepo {
	m := &mockLoadRepo{loads: make(map[uuid.UUID]*load.Load)}
	for _, l := range loads {
		m.loads[l.ID] = l
	}
	return m
}

func (m *mockLoadRepo) GetByID(_ context.Context, id uuid.UUID) (*load.Load, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.loads[id]
	if !ok {
		return nil, load.ErrLoadNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockLoadRepo) ListActive(_ context.Context) ([]*load.Load, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*load.Load
	for _, l := range m.loads {
		if l.IsActive() {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockLoadRepo) UpdateStatus(_ context.Context, id uuid.UUID, current, next load.Status, patch load.TimestampPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}

	l, ok := m.loads[id]
	if !ok {
		return load.ErrLoadNotFound
	}
	if l.Status != current {
		return load.ErrStaleStatus
	}

	l.Status = next
	if patch.ActualLoadingArrival != nil {
		l.ActualLoadingArrival = patch.ActualLoadingArrival
	}
	if patch.ActualLoadingDeparture != nil {
		l.ActualLoadingDeparture = patch.ActualLoadingDeparture
	}
	if patch.ActualOffloadingArrival != nil {
		l.ActualOffloadingArrival = patch.ActualOffloadingArrival
	}
	if patch.ActualOffloadingDeparture != nil {
		l.ActualOffloadingDeparture = patch.ActualOffloadingDeparture
	}
	m.updates++
	return nil
}

func (m *mockLoadRepo) get(id uuid.UUID) *load.Load {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.loads[id]
	return &cp
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (m *mockEventPublisher) PublishGeofenceEvent(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockEventPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestReducer_FullLifecycle(t *testing.T) {
	l := &load.Load{ID: uuid.New(), Status: load.StatusScheduled}
	repo := newMockLoadRepo(l)
	pub := &mockEventPublisher{}
	r := NewReducer(repo, pub, zap.NewNop())

	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	sequence := []struct {
		kind       EventKind
		wantStatus load.Status
	}{
		{LoadingArrival, load.StatusScheduled},
		{LoadingDeparture, load.StatusInTransit},
		{OffloadingArrival, load.StatusInTransit},
		{OffloadingDeparture, load.StatusDelivered},
	}

	for i, step := range sequence {
		applied, err := r.Apply(context.Background(), Event{
			LoadID:    l.ID,
			Kind:      step.kind,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if !applied {
			t.Fatalf("step %d: event %s should apply", i, step.kind)
		}
		if got := repo.get(l.ID).Status; got != step.wantStatus {
			t.Fatalf("step %d: expected status %s, got %s", i, step.wantStatus, got)
		}
	}

	final := repo.get(l.ID)
	if final.ActualLoadingArrival == nil || final.ActualLoadingDeparture == nil ||
		final.ActualOffloadingArrival == nil || final.ActualOffloadingDeparture == nil {
		t.Error("all four actual timestamps should be set")
	}
	if pub.count() != 4 {
		t.Errorf("expected 4 published events, got %d", pub.count())
	}
}

func TestReducer_DuplicateDeliveryIgnored(t *testing.T) {
	l := &load.Load{ID: uuid.New(), Status: load.StatusDelivered}
	repo := newMockLoadRepo(l)
	r := NewReducer(repo, nil, zap.NewNop())

	applied, err := r.Apply(context.Background(), Event{
		LoadID:    l.ID,
		Kind:      OffloadingDeparture,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("duplicate delivery must not error: %v", err)
	}
	if applied {
		t.Error("duplicate delivery must be ignored")
	}
	if got := repo.get(l.ID).Status; got != load.StatusDelivered {
		t.Errorf("status must stay delivered, got %s", got)
	}
}

func TestReducer_InvalidTransitionIgnored(t *testing.T) {
	l := &load.Load{ID: uuid.New(), Status: load.StatusPending}
	repo := newMockLoadRepo(l)
	pub := &mockEventPublisher{}
	r := NewReducer(repo, pub, zap.NewNop())

	applied, err := r.Apply(context.Background(), Event{
		LoadID:    l.ID,
		Kind:      OffloadingArrival,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("offloading_arrival on a pending load must be ignored")
	}

	after := repo.get(l.ID)
	if after.Status != load.StatusPending {
		t.Errorf("status must stay pending, got %s", after.Status)
	}
	if after.ActualOffloadingArrival != nil {
		t.Error("ignored event must not set its timestamp")
	}
	if pub.count() != 0 {
		t.Error("ignored events must not be published")
	}
}

func TestReducer_WriteFailureNotConsumed(t *testing.T) {
	l := &load.Load{ID: uuid.New(), Status: load.StatusInTransit}
	repo := newMockLoadRepo(l)
	repo.updateErr = errors.New("connection refused")
	r := NewReducer(repo, nil, zap.NewNop())

	applied, err := r.Apply(context.Background(), Event{
		LoadID:    l.ID,
		Kind:      OffloadingDeparture,
		Timestamp: time.Now(),
	})
	if err == nil {
		t.Fatal("store failure must surface so the event is redelivered")
	}
	if applied {
		t.Error("failed write must not count as applied")
	}
	if got := repo.get(l.ID).Status; got != load.StatusInTransit {
		t.Errorf("status must be unchanged, got %s", got)
	}
}

func TestReducer_UnknownLoad(t *testing.T) {
	repo := newMockLoadRepo()
	r := NewReducer(repo, nil, zap.NewNop())

	_, err := r.Apply(context.Background(), Event{
		LoadID:    uuid.New(),
		Kind:      LoadingArrival,
		Timestamp: time.Now(),
	})
	if !errors.Is(err, load.ErrLoadNotFound) {
		t.Errorf("expected ErrLoadNotFound, got %v", err)
	}
}
