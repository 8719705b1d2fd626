package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftroom/go/internal/draft/broadcast"
	"github.com/mcdev12/draftroom/go/internal/draft/registry"
	"github.com/mcdev12/draftroom/go/internal/draft/session"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/playerpool"
	"github.com/rs/zerolog"
)

type nopStore struct{}

func (nopStore) CommitPick(context.Context, models.DraftPick) error                     { return nil }
func (nopStore) RecordSale(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, int) error { return nil }
func (nopStore) SaveSnapshot(context.Context, session.Snapshot) error                   { return nil }

func testFactory(t *testing.T, calls *int) registry.Factory {
	t.Helper()
	var mu sync.Mutex
	return func(_ context.Context, draftID uuid.UUID, evict func(uuid.UUID)) (*session.Session, error) {
		mu.Lock()
		*calls++
		mu.Unlock()

		teams := []models.Team{{ID: uuid.New()}, {ID: uuid.New()}}
		return session.New(session.Config{
			Draft: models.Draft{
				ID:        draftID,
				DraftType: models.DraftTypeSnake,
				Status:    models.DraftStatusScheduled,
				Settings:  models.DraftSettings{Rounds: 1, TimePerPickSec: 60},
			},
			Teams:     teams,
			Pool:      playerpool.NewStatic(nil),
			Roster:    nopStore{},
			Snapshots: nopStore{},
			Bus:       broadcast.NewChannel(nil, zerolog.Nop()),
			Clock:     clockwork.NewFakeClock(),
			Logger:    zerolog.Nop(),
			OnEmpty:   evict,
		})
	}
}

func TestGetOrCreateReusesSession(t *testing.T) {
	calls := 0
	r := registry.New(testFactory(t, &calls), zerolog.Nop())
	ctx := context.Background()
	draftID := uuid.New()

	first, err := r.GetOrCreate(ctx, draftID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	second, err := r.GetOrCreate(ctx, draftID)
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if first != second {
		t.Error("second GetOrCreate built a new session")
	}
	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	calls := 0
	r := registry.New(testFactory(t, &calls), zerolog.Nop())
	draftID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.GetOrCreate(context.Background(), draftID); err != nil {
				t.Errorf("GetOrCreate: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
}

func TestFactoryErrorIsNotCached(t *testing.T) {
	boom := errors.New("load failed")
	fail := true
	calls := 0
	inner := testFactory(t, &calls)
	r := registry.New(func(ctx context.Context, id uuid.UUID, evict func(uuid.UUID)) (*session.Session, error) {
		if fail {
			return nil, boom
		}
		return inner(ctx, id, evict)
	}, zerolog.Nop())

	draftID := uuid.New()
	if _, err := r.GetOrCreate(context.Background(), draftID); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if r.Len() != 0 {
		t.Fatalf("Len after failure = %d, want 0", r.Len())
	}

	fail = false
	if _, err := r.GetOrCreate(context.Background(), draftID); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestEvictStopsSession(t *testing.T) {
	calls := 0
	r := registry.New(testFactory(t, &calls), zerolog.Nop())
	draftID := uuid.New()

	s, err := r.GetOrCreate(context.Background(), draftID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	r.Evict(draftID)

	if _, ok := r.Get(draftID); ok {
		t.Error("evicted session still registered")
	}
	<-s.Done()

	// evicting again is a no-op
	r.Evict(draftID)
}

func TestShutdownWaitsForSessions(t *testing.T) {
	calls := 0
	r := registry.New(testFactory(t, &calls), zerolog.Nop())

	var sessions []*session.Session
	for i := 0; i < 3; i++ {
		s, err := r.GetOrCreate(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
		sessions = append(sessions, s)
	}

	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len after shutdown = %d, want 0", r.Len())
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		default:
			t.Error("session still running after shutdown")
		}
	}
}
