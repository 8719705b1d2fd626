// Package registry maps draft IDs to live sessions. It is the single place a
// draft session is created, looked up, or torn down, so two connections
// racing to join the same draft always land on the same session.
package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/session"
	"github.com/rs/zerolog"
)

// Factory builds a session for the given draft, loading whatever persisted
// state exists. The registry passes evict so a session that empties out can
// remove itself.
type Factory func(ctx context.Context, draftID uuid.UUID, evict func(uuid.UUID)) (*session.Session, error)

// Registry owns the draft-to-session map.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session.Session
	factory  Factory
	log      zerolog.Logger
}

// New builds an empty registry.
func New(factory Factory, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*session.Session),
		factory:  factory,
		log:      log,
	}
}

// GetOrCreate returns the live session for the draft, creating it through the
// factory if none exists. Creation is serialized: concurrent callers for the
// same draft get the same session.
func (r *Registry) GetOrCreate(ctx context.Context, draftID uuid.UUID) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[draftID]; ok {
		return s, nil
	}
	s, err := r.factory(ctx, draftID, r.Evict)
	if err != nil {
		return nil, err
	}
	r.sessions[draftID] = s
	r.log.Info().Str("draft_id", draftID.String()).Msg("draft session created")
	return s, nil
}

// Get returns the live session for the draft, if any.
func (r *Registry) Get(draftID uuid.UUID) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[draftID]
	return s, ok
}

// Evict removes the draft's session and stops it. A no-op if the draft has no
// live session. Safe to call from the session's own goroutine: Stop only
// cancels, it never waits for the loop to exit.
func (r *Registry) Evict(draftID uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[draftID]
	if ok {
		delete(r.sessions, draftID)
	}
	r.mu.Unlock()

	if ok {
		s.Stop()
		r.log.Info().Str("draft_id", draftID.String()).Msg("draft session evicted")
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown stops every live session and waits for each loop to exit.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*session.Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.log.Info().Int("sessions", len(sessions)).Msg("registry shut down")
	return nil
}
