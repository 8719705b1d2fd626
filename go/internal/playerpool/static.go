package playerpool

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// Static is an in-memory Gateway used by tests and local development
// seeding. Players are served best rank first, ADP breaking ties.
type Static struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]models.Player
	ordered []models.Player
}

// NewStatic builds a Static pool from the given players.
func NewStatic(players []models.Player) *Static {
	s := &Static{byID: make(map[uuid.UUID]models.Player, len(players))}
	s.ordered = make([]models.Player, len(players))
	copy(s.ordered, players)
	sort.SliceStable(s.ordered, func(i, j int) bool {
		a, b := s.ordered[i], s.ordered[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.ADP != b.ADP {
			return a.ADP < b.ADP
		}
		return a.ID.String() < b.ID.String()
	})
	for _, p := range s.ordered {
		s.byID[p.ID] = p
	}
	return s
}

// ListAvailable implements Gateway.
func (s *Static) ListAvailable(ctx context.Context) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Player, len(s.ordered))
	copy(out, s.ordered)
	return out, nil
}

// Get implements Gateway.
func (s *Static) Get(ctx context.Context, id uuid.UUID) (models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return models.Player{}, ErrNotFound
	}
	return p, nil
}
