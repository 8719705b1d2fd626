// Package presence tracks which teams are connected to a draft session,
// independent of the transport layer. A disconnect never touches committed
// picks or bid state; it only flags the team for accelerated autopick.
package presence

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is one team's liveness record.
type Status struct {
	TeamID    uuid.UUID `json:"team_id"`
	Connected bool      `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	AutoPick  bool      `json:"auto_pick"`
}

// Tracker maps teams to liveness. Safe for concurrent use: the session actor
// writes, the gateway reads.
type Tracker struct {
	mu     sync.RWMutex
	byTeam map[uuid.UUID]*Status
}

// NewTracker builds an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{byTeam: make(map[uuid.UUID]*Status)}
}

// Connect marks a team connected and clears its autopick flag. Returns true
// if the team had been seen before (a reconnect).
func (t *Tracker) Connect(teamID uuid.UUID, at time.Time) (rejoined bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.byTeam[teamID]
	if !ok {
		t.byTeam[teamID] = &Status{TeamID: teamID, Connected: true, LastSeen: at}
		return false
	}
	s.Connected = true
	s.LastSeen = at
	s.AutoPick = false
	return true
}

// Disconnect marks a team disconnected and enables autopick for it.
func (t *Tracker) Disconnect(teamID uuid.UUID, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.byTeam[teamID]
	if !ok {
		s = &Status{TeamID: teamID}
		t.byTeam[teamID] = s
	}
	s.Connected = false
	s.LastSeen = at
	s.AutoPick = true
}

// AutoPickEnabled reports whether the team is flagged for autopick.
func (t *Tracker) AutoPickEnabled(teamID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.byTeam[teamID]
	return ok && s.AutoPick
}

// Connected reports whether the team currently has a live connection.
func (t *Tracker) Connected(teamID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.byTeam[teamID]
	return ok && s.Connected
}

// ConnectedCount returns the number of teams with a live connection.
func (t *Tracker) ConnectedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, s := range t.byTeam {
		if s.Connected {
			n++
		}
	}
	return n
}

// SeenCount returns the number of teams that have joined at least once.
func (t *Tracker) SeenCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byTeam)
}

// Snapshot returns a copy of every status record.
func (t *Tracker) Snapshot() []Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Status, 0, len(t.byTeam))
	for _, s := range t.byTeam {
		out = append(out, *s)
	}
	return out
}
