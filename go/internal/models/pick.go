package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftPick is a committed selection. Immutable once committed: a player id
// appears in at most one pick per draft and overall pick numbers are
// contiguous starting at 1.
type DraftPick struct {
	ID          uuid.UUID `json:"id"`
	DraftID     uuid.UUID `json:"draft_id"`
	Round       int       `json:"round"`
	Pick        int       `json:"pick"`         // pick number within the round
	OverallPick int       `json:"overall_pick"` // pick number across the draft
	TeamID      uuid.UUID `json:"team_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	PickedAt    time.Time `json:"picked_at"`
	Amount      *int      `json:"amount,omitempty"` // winning bid, auction only
	AutoPick    bool      `json:"auto_pick"`
}
