package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// View is a read-only copy of session state, served through the mailbox so
// readers never observe a torn intermediate state.
type View struct {
	DraftID   uuid.UUID          `json:"draft_id"`
	LeagueID  uuid.UUID          `json:"league_id"`
	DraftType models.DraftType   `json:"draft_type"`
	Status    models.DraftStatus `json:"status"`
	Order     []uuid.UUID        `json:"order,omitempty"`
	Round     int                `json:"round"`
	Pick      int                `json:"pick"`
	OnClock   uuid.UUID          `json:"on_clock,omitempty"`
	Deadline  time.Time          `json:"deadline,omitzero"`
	Picks     []models.DraftPick `json:"picks"`
	Bid       *models.BidState   `json:"bid,omitempty"`
	Budgets   []models.Budget    `json:"budgets,omitempty"`
}

// Snapshot is the minimum persisted surface needed to resume a crashed
// session: identity, status, frozen order, counters and auction state. The
// committed pick log is persisted separately, one row per pick.
type Snapshot struct {
	DraftID         uuid.UUID          `json:"draft_id"`
	LeagueID        uuid.UUID          `json:"league_id"`
	DraftType       models.DraftType   `json:"draft_type"`
	Status          models.DraftStatus `json:"status"`
	Order           []uuid.UUID        `json:"order"`
	OrderSeed       int64              `json:"order_seed"`
	PickCount       int                `json:"pick_count"`
	Bid             *models.BidState   `json:"bid,omitempty"`
	Budgets         []models.Budget    `json:"budgets,omitempty"`
	NominationIndex int                `json:"nomination_index,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
