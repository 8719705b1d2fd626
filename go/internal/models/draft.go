package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftType defines the selection protocol of a draft.
type DraftType string

const (
	DraftTypeSnake   DraftType = "SNAKE"
	DraftTypeAuction DraftType = "AUCTION"
)

// DraftStatus defines the lifecycle status of a draft.
type DraftStatus string

const (
	DraftStatusScheduled  DraftStatus = "SCHEDULED"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
)

// DraftSettings holds per-draft configuration.
type DraftSettings struct {
	Rounds         int         `json:"rounds"`
	TimePerPickSec int         `json:"time_per_pick_sec"`
	BidWindowSec   int         `json:"bid_window_sec,omitempty"`   // auction
	BudgetPerTeam  int         `json:"budget_per_team,omitempty"`  // auction
	RosterSlots    int         `json:"roster_slots,omitempty"`     // auction
	DraftOrder     []uuid.UUID `json:"draft_order,omitempty"`      // frozen at start
	OrderSeed      int64       `json:"order_seed,omitempty"`       // seed used to shuffle
}

// Draft represents one draft instance.
type Draft struct {
	ID          uuid.UUID     `json:"id"`
	LeagueID    uuid.UUID     `json:"league_id"`
	DraftType   DraftType     `json:"draft_type"`
	Status      DraftStatus   `json:"status"`
	Settings    DraftSettings `json:"settings"`
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
