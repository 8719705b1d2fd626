package models

import (
	"time"

	"github.com/google/uuid"
)

// BidState tracks the live auction lot. Amount strictly increases with each
// accepted bid; Deadline resets to the bid window on every accepted bid.
type BidState struct {
	PlayerID    uuid.UUID `json:"player_id"`
	NominatedBy uuid.UUID `json:"nominated_by"`
	Amount      int       `json:"amount"`
	HighBidder  uuid.UUID `json:"high_bidder"`
	Deadline    time.Time `json:"deadline"`
}

// Budget is a team's auction purse.
type Budget struct {
	TeamID      uuid.UUID `json:"team_id"`
	Total       int       `json:"total"`
	Spent       int       `json:"spent"`
	SlotsFilled int       `json:"slots_filled"`
	SlotsTotal  int       `json:"slots_total"`
}

// Remaining returns the unspent portion of the budget.
func (b Budget) Remaining() int {
	return b.Total - b.Spent
}

// OpenSlots returns the number of roster slots still unfilled.
func (b Budget) OpenSlots() int {
	return b.SlotsTotal - b.SlotsFilled
}
