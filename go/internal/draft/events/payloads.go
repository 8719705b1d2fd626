package events

import (
	"time"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// JoinedPayload is the payload for a joined event.
type JoinedPayload struct {
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
}

// DraftStartedPayload is the payload for a draft_started event.
type DraftStartedPayload struct {
	DraftType  string    `json:"draft_type"`
	DraftOrder []string  `json:"draft_order"`
	Rounds     int       `json:"rounds"`
	TotalPicks int       `json:"total_picks"`
	StartedAt  time.Time `json:"started_at"`
}

// OnClockPayload is the payload for an on_clock event.
type OnClockPayload struct {
	TeamID      string    `json:"team_id"`
	Round       int       `json:"round"`
	Pick        int       `json:"pick"`
	OverallPick int       `json:"overall_pick"`
	Deadline    time.Time `json:"deadline"`
}

// PickCommittedPayload is the payload for a pick_committed event.
type PickCommittedPayload struct {
	Pick models.DraftPick `json:"pick"`
}

// NominationStartedPayload is the payload for a nomination_started event.
type NominationStartedPayload struct {
	PlayerID   string    `json:"player_id"`
	TeamID     string    `json:"team_id"`
	OpeningBid int       `json:"opening_bid"`
	Deadline   time.Time `json:"deadline"`
}

// BidUpdatedPayload is the payload for a bid_updated event.
type BidUpdatedPayload struct {
	PlayerID string    `json:"player_id"`
	Amount   int       `json:"amount"`
	Bidder   string    `json:"bidder"`
	Deadline time.Time `json:"deadline"`
}

// PlayerSoldPayload is the payload for a player_sold event.
type PlayerSoldPayload struct {
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`
	Price    int    `json:"price"`
}

// ParticipantPayload is the payload for participant_joined and
// participant_left events.
type ParticipantPayload struct {
	TeamID string `json:"team_id"`
}

// ChatMessagePayload is the payload for a chat_message event.
type ChatMessagePayload struct {
	TeamID string    `json:"team_id"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// DraftPausedPayload is the payload for a draft_paused event.
type DraftPausedPayload struct {
	PausedAt time.Time `json:"paused_at"`
	Reason   string    `json:"reason,omitempty"`
}

// DraftResumedPayload is the payload for a draft_resumed event.
type DraftResumedPayload struct {
	ResumedAt time.Time `json:"resumed_at"`
}

// DraftCompletedPayload is the payload for a draft_completed event.
type DraftCompletedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}

// ErrorPayload is the payload for an error event delivered to the client
// whose command was rejected.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
