// Package events defines the closed event vocabulary the orchestration core
// emits and the JSON payloads the presentation layer consumes.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies one kind of session event.
type Type string

const (
	TypeJoined            Type = "joined"
	TypeDraftStarted      Type = "draft_started"
	TypeOnClock           Type = "on_clock"
	TypePickCommitted     Type = "pick_committed"
	TypeNominationStarted Type = "nomination_started"
	TypeBidUpdated        Type = "bid_updated"
	TypePlayerSold        Type = "player_sold"
	TypeParticipantJoined Type = "participant_joined"
	TypeParticipantLeft   Type = "participant_left"
	TypeChatMessage       Type = "chat_message"
	TypeDraftPaused       Type = "draft_paused"
	TypeDraftResumed      Type = "draft_resumed"
	TypeDraftCompleted    Type = "draft_completed"
	TypeError             Type = "error"
)

// Event is the envelope pushed to every subscriber of a session and mirrored
// to the league room.
type Event struct {
	ID        string          `json:"id"`
	DraftID   string          `json:"draft_id"`
	LeagueID  string          `json:"league_id,omitempty"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an event envelope, marshalling payload into Data.
func New(draftID, leagueID uuid.UUID, t Type, at time.Time, payload any) (Event, error) {
	ev := Event{
		ID:        uuid.New().String(),
		DraftID:   draftID.String(),
		LeagueID:  leagueID.String(),
		Type:      t,
		Timestamp: at,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		ev.Data = data
	}
	return ev, nil
}
