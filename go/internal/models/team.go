package models

import "github.com/google/uuid"

// Team is a drafting franchise within a league.
type Team struct {
	ID              uuid.UUID      `json:"id"`
	LeagueID        uuid.UUID      `json:"league_id"`
	OwnerID         uuid.UUID      `json:"owner_id"`
	Name            string         `json:"name"`
	RosterSlots     int            `json:"roster_slots"`
	SlotsByPosition map[string]int `json:"slots_by_position,omitempty"`
}
