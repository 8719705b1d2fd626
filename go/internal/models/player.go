package models

import "github.com/google/uuid"

// Player is a draftable entity from the player pool. Rank is the pool's
// ordering signal (1 is best); ADP breaks rank ties.
type Player struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Position string    `json:"position"`
	Rank     int       `json:"rank"`
	ADP      float64   `json:"adp"`
}
