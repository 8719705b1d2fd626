package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Command types accepted from clients. Anything else is rejected with an
// error event on the issuing connection.
const (
	CmdPick     = "pick"
	CmdBid      = "bid"
	CmdNominate = "nominate"
	CmdSetQueue = "set_queue"
	CmdChat     = "chat"
	CmdPause    = "pause"
	CmdResume   = "resume"
)

// ClientCommand is the JSON envelope clients write to the socket. Identity
// (draft, team, user) comes from the connection, never from the command, so
// a client cannot act on another team's behalf.
type ClientCommand struct {
	Type       string      `json:"type"`
	PlayerID   uuid.UUID   `json:"player_id,omitempty"`
	Amount     int         `json:"amount,omitempty"`
	OpeningBid int         `json:"opening_bid,omitempty"`
	Players    []uuid.UUID `json:"players,omitempty"`
	Text       string      `json:"text,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

func parseCommand(data []byte) (ClientCommand, error) {
	var cmd ClientCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return ClientCommand{}, fmt.Errorf("malformed command: %w", err)
	}
	if cmd.Type == "" {
		return ClientCommand{}, fmt.Errorf("command type is required")
	}
	return cmd, nil
}
