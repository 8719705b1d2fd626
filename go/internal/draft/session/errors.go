package session

import "errors"

// Client-visible rejections. All are recoverable: a rejected command never
// corrupts session state.
var (
	ErrWrongTurn         = errors.New("not this team's turn")
	ErrPlayerUnavailable = errors.New("player is not available")
	ErrBidTooLow         = errors.New("bid does not beat the current high bid")
	ErrBudgetExceeded    = errors.New("bid exceeds the team's legal maximum")
	ErrDraftStateChanged = errors.New("draft state changed before the command was applied")
	ErrDraftNotFound     = errors.New("draft not found")
	ErrNotAParticipant   = errors.New("team is not a participant of this draft")
)

// CodeOf maps a rejection to its wire code for the error event payload.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrWrongTurn):
		return "WRONG_TURN"
	case errors.Is(err, ErrPlayerUnavailable):
		return "PLAYER_UNAVAILABLE"
	case errors.Is(err, ErrBidTooLow):
		return "BID_TOO_LOW"
	case errors.Is(err, ErrBudgetExceeded):
		return "BUDGET_EXCEEDED"
	case errors.Is(err, ErrDraftStateChanged):
		return "DRAFT_STATE_CHANGED"
	case errors.Is(err, ErrDraftNotFound):
		return "DRAFT_NOT_FOUND"
	case errors.Is(err, ErrNotAParticipant):
		return "NOT_A_PARTICIPANT"
	default:
		return "INTERNAL"
	}
}
