package session

import "github.com/google/uuid"

// Inbound mailbox messages. Every mutating operation is one message so the
// loop goroutine is the only writer of session state.
type msg interface{ isSessionMsg() }

type joinMsg struct {
	userID string
	teamID uuid.UUID
	reply  chan error
}

type pickMsg struct {
	teamID   uuid.UUID
	playerID uuid.UUID
	reply    chan error
}

type bidMsg struct {
	teamID uuid.UUID
	amount int
	reply  chan error
}

type nominateMsg struct {
	teamID     uuid.UUID
	playerID   uuid.UUID
	openingBid int
	reply      chan error
}

type setQueueMsg struct {
	teamID  uuid.UUID
	players []uuid.UUID
	reply   chan error
}

type chatMsg struct {
	teamID uuid.UUID
	text   string
	reply  chan error
}

type disconnectMsg struct {
	teamID uuid.UUID
}

type pauseMsg struct {
	reason string
	reply  chan error
}

type resumeMsg struct {
	reply chan error
}

type timeoutMsg struct {
	gen uint64
}

type stateMsg struct {
	reply chan View
}

func (joinMsg) isSessionMsg()       {}
func (pickMsg) isSessionMsg()       {}
func (bidMsg) isSessionMsg()        {}
func (nominateMsg) isSessionMsg()   {}
func (setQueueMsg) isSessionMsg()   {}
func (chatMsg) isSessionMsg()       {}
func (disconnectMsg) isSessionMsg() {}
func (pauseMsg) isSessionMsg()      {}
func (resumeMsg) isSessionMsg()     {}
func (timeoutMsg) isSessionMsg()    {}
func (stateMsg) isSessionMsg()      {}
