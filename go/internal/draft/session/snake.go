package session

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/turnorder"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/playerpool"
)

// startTurn puts the next team on the clock. If that team is flagged for
// autopick, its turn is resolved immediately instead of burning the window.
func (s *Session) startTurn() {
	if len(s.picks) >= s.totalPicks() {
		s.complete()
		return
	}
	team, err := s.currentTeam()
	if err != nil {
		s.log.Error().Err(err).Msg("could not resolve team on the clock")
		s.pauseInternal("turn resolution failed")
		return
	}

	round, pick := turnorder.Position(len(s.order), len(s.picks)+1)
	deadline := s.armClock(s.pickWindow())
	s.publish(events.TypeOnClock, events.OnClockPayload{
		TeamID:      team.String(),
		Round:       round,
		Pick:        pick,
		OverallPick: len(s.picks) + 1,
		Deadline:    deadline,
	})
	s.log.Info().
		Str("team_id", team.String()).
		Int("round", round).
		Int("pick", pick).
		Msg("team on the clock")

	if s.tracker.AutoPickEnabled(team) {
		s.autopick(team)
	}
}

func (s *Session) handlePick(m pickMsg) error {
	if _, ok := s.teams[m.teamID]; !ok {
		return ErrNotAParticipant
	}
	if s.draft.Status != models.DraftStatusInProgress {
		return ErrDraftStateChanged
	}
	if s.draft.DraftType != models.DraftTypeSnake {
		return ErrWrongTurn
	}
	// a retransmit of an already-applied pick is a state race, not a turn
	// or roster violation
	for _, p := range s.picks {
		if p.PlayerID == m.playerID && p.TeamID == m.teamID {
			return ErrDraftStateChanged
		}
	}
	team, err := s.currentTeam()
	if err != nil {
		return ErrDraftStateChanged
	}
	if team != m.teamID {
		return ErrWrongTurn
	}
	if s.taken[m.playerID] {
		return ErrPlayerUnavailable
	}
	if _, err := s.pool.Get(s.ctx, m.playerID); err != nil {
		if errors.Is(err, playerpool.ErrNotFound) {
			return ErrPlayerUnavailable
		}
		s.log.Error().Err(err).Str("player_id", m.playerID.String()).Msg("player lookup failed")
		return err
	}

	s.clk.Cancel()
	s.commitPick(m.teamID, m.playerID, false, nil)
	s.startTurn()
	return nil
}

// autopick resolves the team's turn from its queue, falling back to the best
// available player.
func (s *Session) autopick(team uuid.UUID) {
	playerID, ok := s.choosePlayer(team)
	if !ok {
		s.pauseInternal("player pool exhausted")
		return
	}
	s.clk.Cancel()
	s.commitPick(team, playerID, true, nil)
	s.startTurn()
}

// choosePlayer returns the team's next autopick target: the first queued
// player still available, else the best-ranked player in the pool.
func (s *Session) choosePlayer(team uuid.UUID) (uuid.UUID, bool) {
	for _, id := range s.queues[team] {
		if s.taken[id] {
			continue
		}
		if _, err := s.pool.Get(s.ctx, id); err == nil {
			return id, true
		}
	}
	available, err := s.pool.ListAvailable(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing available players failed")
		return uuid.Nil, false
	}
	for _, p := range available {
		if !s.taken[p.ID] {
			return p.ID, true
		}
	}
	return uuid.Nil, false
}

// commitPick appends the pick to the log, enqueues the durable write and
// broadcasts it. Picks are never rolled back once committed.
func (s *Session) commitPick(team, playerID uuid.UUID, auto bool, amount *int) {
	round, pick := turnorder.Position(len(s.order), len(s.picks)+1)
	dp := models.DraftPick{
		ID:          uuid.New(),
		DraftID:     s.draft.ID,
		Round:       round,
		Pick:        pick,
		OverallPick: len(s.picks) + 1,
		TeamID:      team,
		PlayerID:    playerID,
		PickedAt:    s.now(),
		Amount:      amount,
		AutoPick:    auto,
	}
	s.picks = append(s.picks, dp)
	s.taken[playerID] = true
	s.pruneQueues(playerID)

	if err := s.roster.CommitPick(s.ctx, dp); err != nil {
		s.log.Error().Err(err).
			Str("pick_id", dp.ID.String()).
			Int("overall_pick", dp.OverallPick).
			Msg("failed to enqueue pick write")
	}
	s.persistSnapshot()

	s.publish(events.TypePickCommitted, events.PickCommittedPayload{Pick: dp})
	s.log.Info().
		Str("team_id", team.String()).
		Str("player_id", playerID.String()).
		Int("overall_pick", dp.OverallPick).
		Bool("auto_pick", auto).
		Msg("pick committed")
}

func (s *Session) pruneQueues(playerID uuid.UUID) {
	for team, q := range s.queues {
		for i, id := range q {
			if id == playerID {
				s.queues[team] = append(q[:i], q[i+1:]...)
				break
			}
		}
	}
}
