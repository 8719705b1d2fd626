package session

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/turnorder"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/playerpool"
)

// startNomination puts the next team in the rotation on the clock to open a
// lot. Teams with full rosters are skipped by the ledger.
func (s *Session) startNomination() {
	if s.ledger.AllRostersFull() || len(s.picks) >= s.totalPicks() {
		s.complete()
		return
	}
	team, ok := s.ledger.NominatingTeam()
	if !ok {
		s.complete()
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
	s.log.Info().Str("team_id", team.String()).Msg("team nominating")

	if s.tracker.AutoPickEnabled(team) {
		s.autoNominate()
	}
}

func (s *Session) handleNominate(m nominateMsg) error {
	if _, ok := s.teams[m.teamID]; !ok {
		return ErrNotAParticipant
	}
	if s.draft.Status != models.DraftStatusInProgress {
		return ErrDraftStateChanged
	}
	if s.draft.DraftType != models.DraftTypeAuction {
		return ErrWrongTurn
	}
	if s.bid != nil {
		return ErrDraftStateChanged
	}
	team, ok := s.ledger.NominatingTeam()
	if !ok {
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
	if m.openingBid < 1 {
		return ErrBidTooLow
	}
	if !s.ledger.CanBid(m.teamID, m.openingBid) {
		return ErrBudgetExceeded
	}

	s.openLot(m.teamID, m.playerID, m.openingBid, false)
	return nil
}

func (s *Session) handleBid(m bidMsg) error {
	if _, ok := s.teams[m.teamID]; !ok {
		return ErrNotAParticipant
	}
	if s.draft.Status != models.DraftStatusInProgress {
		return ErrDraftStateChanged
	}
	if s.draft.DraftType != models.DraftTypeAuction {
		return ErrWrongTurn
	}
	if s.bid == nil {
		return ErrDraftStateChanged
	}
	if m.amount <= s.bid.Amount {
		return ErrBidTooLow
	}
	if !s.ledger.CanBid(m.teamID, m.amount) {
		return ErrBudgetExceeded
	}

	s.bid.Amount = m.amount
	s.bid.HighBidder = m.teamID
	s.bidAuto = false
	s.bid.Deadline = s.armClock(s.bidWindow())
	s.publish(events.TypeBidUpdated, events.BidUpdatedPayload{
		PlayerID: s.bid.PlayerID.String(),
		Amount:   s.bid.Amount,
		Bidder:   m.teamID.String(),
		Deadline: s.bid.Deadline,
	})
	s.log.Info().
		Str("team_id", m.teamID.String()).
		Str("player_id", s.bid.PlayerID.String()).
		Int("amount", m.amount).
		Msg("bid accepted")
	return nil
}

// autoNominate opens a $1 lot for the absent nominating team: its queue
// first, else the best available player. Keeps the rotation fair without
// letting one absence stall the room.
func (s *Session) autoNominate() {
	team, ok := s.ledger.NominatingTeam()
	if !ok {
		s.complete()
		return
	}
	playerID, found := s.choosePlayer(team)
	if !found {
		s.pauseInternal("player pool exhausted")
		return
	}
	s.openLot(team, playerID, 1, true)
	s.log.Info().
		Str("team_id", team.String()).
		Str("player_id", playerID.String()).
		Msg("auto-nominated on absent team's behalf")
}

// openLot puts a player up for bid. The nominator is the opening high
// bidder; every bid (including the opening one) re-arms the bid window.
func (s *Session) openLot(team, playerID uuid.UUID, openingBid int, auto bool) {
	deadline := s.armClock(s.bidWindow())
	s.bid = &models.BidState{
		PlayerID:    playerID,
		NominatedBy: team,
		Amount:      openingBid,
		HighBidder:  team,
		Deadline:    deadline,
	}
	s.bidAuto = auto
	s.persistSnapshot()
	s.publish(events.TypeNominationStarted, events.NominationStartedPayload{
		PlayerID:   playerID.String(),
		TeamID:     team.String(),
		OpeningBid: openingBid,
		Deadline:   deadline,
	})
	s.log.Info().
		Str("team_id", team.String()).
		Str("player_id", playerID.String()).
		Int("opening_bid", openingBid).
		Msg("nomination opened")
}

// sellCurrentLot closes the lot to the high bidder at the standing amount,
// debits the ledger, records the sale as a pick and advances the rotation.
func (s *Session) sellCurrentLot() {
	lot := *s.bid
	auto := s.bidAuto
	s.bid = nil
	s.bidAuto = false
	s.clk.Cancel()

	if err := s.ledger.RecordSale(lot.HighBidder, lot.Amount); err != nil {
		s.log.Error().Err(err).
			Str("team_id", lot.HighBidder.String()).
			Int("price", lot.Amount).
			Msg("sale violated budget ledger")
		s.pauseInternal("budget ledger inconsistency")
		return
	}

	s.publish(events.TypePlayerSold, events.PlayerSoldPayload{
		PlayerID: lot.PlayerID.String(),
		TeamID:   lot.HighBidder.String(),
		Price:    lot.Amount,
	})
	s.log.Info().
		Str("team_id", lot.HighBidder.String()).
		Str("player_id", lot.PlayerID.String()).
		Int("price", lot.Amount).
		Msg("player sold")

	if err := s.roster.RecordSale(s.ctx, s.draft.ID, lot.PlayerID, lot.HighBidder, lot.Amount); err != nil {
		s.log.Error().Err(err).Str("player_id", lot.PlayerID.String()).Msg("failed to enqueue sale write")
	}

	price := lot.Amount
	s.commitPick(lot.HighBidder, lot.PlayerID, auto, &price)

	s.ledger.AdvanceNomination()
	s.startNomination()
}
