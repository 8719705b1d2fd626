// Package session implements the per-draft orchestration core: a state
// machine owned by a single goroutine that enforces turn order, deadlines
// and budgets, drives the pick clock, and is the only writer of one draft's
// truth. Sessions are independent of each other and of the transport layer.
package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftroom/go/internal/draft/auction"
	"github.com/mcdev12/draftroom/go/internal/draft/broadcast"
	"github.com/mcdev12/draftroom/go/internal/draft/clock"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/presence"
	"github.com/mcdev12/draftroom/go/internal/draft/turnorder"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/playerpool"
	"github.com/rs/zerolog"
)

// RosterWriter is the durable sink for committed picks. Writes are
// fire-and-continue: the session never blocks on them and never rolls a
// committed pick back. CommitPick must be idempotent on
// (draft_id, overall_pick).
type RosterWriter interface {
	CommitPick(ctx context.Context, pick models.DraftPick) error
	RecordSale(ctx context.Context, draftID, playerID, teamID uuid.UUID, price int) error
}

// SnapshotWriter persists the session's crash-recovery surface.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// Config wires one session.
type Config struct {
	Draft     models.Draft
	Teams     []models.Team
	Pool      playerpool.Gateway
	Roster    RosterWriter
	Snapshots SnapshotWriter
	Bus       *broadcast.Channel
	Clock     clockwork.Clock
	Logger    zerolog.Logger

	// OnEmpty is invoked (from the session goroutine) when the draft is
	// completed and the last participant has disconnected.
	OnEmpty func(draftID uuid.UUID)
}

// Session is one live draft. All fields below inbox are owned by the run
// goroutine exclusively.
type Session struct {
	inbox  chan msg
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	draft    models.Draft
	teams    map[uuid.UUID]models.Team
	order    []uuid.UUID
	picks    []models.DraftPick
	taken    map[uuid.UUID]bool
	queues   map[uuid.UUID][]uuid.UUID
	ledger   *auction.Ledger
	bid      *models.BidState
	bidAuto  bool
	deadline time.Time
	kick     bool // restart the current turn on loop startup (crash resume)

	tracker *presence.Tracker
	clk     *clock.PickClock
	pool    playerpool.Gateway
	roster  RosterWriter
	snaps   SnapshotWriter
	bus     *broadcast.Channel
	onEmpty func(uuid.UUID)
	log     zerolog.Logger
}

// New builds a session for a scheduled draft and starts its goroutine.
func New(cfg Config) (*Session, error) {
	s, err := build(cfg)
	if err != nil {
		return nil, err
	}
	go s.run()
	return s, nil
}

// Resume rebuilds a session from its persisted snapshot and committed pick
// log, then starts its goroutine. An in-progress draft restarts the current
// turn with a full window.
func Resume(cfg Config, snap Snapshot, picks []models.DraftPick) (*Session, error) {
	s, err := build(cfg)
	if err != nil {
		return nil, err
	}
	s.draft.Status = snap.Status
	s.order = snap.Order
	s.draft.Settings.DraftOrder = snap.Order
	s.draft.Settings.OrderSeed = snap.OrderSeed
	s.picks = picks
	for _, p := range picks {
		s.taken[p.PlayerID] = true
	}
	if s.draft.DraftType == models.DraftTypeAuction {
		if len(snap.Budgets) > 0 {
			s.ledger = auction.Restore(snap.Order, snap.Budgets, snap.NominationIndex)
		} else {
			s.ledger = auction.NewLedger(snap.Order, s.draft.Settings.BudgetPerTeam, s.draft.Settings.RosterSlots)
		}
		s.bid = snap.Bid
	}
	s.kick = snap.Status == models.DraftStatusInProgress
	go s.run()
	return s, nil
}

func build(cfg Config) (*Session, error) {
	if cfg.Draft.ID == uuid.Nil {
		return nil, fmt.Errorf("draft id is required")
	}
	if len(cfg.Teams) < 2 {
		return nil, fmt.Errorf("draft %s needs at least 2 teams", cfg.Draft.ID)
	}
	if cfg.Pool == nil || cfg.Roster == nil || cfg.Snapshots == nil || cfg.Bus == nil {
		return nil, fmt.Errorf("draft %s is missing a collaborator", cfg.Draft.ID)
	}
	wall := cfg.Clock
	if wall == nil {
		wall = clockwork.NewRealClock()
	}

	teams := make(map[uuid.UUID]models.Team, len(cfg.Teams))
	for _, t := range cfg.Teams {
		teams[t.ID] = t
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		inbox:   make(chan msg, 64),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		draft:   cfg.Draft,
		teams:   teams,
		taken:   make(map[uuid.UUID]bool),
		queues:  make(map[uuid.UUID][]uuid.UUID),
		tracker: presence.NewTracker(),
		clk:     clock.New(wall),
		pool:    cfg.Pool,
		roster:  cfg.Roster,
		snaps:   cfg.Snapshots,
		bus:     cfg.Bus,
		onEmpty: cfg.OnEmpty,
		log: cfg.Logger.With().
			Str("draft_id", cfg.Draft.ID.String()).
			Str("draft_type", string(cfg.Draft.DraftType)).
			Logger(),
	}
	return s, nil
}

// DraftID returns the draft's identity.
func (s *Session) DraftID() uuid.UUID { return s.draft.ID }

// Bus exposes the session's event fan-out for subscribers.
func (s *Session) Bus() *broadcast.Channel { return s.bus }

// Presence exposes the session's liveness tracker for read-side consumers.
func (s *Session) Presence() *presence.Tracker { return s.tracker }

// Stop tears the session down: all outstanding timers are cancelled and the
// fan-out is closed. Safe to call more than once.
func (s *Session) Stop() {
	s.cancel()
}

// Done is closed once the session goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Join registers a participant. If this completes the quorum (or the
// scheduled start time has passed), the draft starts.
func (s *Session) Join(ctx context.Context, userID string, teamID uuid.UUID) error {
	return s.roundTrip(ctx, func(reply chan error) msg {
		return joinMsg{userID: userID, teamID: teamID, reply: reply}
	})
}

// SubmitPick applies a snake-mode selection for the team on the clock.
func (s *Session) SubmitPick(ctx context.Context, teamID, playerID uuid.UUID) error {
	return s.roundTrip(ctx, func(reply chan error) msg {
		return pickMsg{teamID: teamID, playerID: playerID, reply: reply}
	})
}

// SubmitBid applies an auction bid against the live lot.
func (s *Session) SubmitBid(ctx context.Context, teamID uuid.UUID, amount int) error {
	return s.roundTrip(ctx, func(reply chan error) msg {
		return bidMsg{teamID: teamID, amount: amount, reply: reply}
	})
}

// Nominate opens a new auction lot on the nominating team's turn.
func (s *Session) Nominate(ctx context.Context, teamID, playerID uuid.UUID, openingBid int) error {
	return s.roundTrip(ctx, func(reply chan error) msg {
		return nominateMsg{teamID: teamID, playerID: playerID, openingBid: openingBid, reply: reply}
	})
}

// SetQueue replaces the team's autopick queue.
func (s *Session) SetQueue(ctx context.Context, teamID uuid.UUID, players []uuid.UUID) error {
	cp := make([]uuid.UUID, len(players))
	copy(cp, players)
	return s.roundTrip(ctx, func(reply chan error) msg {
		return setQueueMsg{teamID: teamID, players: cp, reply: reply}
	})
}

// Chat broadcasts an incidental chat message to the session and league room.
func (s *Session) Chat(ctx context.Context, teamID uuid.UUID, text string) error {
	return s.roundTrip(ctx, func(reply chan error) msg {
		return chatMsg{teamID: teamID, text: text, reply: reply}
	})
}

// Pause suspends the draft (operator action).
func (s *Session) Pause(ctx context.Context, reason string) error {
	return s.roundTrip(ctx, func(reply chan error) msg {
		return pauseMsg{reason: reason, reply: reply}
	})
}

// Resume restarts a paused draft with a full clock window.
func (s *Session) ResumeDraft(ctx context.Context) error {
	return s.roundTrip(ctx, func(reply chan error) msg {
		return resumeMsg{reply: reply}
	})
}

// Disconnect flags a team for accelerated autopick. If the team is on the
// clock its turn is resolved immediately instead of waiting out the window.
func (s *Session) Disconnect(teamID uuid.UUID) {
	select {
	case s.inbox <- disconnectMsg{teamID: teamID}:
	case <-s.done:
	}
}

// State returns a consistent read-only view of the session.
func (s *Session) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case s.inbox <- stateMsg{reply: reply}:
	case <-s.done:
		return View{}, ErrDraftNotFound
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrDraftNotFound
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (s *Session) roundTrip(ctx context.Context, buildMsg func(chan error) msg) error {
	reply := make(chan error, 1)
	select {
	case s.inbox <- buildMsg(reply):
	case <-s.done:
		return ErrDraftNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrDraftNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the single-writer loop. Every mutation of draft state happens here.
func (s *Session) run() {
	defer close(s.done)
	defer s.bus.Close()
	defer s.clk.Cancel()

	if s.kick {
		s.kick = false
		s.restartCurrentTurn()
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case m := <-s.inbox:
			s.dispatch(m)
		}
	}
}

func (s *Session) dispatch(m msg) {
	switch m := m.(type) {
	case joinMsg:
		m.reply <- s.handleJoin(m)
	case pickMsg:
		m.reply <- s.handlePick(m)
	case bidMsg:
		m.reply <- s.handleBid(m)
	case nominateMsg:
		m.reply <- s.handleNominate(m)
	case setQueueMsg:
		m.reply <- s.handleSetQueue(m)
	case chatMsg:
		m.reply <- s.handleChat(m)
	case disconnectMsg:
		s.handleDisconnect(m)
	case pauseMsg:
		m.reply <- s.handlePause(m)
	case resumeMsg:
		m.reply <- s.handleResume()
	case timeoutMsg:
		s.handleTimeout(m)
	case stateMsg:
		m.reply <- s.view()
	}
}

func (s *Session) handleJoin(m joinMsg) error {
	if _, ok := s.teams[m.teamID]; !ok {
		return ErrNotAParticipant
	}

	rejoined := s.tracker.Connect(m.teamID, s.now())
	if rejoined {
		s.publish(events.TypeParticipantJoined, events.ParticipantPayload{TeamID: m.teamID.String()})
		s.log.Info().Str("team_id", m.teamID.String()).Msg("participant reconnected")
	} else {
		s.publish(events.TypeJoined, events.JoinedPayload{TeamID: m.teamID.String(), UserID: m.userID})
		s.log.Info().Str("team_id", m.teamID.String()).Str("user_id", m.userID).Msg("participant joined")
	}

	if s.draft.Status == models.DraftStatusScheduled {
		quorum := s.tracker.SeenCount() >= len(s.teams)
		due := s.draft.ScheduledAt != nil && !s.now().Before(*s.draft.ScheduledAt)
		if quorum || due {
			s.startDraft()
		}
	}
	return nil
}

// startDraft freezes the draft order exactly once (seeded, auditable) and
// persists it before the first clock starts, so a crash mid-draft can never
// re-randomize the order.
func (s *Session) startDraft() {
	if len(s.order) == 0 {
		teamIDs := make([]uuid.UUID, 0, len(s.teams))
		for _, t := range s.teams {
			teamIDs = append(teamIDs, t.ID)
		}
		// map iteration order is random; sort for a stable shuffle input
		sortUUIDs(teamIDs)

		seed := s.draft.Settings.OrderSeed
		if seed == 0 {
			seed = s.now().UnixNano()
			s.draft.Settings.OrderSeed = seed
		}
		if len(s.draft.Settings.DraftOrder) == len(s.teams) {
			s.order = s.draft.Settings.DraftOrder
		} else {
			s.order = turnorder.Shuffle(teamIDs, seed)
			s.draft.Settings.DraftOrder = s.order
		}
	}

	now := s.now()
	s.draft.Status = models.DraftStatusInProgress
	s.draft.StartedAt = &now

	if s.draft.DraftType == models.DraftTypeAuction && s.ledger == nil {
		s.ledger = auction.NewLedger(s.order, s.draft.Settings.BudgetPerTeam, s.draft.Settings.RosterSlots)
	}

	s.persistSnapshot()

	orderStr := make([]string, len(s.order))
	for i, id := range s.order {
		orderStr[i] = id.String()
	}
	s.publish(events.TypeDraftStarted, events.DraftStartedPayload{
		DraftType:  string(s.draft.DraftType),
		DraftOrder: orderStr,
		Rounds:     s.draft.Settings.Rounds,
		TotalPicks: s.totalPicks(),
		StartedAt:  now,
	})
	s.log.Info().Int("teams", len(s.teams)).Int64("order_seed", s.draft.Settings.OrderSeed).Msg("draft started")

	if s.draft.DraftType == models.DraftTypeAuction {
		s.startNomination()
	} else {
		s.startTurn()
	}
}

func (s *Session) handleSetQueue(m setQueueMsg) error {
	if _, ok := s.teams[m.teamID]; !ok {
		return ErrNotAParticipant
	}
	s.queues[m.teamID] = m.players
	return nil
}

func (s *Session) handleChat(m chatMsg) error {
	if _, ok := s.teams[m.teamID]; !ok {
		return ErrNotAParticipant
	}
	s.publish(events.TypeChatMessage, events.ChatMessagePayload{
		TeamID: m.teamID.String(),
		Text:   m.text,
		SentAt: s.now(),
	})
	return nil
}

func (s *Session) handleDisconnect(m disconnectMsg) {
	if _, ok := s.teams[m.teamID]; !ok {
		return
	}
	s.tracker.Disconnect(m.teamID, s.now())
	s.publish(events.TypeParticipantLeft, events.ParticipantPayload{TeamID: m.teamID.String()})
	s.log.Info().Str("team_id", m.teamID.String()).Msg("participant disconnected")

	if s.draft.Status == models.DraftStatusCompleted {
		s.maybeEvict()
		return
	}
	if s.draft.Status != models.DraftStatusInProgress {
		return
	}

	// keep the draft moving: resolve the disconnected team's turn now
	switch s.draft.DraftType {
	case models.DraftTypeSnake:
		if team, err := s.currentTeam(); err == nil && team == m.teamID {
			s.autopick(team)
		}
	case models.DraftTypeAuction:
		if s.bid == nil {
			if team, ok := s.ledger.NominatingTeam(); ok && team == m.teamID {
				s.autoNominate()
			}
		}
	}
}

func (s *Session) handlePause(m pauseMsg) error {
	if s.draft.Status != models.DraftStatusInProgress {
		return ErrDraftStateChanged
	}
	s.clk.Cancel()
	s.deadline = time.Time{}
	s.draft.Status = models.DraftStatusPaused
	s.persistSnapshot()
	s.publish(events.TypeDraftPaused, events.DraftPausedPayload{PausedAt: s.now(), Reason: m.reason})
	s.log.Info().Str("reason", m.reason).Msg("draft paused")
	return nil
}

func (s *Session) handleResume() error {
	if s.draft.Status != models.DraftStatusPaused {
		return ErrDraftStateChanged
	}
	s.draft.Status = models.DraftStatusInProgress
	s.persistSnapshot()
	s.publish(events.TypeDraftResumed, events.DraftResumedPayload{ResumedAt: s.now()})
	s.log.Info().Msg("draft resumed")
	s.restartCurrentTurn()
	return nil
}

// restartCurrentTurn re-arms the clock for whatever decision is pending,
// with a full window.
func (s *Session) restartCurrentTurn() {
	if s.draft.Status != models.DraftStatusInProgress {
		return
	}
	switch s.draft.DraftType {
	case models.DraftTypeAuction:
		if s.bid != nil {
			deadline := s.armClock(s.bidWindow())
			s.bid.Deadline = deadline
			s.publish(events.TypeBidUpdated, events.BidUpdatedPayload{
				PlayerID: s.bid.PlayerID.String(),
				Amount:   s.bid.Amount,
				Bidder:   s.bid.HighBidder.String(),
				Deadline: deadline,
			})
			return
		}
		s.startNomination()
	default:
		s.startTurn()
	}
}

func (s *Session) handleTimeout(m timeoutMsg) {
	if m.gen != s.clk.Generation() {
		// lost the race to a manual action that already advanced the draft
		s.log.Debug().
			Uint64("gen", m.gen).
			Str("code", CodeOf(ErrDraftStateChanged)).
			Msg("stale clock fire rejected")
		return
	}
	if s.draft.Status != models.DraftStatusInProgress {
		return
	}

	switch s.draft.DraftType {
	case models.DraftTypeAuction:
		if s.bid != nil {
			s.sellCurrentLot()
		} else {
			s.autoNominate()
		}
	default:
		team, err := s.currentTeam()
		if err != nil {
			s.log.Error().Err(err).Msg("timeout with no team on the clock")
			return
		}
		s.log.Info().Str("team_id", team.String()).Msg("pick clock expired, autopicking")
		s.autopick(team)
	}
}

// complete finalizes the draft and notifies every participant.
func (s *Session) complete() {
	s.clk.Cancel()
	s.deadline = time.Time{}
	now := s.now()
	s.draft.Status = models.DraftStatusCompleted
	s.draft.CompletedAt = &now
	s.persistSnapshot()
	s.publish(events.TypeDraftCompleted, events.DraftCompletedPayload{
		CompletedAt: now,
		TotalPicks:  len(s.picks),
	})
	s.log.Info().Int("picks", len(s.picks)).Msg("draft completed")
	s.maybeEvict()
}

func (s *Session) maybeEvict() {
	if s.draft.Status == models.DraftStatusCompleted && s.tracker.ConnectedCount() == 0 && s.onEmpty != nil {
		s.onEmpty(s.draft.ID)
	}
}

// pause invoked internally when the draft cannot proceed (e.g. exhausted
// player pool); an operator resumes once the feed recovers.
func (s *Session) pauseInternal(reason string) {
	s.clk.Cancel()
	s.deadline = time.Time{}
	s.draft.Status = models.DraftStatusPaused
	s.persistSnapshot()
	s.publish(events.TypeDraftPaused, events.DraftPausedPayload{PausedAt: s.now(), Reason: reason})
	s.log.Warn().Str("reason", reason).Msg("draft paused internally")
}

func (s *Session) view() View {
	v := View{
		DraftID:   s.draft.ID,
		LeagueID:  s.draft.LeagueID,
		DraftType: s.draft.DraftType,
		Status:    s.draft.Status,
		Order:     append([]uuid.UUID(nil), s.order...),
		Picks:     append([]models.DraftPick(nil), s.picks...),
		Deadline:  s.deadline,
	}
	if s.draft.Status == models.DraftStatusInProgress || s.draft.Status == models.DraftStatusPaused {
		switch s.draft.DraftType {
		case models.DraftTypeSnake:
			v.Round, v.Pick = turnorder.Position(len(s.order), len(s.picks)+1)
			if team, err := s.currentTeam(); err == nil {
				v.OnClock = team
			}
		case models.DraftTypeAuction:
			v.Round, v.Pick = turnorder.Position(len(s.order), len(s.picks)+1)
			if team, ok := s.ledger.NominatingTeam(); ok {
				v.OnClock = team
			}
		}
	}
	if s.bid != nil {
		bid := *s.bid
		v.Bid = &bid
	}
	if s.ledger != nil {
		v.Budgets = s.ledger.Budgets()
	}
	return v
}

func (s *Session) publish(t events.Type, payload any) {
	ev, err := events.New(s.draft.ID, s.draft.LeagueID, t, s.now(), payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", string(t)).Msg("failed to build event")
		return
	}
	s.bus.Publish(ev)
}

func (s *Session) persistSnapshot() {
	snap := Snapshot{
		DraftID:   s.draft.ID,
		LeagueID:  s.draft.LeagueID,
		DraftType: s.draft.DraftType,
		Status:    s.draft.Status,
		Order:     append([]uuid.UUID(nil), s.order...),
		OrderSeed: s.draft.Settings.OrderSeed,
		PickCount: len(s.picks),
		UpdatedAt: s.now(),
	}
	if s.bid != nil {
		bid := *s.bid
		snap.Bid = &bid
	}
	if s.ledger != nil {
		snap.Budgets = s.ledger.Budgets()
		snap.NominationIndex = s.ledger.NominationIndex()
	}
	if err := s.snaps.SaveSnapshot(s.ctx, snap); err != nil {
		s.log.Error().Err(err).Msg("failed to enqueue snapshot")
	}
}

// armClock starts the countdown and records the deadline for views.
func (s *Session) armClock(d time.Duration) time.Time {
	_, deadline := s.clk.Start(d, s.fireTimeout)
	s.deadline = deadline
	return deadline
}

func (s *Session) fireTimeout(gen uint64) {
	select {
	case s.inbox <- timeoutMsg{gen: gen}:
	case <-s.done:
	}
}

func (s *Session) currentTeam() (uuid.UUID, error) {
	round, pick := turnorder.Position(len(s.order), len(s.picks)+1)
	return turnorder.TeamOnClock(s.order, round, pick)
}

func (s *Session) totalPicks() int {
	if s.draft.DraftType == models.DraftTypeAuction {
		return s.draft.Settings.RosterSlots * len(s.teams)
	}
	return s.draft.Settings.Rounds * len(s.teams)
}

func (s *Session) pickWindow() time.Duration {
	return time.Duration(s.draft.Settings.TimePerPickSec) * time.Second
}

func (s *Session) bidWindow() time.Duration {
	if s.draft.Settings.BidWindowSec > 0 {
		return time.Duration(s.draft.Settings.BidWindowSec) * time.Second
	}
	return 10 * time.Second
}

func (s *Session) now() time.Time {
	return s.clk.Now()
}

func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}
