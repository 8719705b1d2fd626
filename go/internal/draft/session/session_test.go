package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftroom/go/internal/draft/broadcast"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/session"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/playerpool"
	"github.com/rs/zerolog"
)

// memStore is an in-memory RosterWriter + SnapshotWriter for tests.
type memStore struct {
	mu    sync.Mutex
	picks []models.DraftPick
	sales int
	snap  *session.Snapshot
}

func (m *memStore) CommitPick(_ context.Context, pick models.DraftPick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.picks = append(m.picks, pick)
	return nil
}

func (m *memStore) RecordSale(_ context.Context, _, _, _ uuid.UUID, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales++
	return nil
}

func (m *memStore) SaveSnapshot(_ context.Context, snap session.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &snap
	return nil
}

func (m *memStore) committed() []models.DraftPick {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DraftPick, len(m.picks))
	copy(out, m.picks)
	return out
}

func (m *memStore) lastSnapshot() session.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.snap
}

type fixture struct {
	sess    *session.Session
	store   *memStore
	clock   *clockwork.FakeClock
	teams   []models.Team
	players []models.Player
	stream  <-chan events.Event
}

func newTeams(n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = models.Team{ID: uuid.New(), LeagueID: uuid.New(), Name: "team"}
	}
	return teams
}

func newPlayers(n int) []models.Player {
	players := make([]models.Player, n)
	for i := range players {
		players[i] = models.Player{ID: uuid.New(), FullName: "player", Position: "RB", Rank: i + 1, ADP: float64(i + 1)}
	}
	return players
}

func newFixture(t *testing.T, draft models.Draft, teams []models.Team, players []models.Player) *fixture {
	t.Helper()

	fc := clockwork.NewFakeClock()
	store := &memStore{}
	bus := broadcast.NewChannel(nil, zerolog.Nop())
	stream := bus.Subscribe("test", 256)

	sess, err := session.New(session.Config{
		Draft:     draft,
		Teams:     teams,
		Pool:      playerpool.NewStatic(players),
		Roster:    store,
		Snapshots: store,
		Bus:       bus,
		Clock:     fc,
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(sess.Stop)

	return &fixture{sess: sess, store: store, clock: fc, teams: teams, players: players, stream: stream}
}

func (f *fixture) joinAll(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for i, team := range f.teams {
		if err := f.sess.Join(ctx, "user", team.ID); err != nil {
			t.Fatalf("Join team %d: %v", i, err)
		}
	}
}

// waitEvent drains the stream until an event of type want arrives.
func (f *fixture) waitEvent(t *testing.T, want events.Type) events.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-f.stream:
			if !ok {
				t.Fatalf("event stream closed while waiting for %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func snakeDraft(teams []models.Team, rounds int) models.Draft {
	order := make([]uuid.UUID, len(teams))
	for i, tm := range teams {
		order[i] = tm.ID
	}
	return models.Draft{
		ID:        uuid.New(),
		LeagueID:  uuid.New(),
		DraftType: models.DraftTypeSnake,
		Status:    models.DraftStatusScheduled,
		Settings: models.DraftSettings{
			Rounds:         rounds,
			TimePerPickSec: 60,
			DraftOrder:     order,
			OrderSeed:      42,
		},
	}
}

func auctionDraft(teams []models.Team, slots, budget int) models.Draft {
	order := make([]uuid.UUID, len(teams))
	for i, tm := range teams {
		order[i] = tm.ID
	}
	return models.Draft{
		ID:        uuid.New(),
		LeagueID:  uuid.New(),
		DraftType: models.DraftTypeAuction,
		Status:    models.DraftStatusScheduled,
		Settings: models.DraftSettings{
			TimePerPickSec: 30,
			BidWindowSec:   10,
			BudgetPerTeam:  budget,
			RosterSlots:    slots,
			DraftOrder:     order,
			OrderSeed:      42,
		},
	}
}

func TestSnakeDraftRunsToCompletion(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	f := newFixture(t, snakeDraft(teams, 2), teams, players)
	f.joinAll(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		view, err := f.sess.State(ctx)
		if err != nil {
			t.Fatalf("State: %v", err)
		}
		if view.Status != models.DraftStatusInProgress {
			t.Fatalf("pick %d: status = %s, want IN_PROGRESS", i+1, view.Status)
		}
		if err := f.sess.SubmitPick(ctx, view.OnClock, players[i].ID); err != nil {
			t.Fatalf("SubmitPick %d: %v", i+1, err)
		}
	}

	view, err := f.sess.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if view.Status != models.DraftStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", view.Status)
	}
	if len(view.Picks) != 4 {
		t.Fatalf("picks = %d, want 4", len(view.Picks))
	}

	// snake: round 2 order is round 1 reversed
	if view.Picks[0].TeamID != teams[0].ID || view.Picks[1].TeamID != teams[1].ID {
		t.Errorf("round 1 order = %v, %v; want %v, %v",
			view.Picks[0].TeamID, view.Picks[1].TeamID, teams[0].ID, teams[1].ID)
	}
	if view.Picks[2].TeamID != teams[1].ID || view.Picks[3].TeamID != teams[0].ID {
		t.Errorf("round 2 order = %v, %v; want %v, %v",
			view.Picks[2].TeamID, view.Picks[3].TeamID, teams[1].ID, teams[0].ID)
	}

	if got := len(f.store.committed()); got != 4 {
		t.Errorf("committed writes = %d, want 4", got)
	}
	f.waitEvent(t, events.TypeDraftCompleted)
}

func TestSnakePickRejections(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	f := newFixture(t, snakeDraft(teams, 2), teams, players)
	f.joinAll(t)
	ctx := context.Background()

	// not this team's turn
	if err := f.sess.SubmitPick(ctx, teams[1].ID, players[0].ID); !errors.Is(err, session.ErrWrongTurn) {
		t.Errorf("out-of-turn pick: err = %v, want ErrWrongTurn", err)
	}
	// not a participant at all
	if err := f.sess.SubmitPick(ctx, uuid.New(), players[0].ID); !errors.Is(err, session.ErrNotAParticipant) {
		t.Errorf("stranger pick: err = %v, want ErrNotAParticipant", err)
	}
	// unknown player
	if err := f.sess.SubmitPick(ctx, teams[0].ID, uuid.New()); !errors.Is(err, session.ErrPlayerUnavailable) {
		t.Errorf("unknown player: err = %v, want ErrPlayerUnavailable", err)
	}

	if err := f.sess.SubmitPick(ctx, teams[0].ID, players[0].ID); err != nil {
		t.Fatalf("legal pick: %v", err)
	}
	// retransmit of an applied pick is a state race, not a turn violation
	if err := f.sess.SubmitPick(ctx, teams[0].ID, players[0].ID); !errors.Is(err, session.ErrDraftStateChanged) {
		t.Errorf("retransmit: err = %v, want ErrDraftStateChanged", err)
	}
	// another team picking the same player is a roster conflict
	if err := f.sess.SubmitPick(ctx, teams[1].ID, players[0].ID); !errors.Is(err, session.ErrPlayerUnavailable) {
		t.Errorf("taken player: err = %v, want ErrPlayerUnavailable", err)
	}
}

func TestSnakeClockExpiryAutopicksFromQueue(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	f := newFixture(t, snakeDraft(teams, 2), teams, players)
	ctx := context.Background()

	f.joinAll(t)
	// queue the third-ranked player ahead of better ones
	if err := f.sess.SetQueue(ctx, teams[0].ID, []uuid.UUID{players[2].ID}); err != nil {
		t.Fatalf("SetQueue: %v", err)
	}

	f.waitEvent(t, events.TypeOnClock)
	f.clock.Advance(61 * time.Second)

	ev := f.waitEvent(t, events.TypePickCommitted)
	var payload events.PickCommittedPayload
	mustUnmarshal(t, ev.Data, &payload)
	if !payload.Pick.AutoPick {
		t.Error("expiry pick not flagged auto_pick")
	}
	if payload.Pick.PlayerID != players[2].ID {
		t.Errorf("autopick took %s, want queued %s", payload.Pick.PlayerID, players[2].ID)
	}
	if payload.Pick.TeamID != teams[0].ID {
		t.Errorf("autopick team = %s, want %s", payload.Pick.TeamID, teams[0].ID)
	}
}

func TestSnakeClockExpiryFallsBackToBestAvailable(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	f := newFixture(t, snakeDraft(teams, 2), teams, players)
	f.joinAll(t)

	f.waitEvent(t, events.TypeOnClock)
	f.clock.Advance(61 * time.Second)

	ev := f.waitEvent(t, events.TypePickCommitted)
	var payload events.PickCommittedPayload
	mustUnmarshal(t, ev.Data, &payload)
	if payload.Pick.PlayerID != players[0].ID {
		t.Errorf("autopick took %s, want best available %s", payload.Pick.PlayerID, players[0].ID)
	}
}

func TestDisconnectOnClockResolvesImmediately(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	f := newFixture(t, snakeDraft(teams, 2), teams, players)
	f.joinAll(t)
	ctx := context.Background()

	f.waitEvent(t, events.TypeOnClock)
	f.sess.Disconnect(teams[0].ID)

	ev := f.waitEvent(t, events.TypePickCommitted)
	var payload events.PickCommittedPayload
	mustUnmarshal(t, ev.Data, &payload)
	if !payload.Pick.AutoPick || payload.Pick.TeamID != teams[0].ID {
		t.Errorf("disconnect pick = %+v, want auto pick for %s", payload.Pick, teams[0].ID)
	}

	// reconnecting does not re-open the resolved turn
	if err := f.sess.Join(ctx, "user", teams[0].ID); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	view, err := f.sess.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(view.Picks) != 1 {
		t.Fatalf("picks after rejoin = %d, want 1", len(view.Picks))
	}
	if view.OnClock != teams[1].ID {
		t.Errorf("on clock after rejoin = %s, want %s", view.OnClock, teams[1].ID)
	}
}

func TestTenTeamExpiryTakesBestAvailable(t *testing.T) {
	teams := newTeams(10)
	players := newPlayers(40)
	f := newFixture(t, snakeDraft(teams, 16), teams, players)
	f.joinAll(t)
	ctx := context.Background()

	// teams 1 and 2 pick manually; team 3's window lapses with no queue set
	if err := f.sess.SubmitPick(ctx, teams[0].ID, players[5].ID); err != nil {
		t.Fatalf("pick 1: %v", err)
	}
	if err := f.sess.SubmitPick(ctx, teams[1].ID, players[0].ID); err != nil {
		t.Fatalf("pick 2: %v", err)
	}

	f.clock.Advance(61 * time.Second)
	var payload events.PickCommittedPayload
	for {
		ev := f.waitEvent(t, events.TypePickCommitted)
		mustUnmarshal(t, ev.Data, &payload)
		if payload.Pick.OverallPick == 3 {
			break
		}
	}
	if payload.Pick.TeamID != teams[2].ID {
		t.Fatalf("pick 3 team = %s, want %s", payload.Pick.TeamID, teams[2].ID)
	}
	if !payload.Pick.AutoPick {
		t.Error("expiry pick not flagged auto_pick")
	}
	// players[0] (rank 1) is taken, so rank 2 is the best available
	if payload.Pick.PlayerID != players[1].ID {
		t.Errorf("autopick took %s, want highest-ranked available %s", payload.Pick.PlayerID, players[1].ID)
	}
}

func TestManualPickBeatsExpiredClock(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	f := newFixture(t, snakeDraft(teams, 2), teams, players)
	f.joinAll(t)
	ctx := context.Background()

	// the manual pick lands first; the old clock generation must be stale
	if err := f.sess.SubmitPick(ctx, teams[0].ID, players[3].ID); err != nil {
		t.Fatalf("SubmitPick: %v", err)
	}
	f.clock.Advance(61 * time.Second)

	// the next expiry belongs to team 2's fresh window
	ev := f.waitEvent(t, events.TypePickCommitted)
	var first events.PickCommittedPayload
	mustUnmarshal(t, ev.Data, &first)
	if first.Pick.AutoPick {
		t.Fatal("manual pick reported as auto")
	}

	ev = f.waitEvent(t, events.TypePickCommitted)
	var second events.PickCommittedPayload
	mustUnmarshal(t, ev.Data, &second)
	if second.Pick.TeamID != teams[1].ID {
		t.Errorf("second pick team = %s, want %s", second.Pick.TeamID, teams[1].ID)
	}
	if second.Pick.PlayerID == first.Pick.PlayerID {
		t.Error("expiry re-applied the manually picked player")
	}
}

func TestPauseAndResume(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	f := newFixture(t, snakeDraft(teams, 2), teams, players)
	f.joinAll(t)
	ctx := context.Background()

	if err := f.sess.Pause(ctx, "commissioner"); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := f.sess.Pause(ctx, "again"); !errors.Is(err, session.ErrDraftStateChanged) {
		t.Errorf("double pause: err = %v, want ErrDraftStateChanged", err)
	}
	if err := f.sess.SubmitPick(ctx, teams[0].ID, players[0].ID); !errors.Is(err, session.ErrDraftStateChanged) {
		t.Errorf("pick while paused: err = %v, want ErrDraftStateChanged", err)
	}

	// clocks stay quiet while paused
	f.clock.Advance(10 * time.Minute)
	view, err := f.sess.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if view.Status != models.DraftStatusPaused {
		t.Fatalf("status = %s, want PAUSED", view.Status)
	}
	if len(view.Picks) != 0 {
		t.Fatalf("picks while paused = %d, want 0", len(view.Picks))
	}

	if err := f.sess.ResumeDraft(ctx); err != nil {
		t.Fatalf("ResumeDraft: %v", err)
	}
	if err := f.sess.SubmitPick(ctx, teams[0].ID, players[0].ID); err != nil {
		t.Fatalf("pick after resume: %v", err)
	}
}

func TestAuctionLotLifecycle(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(6)
	f := newFixture(t, auctionDraft(teams, 2, 10), teams, players)
	f.joinAll(t)
	ctx := context.Background()

	// order is frozen as teams[0], teams[1]; teams[0] nominates first
	if err := f.sess.Nominate(ctx, teams[1].ID, players[0].ID, 1); !errors.Is(err, session.ErrWrongTurn) {
		t.Errorf("out-of-turn nomination: err = %v, want ErrWrongTurn", err)
	}
	if err := f.sess.Nominate(ctx, teams[0].ID, players[0].ID, 0); !errors.Is(err, session.ErrBidTooLow) {
		t.Errorf("zero opening bid: err = %v, want ErrBidTooLow", err)
	}
	if err := f.sess.Nominate(ctx, teams[0].ID, players[0].ID, 1); err != nil {
		t.Fatalf("Nominate: %v", err)
	}
	if err := f.sess.Nominate(ctx, teams[0].ID, players[1].ID, 1); !errors.Is(err, session.ErrDraftStateChanged) {
		t.Errorf("nominate with open lot: err = %v, want ErrDraftStateChanged", err)
	}

	// equal bid does not beat the standing bid
	if err := f.sess.SubmitBid(ctx, teams[1].ID, 1); !errors.Is(err, session.ErrBidTooLow) {
		t.Errorf("equal bid: err = %v, want ErrBidTooLow", err)
	}
	// max legal = 10 - (2 open slots - 1) = 9
	if err := f.sess.SubmitBid(ctx, teams[1].ID, 10); !errors.Is(err, session.ErrBudgetExceeded) {
		t.Errorf("over-reserve bid: err = %v, want ErrBudgetExceeded", err)
	}
	if err := f.sess.SubmitBid(ctx, teams[1].ID, 5); err != nil {
		t.Fatalf("SubmitBid: %v", err)
	}

	// let the bid window lapse; the lot goes to the high bidder
	f.waitEvent(t, events.TypeBidUpdated)
	f.clock.Advance(11 * time.Second)

	ev := f.waitEvent(t, events.TypePlayerSold)
	var sold events.PlayerSoldPayload
	mustUnmarshal(t, ev.Data, &sold)
	if sold.TeamID != teams[1].ID.String() || sold.Price != 5 {
		t.Errorf("sold = %+v, want team %s at 5", sold, teams[1].ID)
	}

	pickEv := f.waitEvent(t, events.TypePickCommitted)
	var pick events.PickCommittedPayload
	mustUnmarshal(t, pickEv.Data, &pick)
	if pick.Pick.Amount == nil || *pick.Pick.Amount != 5 {
		t.Errorf("sale pick amount = %v, want 5", pick.Pick.Amount)
	}

	view, err := f.sess.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if view.OnClock != teams[1].ID {
		t.Errorf("next nominator = %s, want %s", view.OnClock, teams[1].ID)
	}
	for _, b := range view.Budgets {
		if b.TeamID == teams[1].ID && (b.Spent != 5 || b.SlotsFilled != 1) {
			t.Errorf("buyer budget = %+v, want spent 5, filled 1", b)
		}
	}
}

func TestAuctionNominationExpiryAutoNominates(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(6)
	f := newFixture(t, auctionDraft(teams, 2, 10), teams, players)
	f.joinAll(t)

	f.waitEvent(t, events.TypeOnClock)
	f.clock.Advance(31 * time.Second)

	ev := f.waitEvent(t, events.TypeNominationStarted)
	var nom events.NominationStartedPayload
	mustUnmarshal(t, ev.Data, &nom)
	if nom.TeamID != teams[0].ID.String() || nom.OpeningBid != 1 {
		t.Errorf("auto nomination = %+v, want team %s at 1", nom, teams[0].ID)
	}
	if nom.PlayerID != players[0].ID.String() {
		t.Errorf("auto nomination player = %s, want best available %s", nom.PlayerID, players[0].ID)
	}

	// nobody bids; the player goes back to the absent nominator at 1
	f.clock.Advance(11 * time.Second)
	pickEv := f.waitEvent(t, events.TypePickCommitted)
	var pick events.PickCommittedPayload
	mustUnmarshal(t, pickEv.Data, &pick)
	if !pick.Pick.AutoPick {
		t.Error("unattended lot not flagged auto_pick")
	}
	if pick.Pick.TeamID != teams[0].ID {
		t.Errorf("unattended lot went to %s, want nominator %s", pick.Pick.TeamID, teams[0].ID)
	}
}

func TestResumeFromSnapshotContinuesDraft(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	draft := snakeDraft(teams, 2)
	f := newFixture(t, draft, teams, players)
	f.joinAll(t)
	ctx := context.Background()

	if err := f.sess.SubmitPick(ctx, teams[0].ID, players[0].ID); err != nil {
		t.Fatalf("SubmitPick: %v", err)
	}
	snap := f.store.lastSnapshot()
	picks := f.store.committed()
	f.sess.Stop()
	<-f.sess.Done()

	store2 := &memStore{}
	bus2 := broadcast.NewChannel(nil, zerolog.Nop())
	resumed, err := session.Resume(session.Config{
		Draft:     draft,
		Teams:     teams,
		Pool:      playerpool.NewStatic(players),
		Roster:    store2,
		Snapshots: store2,
		Bus:       bus2,
		Clock:     clockwork.NewFakeClock(),
		Logger:    zerolog.Nop(),
	}, snap, picks)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	t.Cleanup(resumed.Stop)

	view, err := resumed.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if view.Status != models.DraftStatusInProgress {
		t.Fatalf("resumed status = %s, want IN_PROGRESS", view.Status)
	}
	if len(view.Picks) != 1 {
		t.Fatalf("resumed picks = %d, want 1", len(view.Picks))
	}
	if view.OnClock != teams[1].ID {
		t.Errorf("resumed on clock = %s, want %s", view.OnClock, teams[1].ID)
	}

	// the taken set is rebuilt from the pick log
	if err := resumed.SubmitPick(ctx, teams[1].ID, players[0].ID); !errors.Is(err, session.ErrPlayerUnavailable) {
		t.Errorf("resumed taken player: err = %v, want ErrPlayerUnavailable", err)
	}
	if err := resumed.SubmitPick(ctx, teams[1].ID, players[1].ID); err != nil {
		t.Fatalf("resumed pick: %v", err)
	}
}

func TestStoppedSessionRejectsCommands(t *testing.T) {
	teams := newTeams(2)
	players := newPlayers(4)
	f := newFixture(t, snakeDraft(teams, 2), teams, players)
	f.sess.Stop()
	<-f.sess.Done()

	if err := f.sess.Join(context.Background(), "user", teams[0].ID); !errors.Is(err, session.ErrDraftNotFound) {
		t.Errorf("join after stop: err = %v, want ErrDraftNotFound", err)
	}
	if _, err := f.sess.State(context.Background()); !errors.Is(err, session.ErrDraftNotFound) {
		t.Errorf("state after stop: err = %v, want ErrDraftNotFound", err)
	}
}

func mustUnmarshal(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
}
