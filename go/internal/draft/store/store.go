// Package store persists draft truth to Postgres: the append-only pick log,
// auction sales, and the per-draft resume snapshot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/draft/session"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps a pgx pool with the draft persistence queries.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New builds a Store on the given pool.
func New(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

// CommitPick appends one pick to the log. Idempotent on
// (draft_id, overall_pick): a retried write of an already-persisted pick is
// a no-op, never a duplicate row.
func (s *Store) CommitPick(ctx context.Context, pick models.DraftPick) error {
	const q = `
		INSERT INTO draft_picks
			(id, draft_id, round, pick, overall_pick, team_id, player_id, picked_at, amount, auto_pick)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (draft_id, overall_pick) DO NOTHING`

	_, err := s.pool.Exec(ctx, q,
		pick.ID, pick.DraftID, pick.Round, pick.Pick, pick.OverallPick,
		pick.TeamID, pick.PlayerID, pick.PickedAt, pick.Amount, pick.AutoPick)
	if err != nil {
		return fmt.Errorf("insert draft pick %d of draft %s: %w", pick.OverallPick, pick.DraftID, err)
	}
	return nil
}

// RecordSale appends one auction sale row. Idempotent on
// (draft_id, player_id): a player sells exactly once per draft.
func (s *Store) RecordSale(ctx context.Context, draftID, playerID, teamID uuid.UUID, price int) error {
	const q = `
		INSERT INTO draft_sales (draft_id, player_id, team_id, price, sold_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (draft_id, player_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, q, draftID, playerID, teamID, price); err != nil {
		return fmt.Errorf("insert sale of %s in draft %s: %w", playerID, draftID, err)
	}
	return nil
}

// SaveSnapshot upserts the draft's resume snapshot. Last write wins; the
// snapshot plus the pick log fully determine the session's state.
func (s *Store) SaveSnapshot(ctx context.Context, snap session.Snapshot) error {
	order, err := json.Marshal(snap.Order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	var bid []byte
	if snap.Bid != nil {
		if bid, err = json.Marshal(snap.Bid); err != nil {
			return fmt.Errorf("marshal bid: %w", err)
		}
	}
	var budgets []byte
	if snap.Budgets != nil {
		if budgets, err = json.Marshal(snap.Budgets); err != nil {
			return fmt.Errorf("marshal budgets: %w", err)
		}
	}

	const q = `
		INSERT INTO draft_snapshots
			(draft_id, league_id, draft_type, status, draft_order, order_seed,
			 pick_count, bid, budgets, nomination_index, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (draft_id) DO UPDATE SET
			status = EXCLUDED.status,
			draft_order = EXCLUDED.draft_order,
			order_seed = EXCLUDED.order_seed,
			pick_count = EXCLUDED.pick_count,
			bid = EXCLUDED.bid,
			budgets = EXCLUDED.budgets,
			nomination_index = EXCLUDED.nomination_index,
			updated_at = EXCLUDED.updated_at`

	_, err = s.pool.Exec(ctx, q,
		snap.DraftID, snap.LeagueID, snap.DraftType, snap.Status, order, snap.OrderSeed,
		snap.PickCount, bid, budgets, snap.NominationIndex, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot for draft %s: %w", snap.DraftID, err)
	}
	return nil
}

// LoadSnapshot fetches the draft's resume snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, draftID uuid.UUID) (session.Snapshot, error) {
	const q = `
		SELECT draft_id, league_id, draft_type, status, draft_order, order_seed,
		       pick_count, bid, budgets, nomination_index, updated_at
		FROM draft_snapshots
		WHERE draft_id = $1`

	var (
		snap    session.Snapshot
		order   []byte
		bid     []byte
		budgets []byte
	)
	err := s.pool.QueryRow(ctx, q, draftID).Scan(
		&snap.DraftID, &snap.LeagueID, &snap.DraftType, &snap.Status, &order, &snap.OrderSeed,
		&snap.PickCount, &bid, &budgets, &snap.NominationIndex, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("load snapshot for draft %s: %w", draftID, err)
	}

	if err := json.Unmarshal(order, &snap.Order); err != nil {
		return session.Snapshot{}, fmt.Errorf("unmarshal order: %w", err)
	}
	if len(bid) > 0 {
		snap.Bid = &models.BidState{}
		if err := json.Unmarshal(bid, snap.Bid); err != nil {
			return session.Snapshot{}, fmt.Errorf("unmarshal bid: %w", err)
		}
	}
	if len(budgets) > 0 {
		if err := json.Unmarshal(budgets, &snap.Budgets); err != nil {
			return session.Snapshot{}, fmt.Errorf("unmarshal budgets: %w", err)
		}
	}
	return snap, nil
}

// LoadPicks returns the draft's committed picks in overall order.
func (s *Store) LoadPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	const q = `
		SELECT id, draft_id, round, pick, overall_pick, team_id, player_id, picked_at, amount, auto_pick
		FROM draft_picks
		WHERE draft_id = $1
		ORDER BY overall_pick`

	rows, err := s.pool.Query(ctx, q, draftID)
	if err != nil {
		return nil, fmt.Errorf("load picks for draft %s: %w", draftID, err)
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var p models.DraftPick
		if err := rows.Scan(&p.ID, &p.DraftID, &p.Round, &p.Pick, &p.OverallPick,
			&p.TeamID, &p.PlayerID, &p.PickedAt, &p.Amount, &p.AutoPick); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate picks: %w", err)
	}
	return picks, nil
}

// LoadDraft fetches the draft row with its settings blob.
func (s *Store) LoadDraft(ctx context.Context, draftID uuid.UUID) (models.Draft, error) {
	const q = `
		SELECT id, league_id, draft_type, status, settings,
		       scheduled_at, started_at, completed_at, created_at, updated_at
		FROM drafts
		WHERE id = $1`

	var (
		d        models.Draft
		settings []byte
	)
	err := s.pool.QueryRow(ctx, q, draftID).Scan(
		&d.ID, &d.LeagueID, &d.DraftType, &d.Status, &settings,
		&d.ScheduledAt, &d.StartedAt, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Draft{}, ErrNotFound
	}
	if err != nil {
		return models.Draft{}, fmt.Errorf("load draft %s: %w", draftID, err)
	}
	if err := json.Unmarshal(settings, &d.Settings); err != nil {
		return models.Draft{}, fmt.Errorf("unmarshal settings for draft %s: %w", draftID, err)
	}
	return d, nil
}

// LoadTeams returns the league's teams.
func (s *Store) LoadTeams(ctx context.Context, leagueID uuid.UUID) ([]models.Team, error) {
	const q = `
		SELECT id, league_id, owner_id, name, roster_slots
		FROM teams
		WHERE league_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, q, leagueID)
	if err != nil {
		return nil, fmt.Errorf("load teams for league %s: %w", leagueID, err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.OwnerID, &t.Name, &t.RosterSlots); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}
