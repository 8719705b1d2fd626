package playerpool

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// PG serves the pool from the players table. The session caches nothing from
// it across turns, so rank updates from the stats feed show up on the next
// autopick.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG builds a Postgres-backed Gateway.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// ListAvailable implements Gateway.
func (g *PG) ListAvailable(ctx context.Context) ([]models.Player, error) {
	const q = `
		SELECT id, full_name, position, rank, adp
		FROM players
		WHERE draftable
		ORDER BY rank, adp, id`

	rows, err := g.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list available players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.FullName, &p.Position, &p.Rank, &p.ADP); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// Get implements Gateway.
func (g *PG) Get(ctx context.Context, id uuid.UUID) (models.Player, error) {
	const q = `
		SELECT id, full_name, position, rank, adp
		FROM players
		WHERE id = $1 AND draftable`

	var p models.Player
	err := g.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.FullName, &p.Position, &p.Rank, &p.ADP)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Player{}, ErrNotFound
	}
	if err != nil {
		return models.Player{}, fmt.Errorf("get player %s: %w", id, err)
	}
	return p, nil
}
