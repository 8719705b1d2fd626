// Seeds the players table from the rankings feed, or from a local JSON file
// when RANKINGS_API_KEY is unset.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/clients/rankings"
	"github.com/mcdev12/draftroom/go/internal/dbconfig"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	ctx := context.Background()
	pool, err := dbconfig.NewConfigFromEnv().Connect(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	players, err := loadRankings(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load rankings")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO players (id, external_id, full_name, position, rank, adp, draftable)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			position = EXCLUDED.position,
			rank = EXCLUDED.rank,
			adp = EXCLUDED.adp,
			draftable = EXCLUDED.draftable`

	batch := &pgx.Batch{}
	for _, p := range players {
		batch.Queue(q, uuid.New(), p.ExternalID, p.FullName, p.Position, p.Rank, p.ADP, p.Draftable)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		log.Fatal().Err(err).Msg("failed to upsert players")
	}
	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to commit")
	}

	log.Info().Int("players", len(players)).Msg("players seeded")
}

func loadRankings(ctx context.Context, log zerolog.Logger) ([]rankings.PlayerRanking, error) {
	if apiKey := os.Getenv("RANKINGS_API_KEY"); apiKey != "" {
		client := rankings.NewClient(apiKey, os.Getenv("RANKINGS_API_URL"))
		sport := os.Getenv("RANKINGS_SPORT")
		if sport == "" {
			sport = "nfl"
		}
		return client.GetRankings(ctx, sport)
	}

	path := os.Getenv("RANKINGS_FILE")
	if path == "" {
		path = "go/internal/assets/rankings.json"
	}
	log.Info().Str("path", path).Msg("no API key set, seeding from file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var players []rankings.PlayerRanking
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, err
	}
	return players, nil
}
