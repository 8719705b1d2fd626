// Seeds a local development league: one league, its teams, and a scheduled
// draft ready for clients to join.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/dbconfig"
	"github.com/mcdev12/draftroom/go/internal/models"
)

func main() {
	teamCount := flag.Int("teams", 10, "number of teams")
	rounds := flag.Int("rounds", 15, "snake rounds")
	perPick := flag.Int("clock", 60, "seconds per pick")
	auction := flag.Bool("auction", false, "seed an auction draft instead of snake")
	budget := flag.Int("budget", 200, "auction budget per team")
	slots := flag.Int("slots", 16, "auction roster slots per team")
	startIn := flag.Duration("start-in", 5*time.Minute, "scheduled start offset")
	flag.Parse()

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

	leagueID := uuid.New()
	if _, err := pool.Exec(ctx,
		`INSERT INTO leagues (id, name, created_at) VALUES ($1, $2, NOW())`,
		leagueID, "dev league"); err != nil {
		log.Fatal().Err(err).Msg("failed to insert league")
	}

	for i := 0; i < *teamCount; i++ {
		if _, err := pool.Exec(ctx,
			`INSERT INTO teams (id, league_id, owner_id, name, roster_slots, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			uuid.New(), leagueID, uuid.New(), teamName(i), *slots); err != nil {
			log.Fatal().Err(err).Msg("failed to insert team")
		}
	}

	draftType := models.DraftTypeSnake
	settings := models.DraftSettings{
		Rounds:         *rounds,
		TimePerPickSec: *perPick,
	}
	if *auction {
		draftType = models.DraftTypeAuction
		settings = models.DraftSettings{
			TimePerPickSec: *perPick,
			BidWindowSec:   10,
			BudgetPerTeam:  *budget,
			RosterSlots:    *slots,
		}
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal settings")
	}

	draftID := uuid.New()
	scheduledAt := time.Now().Add(*startIn)
	if _, err := pool.Exec(ctx,
		`INSERT INTO drafts (id, league_id, draft_type, status, settings, scheduled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		draftID, leagueID, draftType, models.DraftStatusScheduled, settingsJSON, scheduledAt); err != nil {
		log.Fatal().Err(err).Msg("failed to insert draft")
	}

	log.Info().
		Str("league_id", leagueID.String()).
		Str("draft_id", draftID.String()).
		Str("draft_type", string(draftType)).
		Time("scheduled_at", scheduledAt).
		Msg("league seeded")
}

func teamName(i int) string {
	names := []string{
		"Gridiron Goats", "End Zone Elite", "Blitz Brigade", "Red Zone Raiders",
		"Fourth Down Phantoms", "Pocket Passers", "Hail Mary Heroes", "Turf Titans",
		"Snap Count Syndicate", "Two Minute Drill", "Waiver Wire Wizards", "Flex Appeal",
	}
	if i < len(names) {
		return names[i]
	}
	return names[i%len(names)] + " II"
}
