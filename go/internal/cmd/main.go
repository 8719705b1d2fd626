package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/dbconfig"
	"github.com/mcdev12/draftroom/go/internal/draft/broadcast"
	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
	"github.com/mcdev12/draftroom/go/internal/draft/mirror"
	"github.com/mcdev12/draftroom/go/internal/draft/registry"
	"github.com/mcdev12/draftroom/go/internal/draft/session"
	"github.com/mcdev12/draftroom/go/internal/draft/store"
	"github.com/mcdev12/draftroom/go/internal/playerpool"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbconfig.NewConfigFromEnv().Connect(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	st := store.New(pool, log)
	writer := store.NewAsyncWriter(st, cfg.Store.WriteBuffer, log)
	defer writer.Close()

	players := playerpool.NewPG(pool)

	var leagueMirror broadcast.Mirror
	if cfg.NATS.Enabled {
		mcfg := mirror.DefaultJetStreamConfig()
		mcfg.URL = cfg.NATS.URL
		mcfg.StreamName = cfg.NATS.StreamName
		mcfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		m, err := mirror.NewJetStreamMirror(mcfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect league mirror")
		}
		defer func() { _ = m.Close() }()
		leagueMirror = m
	}

	reg := registry.New(sessionFactory(st, writer, players, leagueMirror, log), log)

	gwCfg := gateway.DefaultConfig()
	gwCfg.ReadTimeout = cfg.gatewayTimeout(cfg.Gateway.ReadTimeoutSec, gwCfg.ReadTimeout)
	gwCfg.WriteTimeout = cfg.gatewayTimeout(cfg.Gateway.WriteTimeoutSec, gwCfg.WriteTimeout)
	gwCfg.PingInterval = cfg.gatewayTimeout(cfg.Gateway.PingIntervalSec, gwCfg.PingInterval)
	if cfg.Gateway.SendBuffer > 0 {
		gwCfg.SendBuffer = cfg.Gateway.SendBuffer
	}
	gw := gateway.New(reg, gwCfg, log)

	server := setupServer(cfg, gw, log)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("draft room listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := reg.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("registry shutdown failed")
	}
}

// sessionFactory builds the per-draft load path: draft row, league teams,
// and (for a restart) the snapshot plus committed pick log.
func sessionFactory(
	st *store.Store,
	writer *store.AsyncWriter,
	players playerpool.Gateway,
	leagueMirror broadcast.Mirror,
	log zerolog.Logger,
) registry.Factory {
	return func(ctx context.Context, draftID uuid.UUID, evict func(uuid.UUID)) (*session.Session, error) {
		draft, err := st.LoadDraft(ctx, draftID)
		if err != nil {
			return nil, err
		}
		teams, err := st.LoadTeams(ctx, draft.LeagueID)
		if err != nil {
			return nil, err
		}

		cfg := session.Config{
			Draft:     draft,
			Teams:     teams,
			Pool:      players,
			Roster:    writer,
			Snapshots: writer,
			Bus:       broadcast.NewChannel(leagueMirror, log),
			Clock:     clockwork.NewRealClock(),
			Logger:    log,
			OnEmpty:   evict,
		}

		snap, err := st.LoadSnapshot(ctx, draftID)
		if errors.Is(err, store.ErrNotFound) {
			return session.New(cfg)
		}
		if err != nil {
			return nil, err
		}
		picks, err := st.LoadPicks(ctx, draftID)
		if err != nil {
			return nil, err
		}
		return session.Resume(cfg, snap, picks)
	}
}
