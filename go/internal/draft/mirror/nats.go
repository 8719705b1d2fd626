// Package mirror forwards session events to the draft's parent league room
// over NATS JetStream, so league-wide consumers (chat, trade side-channel,
// activity feeds) observe the draft without holding a socket into it.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
)

// JetStreamConfig configures the league event stream.
type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	MaxMsgs         int64
	Replicas        int
	DuplicateWindow time.Duration
	Buffer          int // pending events before the mirror starts dropping
}

// DefaultJetStreamConfig returns the local-development defaults.
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "LEAGUE_EVENTS",
		SubjectPrefix:   "league.events",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgs:         -1,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
		Buffer:          1024,
	}
}

// JetStreamMirror implements broadcast.Mirror on a JetStream stream. Mirror
// never blocks the session's publish path: events are handed to a worker
// goroutine and dropped (with a warning) if the worker falls behind.
type JetStreamMirror struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
	queue  chan events.Event
	done   chan struct{}
	log    zerolog.Logger
}

// NewJetStreamMirror connects to NATS, ensures the league stream exists and
// starts the publish worker.
func NewJetStreamMirror(cfg JetStreamConfig, log zerolog.Logger) (*JetStreamMirror, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	m := &JetStreamMirror{
		nc:     nc,
		js:     js,
		config: cfg,
		queue:  make(chan events.Event, cfg.Buffer),
		done:   make(chan struct{}),
		log:    log,
	}

	if err := m.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	go m.worker()
	return m, nil
}

func (m *JetStreamMirror) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        m.config.StreamName,
		Description: "League room mirror of draft session events",
		Subjects:    []string{fmt.Sprintf("%s.>", m.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      m.config.MaxAge,
		MaxMsgs:     m.config.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Replicas:    m.config.Replicas,
		Duplicates:  m.config.DuplicateWindow,
	}

	stream, err := m.js.Stream(ctx, m.config.StreamName)
	if err != nil {
		if _, err = m.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		m.log.Info().Str("stream", m.config.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !streamConfigEqual(info.Config, sc) {
		if _, err = m.js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		m.log.Info().Str("stream", m.config.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// Mirror implements broadcast.Mirror.
func (m *JetStreamMirror) Mirror(ev events.Event) {
	select {
	case m.queue <- ev:
	case <-m.done:
	default:
		m.log.Warn().
			Str("event_id", ev.ID).
			Str("event_type", string(ev.Type)).
			Msg("mirror queue full, dropping event")
	}
}

func (m *JetStreamMirror) worker() {
	for {
		select {
		case <-m.done:
			return
		case ev := <-m.queue:
			if err := m.publish(ev); err != nil {
				m.log.Error().Err(err).
					Str("event_id", ev.ID).
					Str("event_type", string(ev.Type)).
					Msg("failed to mirror event")
			}
		}
	}
}

func (m *JetStreamMirror) publish(ev events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	subject := fmt.Sprintf("%s.%s.%s", m.config.SubjectPrefix, ev.LeagueID, ev.Type)
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ack, err := m.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(ev.Type)},
			"Draft-ID":   []string{ev.DraftID},
			"Event-ID":   []string{ev.ID},
		},
	},
		jetstream.WithMsgID(ev.ID),
		jetstream.WithExpectStream(m.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	m.log.Debug().
		Str("subject", subject).
		Str("event_id", ev.ID).
		Uint64("sequence", ack.Sequence).
		Msg("mirrored to league room")
	return nil
}

// Close stops the worker and drops the NATS connection. Queued events that
// have not been published yet are discarded.
func (m *JetStreamMirror) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	if m.nc != nil {
		m.nc.Close()
	}
	return nil
}

func streamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.MaxMsgs == b.MaxMsgs &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}
