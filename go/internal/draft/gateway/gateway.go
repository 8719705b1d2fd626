// Package gateway terminates client WebSocket connections and bridges them
// to draft sessions: inbound JSON commands become session calls, the
// session's ordered event stream becomes outbound frames.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/draft/registry"
)

// Config holds socket tuning knobs.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	CommandTimeout  time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns the development defaults. Production wiring must
// replace CheckOrigin.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		CommandTimeout:  5 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

// Gateway upgrades HTTP requests and tracks live connections per draft and
// team, so presence transitions fire only when a team's last socket drops.
type Gateway struct {
	registry *registry.Registry
	upgrader websocket.Upgrader
	config   Config
	log      zerolog.Logger

	mu        sync.Mutex
	teamConns map[uuid.UUID]map[uuid.UUID]int // draft -> team -> socket count
}

// New builds a Gateway over the session registry.
func New(reg *registry.Registry, config Config, log zerolog.Logger) *Gateway {
	return &Gateway{
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:    config,
		log:       log,
		teamConns: make(map[uuid.UUID]map[uuid.UUID]int),
	}
}

// HandleWS serves GET /ws?draft_id=&team_id=&user_id=. The connection joins
// the draft before the first event frame is written, so every client
// observes its own join.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.URL.Query().Get("draft_id"))
	if err != nil {
		http.Error(w, "invalid draft_id", http.StatusBadRequest)
		return
	}
	teamID, err := uuid.Parse(r.URL.Query().Get("team_id"))
	if err != nil {
		http.Error(w, "invalid team_id", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	sess, err := g.registry.GetOrCreate(r.Context(), draftID)
	if err != nil {
		g.log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to load draft session")
		http.Error(w, "draft not found", http.StatusNotFound)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &conn{
		id:      uuid.New().String(),
		userID:  userID,
		teamID:  teamID,
		draftID: draftID,
		ws:      ws,
		send:    make(chan []byte, g.config.SendBuffer),
		sess:    sess,
		gw:      g,
	}
	c.log = g.log.With().
		Str("connection_id", c.id).
		Str("draft_id", draftID.String()).
		Str("team_id", teamID.String()).
		Logger()

	// subscribe before joining so the join's own events reach this socket
	stream := sess.Bus().Subscribe(c.id, g.config.SendBuffer)
	go c.writePump()
	go c.eventPump(stream)

	if err := sess.Join(r.Context(), userID, teamID); err != nil {
		c.sendError(err)
		sess.Bus().Unsubscribe(c.id)
		ws.Close()
		return
	}
	g.addConn(c)

	go c.readPump()
	c.log.Info().Str("user_id", userID).Msg("websocket connection established")
}

func (g *Gateway) addConn(c *conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.teamConns[c.draftID] == nil {
		g.teamConns[c.draftID] = make(map[uuid.UUID]int)
	}
	g.teamConns[c.draftID][c.teamID]++
}

// dropConn unregisters the socket; when it was the team's last, the session
// is told so the presence tracker flips the team to autopick.
func (g *Gateway) dropConn(c *conn) {
	g.mu.Lock()
	last := false
	if teams, ok := g.teamConns[c.draftID]; ok {
		teams[c.teamID]--
		if teams[c.teamID] <= 0 {
			delete(teams, c.teamID)
			last = true
		}
		if len(teams) == 0 {
			delete(g.teamConns, c.draftID)
		}
	}
	g.mu.Unlock()

	c.sess.Bus().Unsubscribe(c.id)
	if last {
		c.sess.Disconnect(c.teamID)
	}
	c.log.Info().Bool("team_offline", last).Msg("websocket connection closed")
}

// Stats summarizes live connections for the health endpoint.
func (g *Gateway) Stats() map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := 0
	perDraft := make(map[string]int, len(g.teamConns))
	for draftID, teams := range g.teamConns {
		n := 0
		for _, c := range teams {
			n += c
		}
		total += n
		perDraft[draftID.String()] = n
	}
	return map[string]any{
		"total_connections": total,
		"active_drafts":     len(g.teamConns),
		"draft_connections": perDraft,
	}
}

// HandleState serves GET /drafts/{id}/state as JSON for reconnect catch-up.
func (g *Gateway) HandleState(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}
	sess, ok := g.registry.Get(draftID)
	if !ok {
		http.Error(w, "draft not live", http.StatusNotFound)
		return
	}
	view, err := sess.State(r.Context())
	if err != nil {
		http.Error(w, "draft not live", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		g.log.Error().Err(err).Msg("failed to encode state response")
	}
}

// HandleStats serves GET /stats.
func (g *Gateway) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(g.Stats()); err != nil {
		g.log.Error().Err(err).Msg("failed to encode stats response")
	}
}

func errUnknownCommand(t string) error {
	return fmt.Errorf("unknown command type %q", t)
}
