package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/session"
)

// conn is one client socket bound to a (draft, team) pair.
type conn struct {
	id      string
	userID  string
	teamID  uuid.UUID
	draftID uuid.UUID

	ws   *websocket.Conn
	send chan []byte
	sess *session.Session
	gw   *Gateway
	log  zerolog.Logger
}

// writePump owns all writes to the socket: outbound events from the send
// channel plus keepalive pings.
func (c *conn) writePump() {
	ticker := time.NewTicker(c.gw.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.gw.config.WriteTimeout))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Error().Err(err).Msg("failed to write to socket")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.gw.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Error().Err(err).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump owns all reads: client commands are parsed, routed to the session
// and rejections are returned as error events on this connection only.
func (c *conn) readPump() {
	defer func() {
		c.gw.dropConn(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(c.gw.config.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.gw.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.gw.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error().Err(err).Msg("unexpected socket close")
			}
			return
		}
		c.handleCommand(message)
		c.ws.SetReadDeadline(time.Now().Add(c.gw.config.ReadTimeout))
	}
}

func (c *conn) handleCommand(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), c.gw.config.CommandTimeout)
	defer cancel()

	cmd, err := parseCommand(data)
	if err != nil {
		c.sendError(err)
		return
	}

	switch cmd.Type {
	case CmdPick:
		err = c.sess.SubmitPick(ctx, c.teamID, cmd.PlayerID)
	case CmdBid:
		err = c.sess.SubmitBid(ctx, c.teamID, cmd.Amount)
	case CmdNominate:
		err = c.sess.Nominate(ctx, c.teamID, cmd.PlayerID, cmd.OpeningBid)
	case CmdSetQueue:
		err = c.sess.SetQueue(ctx, c.teamID, cmd.Players)
	case CmdChat:
		err = c.sess.Chat(ctx, c.teamID, cmd.Text)
	case CmdPause:
		err = c.sess.Pause(ctx, cmd.Reason)
	case CmdResume:
		err = c.sess.ResumeDraft(ctx)
	default:
		c.log.Debug().Str("command", cmd.Type).Msg("unknown client command")
		c.sendError(errUnknownCommand(cmd.Type))
		return
	}
	if err != nil {
		c.sendError(err)
	}
}

// sendError delivers a rejection to this connection only; the room never
// sees another client's failed commands.
func (c *conn) sendError(err error) {
	ev, buildErr := events.New(c.draftID, uuid.Nil, events.TypeError, time.Now(), events.ErrorPayload{
		Code:    session.CodeOf(err),
		Message: err.Error(),
	})
	if buildErr != nil {
		c.log.Error().Err(buildErr).Msg("failed to build error event")
		return
	}
	c.deliver(ev)
}

// deliver enqueues an event for the socket, dropping the connection if its
// buffer is full rather than stalling the pump.
func (c *conn) deliver(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn().Msg("send buffer full, closing connection")
		c.ws.Close()
	}
}

// eventPump forwards the session's ordered stream to the socket. The stream
// closing means the subscriber was dropped or the session ended.
func (c *conn) eventPump(stream <-chan events.Event) {
	for ev := range stream {
		c.deliver(ev)
	}
	c.ws.Close()
}
