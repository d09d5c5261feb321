package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
	"github.com/MRamiBalles/SnakeWeb/server/internal/engine"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var errRateLimited = errors.New("rate limit exceeded")

// Client is one browser tab watching and steering a single game.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string

	windowStart time.Time
	windowCount int
}

// NewClient creates a new WebSocket client bound to gameID.
func NewClient(hub *Hub, conn *websocket.Conn, gameID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.opts.SendBuffer),
		gameID: gameID,
	}
}

// ReadPump pumps commands from the websocket connection to the game.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read error: " + err.Error())
				c.hub.metrics.RecordWSError()
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		if !c.allow(time.Now()) {
			c.hub.metrics.RecordWSRateLimited()
			c.sendError(errRateLimited)
			continue
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("Failed to parse Command from WebSocket. err: " + err.Error())
			c.sendError(fmt.Errorf("malformed command: %w", err))
			continue
		}

		if err := c.handleCommand(cmd); err != nil {
			c.sendError(err)
		}
	}
}

// allow applies a fixed one-second window of MaxMessagesPerSecond commands.
func (c *Client) allow(now time.Time) bool {
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	c.windowCount++
	return c.windowCount <= c.hub.opts.MaxMessagesPerSecond
}

func (c *Client) handleCommand(cmd Command) error {
	s, err := c.hub.engine.Game(c.gameID)
	if err != nil {
		return err
	}

	switch cmd.Type {
	case CmdStart:
		return s.Start(events.ActorPlayer)
	case CmdPause:
		return s.Pause(events.ActorPlayer)
	case CmdStop:
		return s.Stop(events.ActorPlayer)
	case CmdDirection:
		d, err := snake.ParseDirection(cmd.Direction)
		if err != nil {
			return fmt.Errorf("%w: %v", engine.ErrInvalidDirection, err)
		}
		return c.steer(s, d)
	case CmdKey:
		d, ok := snake.DirectionFromKeyCode(cmd.KeyCode)
		if !ok {
			// Keys other than the arrows are ignored.
			return nil
		}
		return c.steer(s, d)
	case CmdAutopilot:
		enabled := !s.Autopilot()
		if cmd.Enabled != nil {
			enabled = *cmd.Enabled
		}
		s.SetAutopilot(enabled, events.ActorPlayer)
		return nil
	case CmdState:
		c.sendState(s.Snapshot())
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

// steer applies a player turn. Players take the wheel back from the autopilot.
func (c *Client) steer(s *engine.Session, d snake.Direction) error {
	if s.Autopilot() {
		s.SetAutopilot(false, events.ActorPlayer)
	}
	_, err := s.ChangeDirection(d, events.ActorPlayer)
	return err
}

func (c *Client) sendState(snap game.Snapshot) {
	msg, err := encode(MsgTypeState, c.gameID, snap)
	if err != nil {
		c.hub.logger.Errorf("Failed to serialize state: %v", err)
		return
	}
	c.hub.sendTo(c, msg)
}

func (c *Client) sendError(err error) {
	msg, encErr := encode(MsgTypeError, c.gameID, map[string]string{"error": err.Error()})
	if encErr != nil {
		return
	}
	c.hub.sendTo(c, msg)
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame; the browser parses each frame.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.metrics.RecordWSError()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
