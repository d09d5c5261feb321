package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/SnakeWeb/server/internal/engine"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

// HubOptions sizes the hub.
type HubOptions struct {
	SendBuffer           int
	MaxClientsPerGame    int
	MaxMessagesPerSecond int
	AllowedOrigins       []string
}

// Hub maintains one room of WebSocket clients per game and forwards every
// event of the game to its room.
type Hub struct {
	engine  *engine.Engine
	logger  *logger.Logger
	metrics *metrics.Collector
	opts    HubOptions

	upgrader websocket.Upgrader

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	lastProcessedSeq uint64
}

// NewHub initializes a new WebSocket Hub.
func NewHub(eng *engine.Engine, log *logger.Logger, m *metrics.Collector, opts HubOptions) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.MaxMessagesPerSecond <= 0 {
		opts.MaxMessagesPerSecond = 20
	}
	h := &Hub{
		engine:     eng,
		logger:     log,
		metrics:    m,
		opts:       opts,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(opts.AllowedOrigins) > 0 {
		h.upgrader.CheckOrigin = h.checkOrigin
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Run starts the Hub's main loop: client registration and event fan-out.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	el := h.engine.GetEventLog()
	h.lastProcessedSeq = el.LastSeq()

	for {
		changed := el.Changed()
		batch := el.Since(h.lastProcessedSeq)
		if missed := events.Missed(h.lastProcessedSeq, batch); missed > 0 {
			h.metrics.RecordEventsMissed(missed)
			h.logger.Warn(fmt.Sprintf("Hub fell behind: %d events trimmed before seq %d", missed, batch[0].Seq))
		}
		for _, e := range batch {
			h.lastProcessedSeq = e.Seq
			h.BroadcastEvent(e)
			if e.Type == events.EventTypeGameRemoved {
				h.closeRoom(e.GameID)
			}
		}

		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("WebSocket Hub shutting down.")
			return nil
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case <-changed:
		}
	}
}

// BroadcastEvent serializes a GameEvent and sends it to the game's room.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	msg, err := encode(MsgTypeEvent, event.GameID, event)
	if err != nil {
		h.logger.Errorf("Failed to serialize GameEvent for WebSocket broadcast: %v", err)
		return
	}
	h.BroadcastToGame(event.GameID, msg)
}

// BroadcastToGame sends a raw message to every client of a game. Clients
// whose buffer is full are dropped.
func (h *Hub) BroadcastToGame(gameID string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[gameID] {
		select {
		case client.send <- msg:
			h.metrics.RecordWSMessage(false)
		default:
			h.logger.Warn("Dropping slow WebSocket client of game " + gameID)
			h.metrics.RecordWSError()
			h.dropLocked(client)
		}
	}
}

// ConnectedClients returns how many clients watch a game.
func (h *Hub) ConnectedClients(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.gameID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[c.gameID] = room
	}
	room[c] = true
	h.mu.Unlock()

	h.metrics.RecordWSConnection(1)
	h.logger.Info("New WebSocket client connected to game " + c.gameID)

	// First frame: the full board.
	if s, err := h.engine.Game(c.gameID); err == nil {
		c.sendState(s.Snapshot())
	}
}

// sendTo queues msg for one client. It reports false when the client is
// gone or its buffer is full.
func (h *Hub) sendTo(c *Client, msg []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.rooms[c.gameID][c] {
		return false
	}
	select {
	case c.send <- msg:
		h.metrics.RecordWSMessage(false)
		return true
	default:
		return false
	}
}

// join hands a client to the Run loop. It fails once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave hands a client back to the Run loop for removal.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.gameID][c] {
		h.dropLocked(c)
		h.logger.Info("WebSocket client disconnected from game " + c.gameID)
	}
}

func (h *Hub) dropLocked(c *Client) {
	room := h.rooms[c.gameID]
	if !room[c] {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.gameID)
	}
	close(c.send)
	h.metrics.RecordWSConnection(-1)
}

// closeRoom disconnects everyone watching a removed game.
func (h *Hub) closeRoom(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[gameID] {
		h.dropLocked(c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for c := range room {
			h.dropLocked(c)
		}
	}
}

var errRoomFull = errors.New("too many clients for this game")

// HandleWS upgrades GET /ws?game_id=... to a WebSocket bound to one game.
func (h *Hub) HandleWS(c *gin.Context) {
	gameID := c.Query("game_id")
	if gameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing game_id"})
		return
	}
	if _, err := h.engine.Game(gameID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if h.opts.MaxClientsPerGame > 0 && h.ConnectedClients(gameID) >= h.opts.MaxClientsPerGame {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errRoomFull.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already wrote the HTTP error.
		h.metrics.RecordWSError()
		h.logger.Warn("WebSocket upgrade failed: " + err.Error())
		return
	}

	client := NewClient(h, conn, gameID)
	if !h.join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
