package network

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
	"github.com/MRamiBalles/SnakeWeb/server/internal/engine"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/infra/cache"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/config"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

const (
	maxBoardSize      = 100
	minMoveInterval   = 10 * time.Millisecond
	maxMoveInterval   = 10 * time.Second
	maxLeaderboardTop = 100
)

// API serves the REST surface of the game server.
type API struct {
	engine      *engine.Engine
	hub         *Hub
	leaderboard *cache.Leaderboard
	replay      *ReplayHandler
	metrics     *metrics.Collector
	logger      *logger.Logger
	config      *config.Config

	defaultTop int
}

// NewAPI wires the REST handlers. leaderboard and replay may be nil.
func NewAPI(eng *engine.Engine, hub *Hub, lb *cache.Leaderboard, replay *ReplayHandler, m *metrics.Collector, log *logger.Logger) *API {
	return &API{
		engine:      eng,
		hub:         hub,
		leaderboard: lb,
		replay:      replay,
		metrics:     m,
		logger:      log,
		defaultTop:  10,
	}
}

// SetLeaderboardSize sets how many scores GET /api/scores returns by default.
func (a *API) SetLeaderboardSize(n int) {
	if n > 0 {
		a.defaultTop = n
	}
}

// SetConfig gives the tuning endpoint the running configuration, so it can
// suggest adjusted values.
func (a *API) SetConfig(cfg *config.Config) {
	a.config = cfg
}

// CreateGameRequest is the optional body of POST /api/games.
type CreateGameRequest struct {
	BoardSize  int    `json:"board_size"`
	IntervalMs int    `json:"interval_ms"`
	Seed       uint64 `json:"seed"`
	Autopilot  bool   `json:"autopilot"`
	Start      bool   `json:"start"`
}

// DirectionRequest is the body of POST /api/games/:id/direction.
// Either a direction name or an arrow-key code.
type DirectionRequest struct {
	Direction string `json:"direction"`
	KeyCode   int    `json:"key_code"`
}

// AutopilotRequest is the body of POST /api/games/:id/autopilot.
type AutopilotRequest struct {
	Enabled bool `json:"enabled"`
}

// GameResponse pairs the listing view of a game with its board.
type GameResponse struct {
	Game    engine.Summary `json:"game"`
	State   game.Snapshot  `json:"state"`
	Clients int            `json:"clients"`
}

// RegisterRoutes mounts every REST and WebSocket route on r.
func (a *API) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", a.handleHealth)
	r.GET("/metrics", gin.WrapF(a.metrics.Handler()))
	r.GET("/metrics/prometheus", gin.WrapF(a.metrics.PrometheusHandler()))
	r.GET("/metrics/tuning", a.handleTuning)

	if a.hub != nil {
		r.GET("/ws", a.hub.HandleWS)
	}

	api := r.Group("/api")
	api.POST("/games", a.handleCreate)
	api.GET("/games", a.handleList)
	api.GET("/games/:id", a.handleGet)
	api.DELETE("/games/:id", a.handleRemove)
	api.GET("/games/:id/board", a.handleBoard)
	api.POST("/games/:id/start", a.handleStart)
	api.POST("/games/:id/pause", a.handlePause)
	api.POST("/games/:id/stop", a.handleStop)
	api.POST("/games/:id/step", a.handleStep)
	api.POST("/games/:id/direction", a.handleDirection)
	api.POST("/games/:id/autopilot", a.handleAutopilot)
	api.GET("/scores", a.handleScores)

	if a.replay != nil {
		api.GET("/games/:id/events", a.replay.HandleReplay)
		api.GET("/games/:id/summary", a.replay.HandleSummary)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"games":  len(a.engine.Games()),
	}
	if a.leaderboard != nil {
		hits, misses := a.leaderboard.Stats()
		body["leaderboard_cache"] = gin.H{"hits": hits, "misses": misses}
	}
	c.JSON(http.StatusOK, body)
}

func (a *API) handleTuning(c *gin.Context) {
	rec := config.Analyze(a.metrics.Snapshot())
	body := gin.H{
		"needs_tuning":             rec.Any(),
		"increase_event_retention": rec.IncreaseEventRetention,
		"increase_send_buffer":     rec.IncreaseSendBuffer,
		"increase_db_connections":  rec.IncreaseDBConnections,
		"raise_rate_limit":         rec.RaiseRateLimit,
		"notes":                    rec.Notes,
	}
	if a.config != nil && rec.Any() {
		tuned := config.ApplyRecommendations(a.config, rec)
		body["suggested"] = gin.H{
			"event_retention":         tuned.EventRetention,
			"client_send_buffer":      tuned.ClientSendBuffer,
			"db_max_open_conns":       tuned.DBMaxOpenConns,
			"db_max_idle_conns":       tuned.DBMaxIdleConns,
			"max_messages_per_second": tuned.MaxMessagesPerSecond,
		}
	}
	c.JSON(http.StatusOK, body)
}

func (a *API) handleCreate(c *gin.Context) {
	var req CreateGameRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			a.badRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}
	if req.BoardSize != 0 && (req.BoardSize < 4 || req.BoardSize > maxBoardSize) {
		a.badRequest(c, "board_size must be between 4 and "+strconv.Itoa(maxBoardSize))
		return
	}
	interval := time.Duration(req.IntervalMs) * time.Millisecond
	if req.IntervalMs != 0 && (interval < minMoveInterval || interval > maxMoveInterval) {
		a.badRequest(c, "interval_ms out of range")
		return
	}

	s, err := a.engine.CreateGame(engine.GameOptions{
		BoardSize:    req.BoardSize,
		MoveInterval: interval,
		Seed:         req.Seed,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	if req.Autopilot {
		s.SetAutopilot(true, events.ActorPlayer)
	}
	if req.Start {
		if err := s.Start(events.ActorPlayer); err != nil {
			a.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, a.gameResponse(s))
}

func (a *API) handleList(c *gin.Context) {
	sessions := a.engine.Games()
	out := make([]engine.Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	c.JSON(http.StatusOK, gin.H{"games": out, "total": len(out)})
}

func (a *API) handleGet(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.gameResponse(s))
}

func (a *API) handleBoard(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, s.Render())
}

func (a *API) handleRemove(c *gin.Context) {
	if err := a.engine.RemoveGame(c.Param("id"), events.ActorPlayer); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleStart(c *gin.Context) {
	a.command(c, func(s *engine.Session) error { return s.Start(events.ActorPlayer) })
}

func (a *API) handlePause(c *gin.Context) {
	a.command(c, func(s *engine.Session) error { return s.Pause(events.ActorPlayer) })
}

func (a *API) handleStop(c *gin.Context) {
	a.command(c, func(s *engine.Session) error { return s.Stop(events.ActorPlayer) })
}

// handleStep advances a game by one move without waiting for its ticker.
func (a *API) handleStep(c *gin.Context) {
	a.command(c, func(s *engine.Session) error {
		_, err := s.Step()
		return err
	})
}

func (a *API) handleDirection(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req DirectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var d snake.Direction
	switch {
	case req.Direction != "":
		parsed, err := snake.ParseDirection(req.Direction)
		if err != nil {
			a.badRequest(c, err.Error())
			return
		}
		d = parsed
	case req.KeyCode != 0:
		parsed, ok := snake.DirectionFromKeyCode(req.KeyCode)
		if !ok {
			// Not an arrow key: nothing to do.
			c.JSON(http.StatusOK, gin.H{"accepted": false, "state": s.Snapshot()})
			return
		}
		d = parsed
	default:
		a.badRequest(c, "direction or key_code is required")
		return
	}

	if s.Autopilot() {
		s.SetAutopilot(false, events.ActorPlayer)
	}
	accepted, err := s.ChangeDirection(d, events.ActorPlayer)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted, "state": s.Snapshot()})
}

func (a *API) handleAutopilot(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req AutopilotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	s.SetAutopilot(req.Enabled, events.ActorPlayer)
	c.JSON(http.StatusOK, a.gameResponse(s))
}

func (a *API) handleScores(c *gin.Context) {
	if a.leaderboard == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard disabled"})
		return
	}
	limit := a.defaultTop
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardTop {
			a.badRequest(c, "limit must be between 1 and "+strconv.Itoa(maxLeaderboardTop))
			return
		}
		limit = n
	}

	scores, err := a.leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		a.logger.Error("Failed to load leaderboard: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scores"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": scores, "limit": limit})
}

// command runs fn against the game named in the path and answers with its
// new state.
func (a *API) command(c *gin.Context, fn func(*engine.Session) error) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	if err := fn(s); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a.gameResponse(s))
}

func (a *API) session(c *gin.Context) (*engine.Session, bool) {
	s, err := a.engine.Game(c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return nil, false
	}
	return s, true
}

func (a *API) gameResponse(s *engine.Session) GameResponse {
	resp := GameResponse{Game: s.Summary(), State: s.Snapshot()}
	if a.hub != nil {
		resp.Clients = a.hub.ConnectedClients(s.ID())
	}
	return resp
}

func (a *API) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// fail maps domain errors to HTTP status codes.
func (a *API) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotRunning), errors.Is(err, game.ErrAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrTooManyGames):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
