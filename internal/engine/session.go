package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

// ErrInvalidDirection is returned for direction names the snake does not know.
var ErrInvalidDirection = errors.New("invalid direction")

// Session owns one game and the ticker that moves it.
type Session struct {
	mu       sync.Mutex
	game     *game.Game
	interval time.Duration
	ticker   *Ticker
	ctx      context.Context

	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector

	// onStopped receives every GAME_STOPPED as appended.
	onStopped func(events.GameEvent)

	autopilot  bool
	createdAt  time.Time
	lastActive time.Time
}

// Summary is the listing view of a session.
type Summary struct {
	ID         string      `json:"id"`
	Status     game.Status `json:"status"`
	Score      int         `json:"score"`
	LastScore  int         `json:"last_score"`
	Tick       uint64      `json:"tick"`
	Length     int         `json:"length"`
	BoardSize  int         `json:"board_size"`
	Autopilot  bool        `json:"autopilot"`
	IntervalMs int64       `json:"interval_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

func newSession(ctx context.Context, g *game.Game, interval time.Duration, el *events.EventLog, log *logger.Logger, m *metrics.Collector) *Session {
	if interval <= 0 {
		interval = DefaultMoveInterval
	}
	now := time.Now()
	return &Session{
		game:       g,
		interval:   interval,
		ctx:        ctx,
		eventLog:   el,
		logger:     log,
		metrics:    m,
		createdAt:  now,
		lastActive: now,
	}
}

// ID returns the game identifier.
func (s *Session) ID() string {
	return s.game.ID
}

// Start begins a fresh game or resumes a paused one.
func (s *Session) Start(actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resumed, err := s.game.Start()
	if err != nil {
		return fmt.Errorf("start game %s: %w", s.game.ID, err)
	}
	s.touchLocked()
	s.launchTickerLocked()

	eventType := events.EventTypeGameStarted
	if resumed {
		eventType = events.EventTypeGameResumed
	}
	s.appendLocked(eventType, actor, events.StatusPayload{
		Status: s.game.Status(),
		Board:  s.game.Board().Size,
	})
	s.logger.Event(string(eventType), actor, "game "+s.game.ID)
	return nil
}

// Pause freezes the snake until the next Start.
func (s *Session) Pause(actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Pause(); err != nil {
		return fmt.Errorf("game %s: %w", s.game.ID, err)
	}
	s.touchLocked()
	s.stopTickerLocked()

	s.appendLocked(events.EventTypeGamePaused, actor, events.StatusPayload{
		Status: s.game.Status(),
		Board:  s.game.Board().Size,
	})
	s.logger.Event(string(events.EventTypeGamePaused), actor, "game "+s.game.ID)
	return nil
}

// Stop ends the game on behalf of actor.
func (s *Session) Stop(actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Stop(game.StopReasonPlayer); err != nil {
		return fmt.Errorf("game %s: %w", s.game.ID, err)
	}
	s.touchLocked()
	s.stopTickerLocked()
	s.appendStoppedLocked(actor)
	return nil
}

// ChangeDirection asks the snake to turn. It reports whether the turn was
// accepted; reversing onto the current heading is silently ignored.
func (s *Session) ChangeDirection(d snake.Direction, actor string) (bool, error) {
	if !d.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidDirection, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.game.Snapshot().Direction
	if !s.game.ChangeDirection(d) {
		return false, nil
	}
	s.touchLocked()
	if from != d {
		s.appendLocked(events.EventTypeDirectionChanged, actor, events.DirectionPayload{From: from, To: d})
	}
	return true, nil
}

// SetAutopilot marks the session as driven by the autopilot.
func (s *Session) SetAutopilot(enabled bool, actor string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.autopilot == enabled {
		return
	}
	s.autopilot = enabled
	s.touchLocked()
	s.appendLocked(events.EventTypeAutopilotToggled, actor, events.AutopilotPayload{Enabled: enabled})
}

// Autopilot reports whether the autopilot drives this session.
func (s *Session) Autopilot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autopilot
}

// Snapshot returns a copy of the game state.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// Render draws the board as text.
func (s *Session) Render() string {
	return s.Snapshot().Render()
}

// Summary returns the listing view of the session.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.game.Snapshot()
	return Summary{
		ID:         snap.GameID,
		Status:     snap.Status,
		Score:      snap.Score,
		LastScore:  snap.LastScore,
		Tick:       snap.Tick,
		Length:     len(snap.Snake),
		BoardSize:  snap.BoardSize,
		Autopilot:  s.autopilot,
		IntervalMs: s.interval.Milliseconds(),
		CreatedAt:  s.createdAt,
	}
}

// LastActive returns the time of the last accepted command or move.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Step moves the snake once, exactly as a tick would. Used by tools that
// drive games without waiting for the clock.
func (s *Session) Step() (game.StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked()
}

// halt stops the ticker without touching the game.
func (s *Session) halt() {
	s.mu.Lock()
	s.stopTickerLocked()
	s.mu.Unlock()
}

// tick is the ticker callback of t.
func (s *Session) tick(t *Ticker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A ticker replaced by pause and start may still fire once.
	if s.ticker != t {
		return false
	}
	if _, err := s.stepLocked(); err != nil {
		s.ticker = nil
		return false
	}
	if s.game.Status() != game.StatusStarted {
		s.ticker = nil
		return false
	}
	return true
}

func (s *Session) stepLocked() (game.StepResult, error) {
	start := time.Now()
	res, err := s.game.Step()
	if err != nil {
		return res, fmt.Errorf("game %s: %w", s.game.ID, err)
	}
	s.touchLocked()

	if res.Collided {
		s.appendLocked(events.EventTypeSelfCollision, events.ActorSystem, events.CollisionPayload{
			Cell:  res.Head,
			Score: res.Score,
		})
		s.stopTickerLocked()
		s.appendStoppedLocked(events.ActorSystem)
		s.metrics.RecordTick(time.Since(start))
		return res, nil
	}

	if res.Ate {
		s.appendLocked(events.EventTypeFoodEaten, events.ActorSystem, events.FoodPayload{Cell: res.Head, Score: res.Score})
		if res.Spawned != nil {
			s.appendLocked(events.EventTypeFoodSpawned, events.ActorSystem, events.FoodPayload{Cell: *res.Spawned, Score: res.Score})
		}
		if res.SpawnErr != nil {
			s.logger.Warn("game " + s.game.ID + ": " + res.SpawnErr.Error())
		}
	}

	s.appendLocked(events.EventTypeSnakeMoved, events.ActorSystem, events.MovedPayload{State: s.game.Snapshot()})
	s.metrics.RecordTick(time.Since(start))
	return res, nil
}

func (s *Session) appendStoppedLocked(actor string) {
	snap := s.game.Snapshot()
	ev := s.appendLocked(events.EventTypeGameStopped, actor, events.StoppedPayload{
		FinalScore: snap.LastScore,
		Reason:     snap.StopReason,
		Ticks:      snap.Tick,
		FoodEaten:  snap.FoodEaten,
		Length:     len(snap.Snake),
	})
	if s.onStopped != nil {
		s.onStopped(ev)
	}
	s.logger.Event(string(events.EventTypeGameStopped), actor,
		fmt.Sprintf("game %s final score %d (%s)", s.game.ID, snap.LastScore, snap.StopReason))
}

func (s *Session) appendLocked(t events.EventType, actor string, payload interface{}) events.GameEvent {
	return s.eventLog.Append(events.GameEvent{
		Type:    t,
		GameID:  s.game.ID,
		ActorID: actor,
		Payload: payload,
		Tick:    s.game.Tick(),
	})
}

func (s *Session) launchTickerLocked() {
	s.stopTickerLocked()
	t := NewTicker(s.interval, nil)
	t.step = func() bool { return s.tick(t) }
	s.ticker = t
	go t.Start(s.ctx)
}

func (s *Session) stopTickerLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Session) touchLocked() {
	s.lastActive = time.Now()
}
