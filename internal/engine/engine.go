package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

// stopQueueSize bounds the GAME_STOPPED hand-off before senders spill into
// their own goroutines.
const stopQueueSize = 256

var (
	// ErrGameNotFound is returned for unknown game IDs.
	ErrGameNotFound = errors.New("game not found")
	// ErrTooManyGames is returned when the session limit is reached.
	ErrTooManyGames = errors.New("too many games")
)

// Options configures the engine and the games it creates.
type Options struct {
	BoardSize    int
	MoveInterval time.Duration
	InitialFood  []grid.Cell
	MaxGames     int
	IdleTTL      time.Duration
	ReapInterval time.Duration
}

// GameOptions overrides the engine defaults for one game.
type GameOptions struct {
	BoardSize    int
	MoveInterval time.Duration
	InitialFood  []grid.Cell
	Seed         uint64
}

// Engine is the central orchestrator: it owns the sessions and wires the
// event log to the systems that react to it.
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	opts     Options

	// Sub-systems
	scoreSystem   *ScoreSystem
	archiveSystem *ArchiveSystem

	mu       sync.RWMutex
	sessions map[string]*Session

	ctx    context.Context
	cancel context.CancelFunc

	// GAME_STOPPED events handed over by sessions, so a final score is
	// stored even when the log trims the event before it is read.
	stops     chan events.GameEvent
	stopsSeen map[uint64]bool

	// State
	lastProcessedSeq uint64
}

// NewEngine initializes the engine. Scores and games are only kept in
// memory unless stores are attached with WithStores.
func NewEngine(eventLog *events.EventLog, log *logger.Logger, m *metrics.Collector, opts Options) *Engine {
	if opts.BoardSize <= 0 {
		opts.BoardSize = grid.DefaultSize
	}
	if opts.MoveInterval <= 0 {
		opts.MoveInterval = DefaultMoveInterval
	}
	if m == nil {
		m = metrics.Get()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		eventLog:      eventLog,
		logger:        log,
		metrics:       m,
		opts:          opts,
		scoreSystem:   NewScoreSystem(nil, log, m),
		archiveSystem: NewArchiveSystem(nil, log),
		sessions:      make(map[string]*Session),
		stops:         make(chan events.GameEvent, stopQueueSize),
		stopsSeen:     make(map[uint64]bool),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// WithStores attaches durable storage for scores and games.
// Call before Run.
func (e *Engine) WithStores(scores ScoreStore, games GameStore) *Engine {
	e.scoreSystem.store = scores
	e.archiveSystem.store = games
	return e
}

// OnScoreSaved registers a hook run after every stored score.
func (e *Engine) OnScoreSaved(fn func(ScoreEntry)) {
	e.scoreSystem.OnSaved(fn)
}

// GetEventLog exposes the event log for the transport and the autopilot.
func (e *Engine) GetEventLog() *events.EventLog {
	return e.eventLog
}

// CreateGame registers a new stopped game.
func (e *Engine) CreateGame(opts GameOptions) (*Session, error) {
	if opts.BoardSize <= 0 {
		opts.BoardSize = e.opts.BoardSize
	}
	if opts.MoveInterval <= 0 {
		opts.MoveInterval = e.opts.MoveInterval
	}
	if opts.InitialFood == nil {
		opts.InitialFood = e.opts.InitialFood
	}

	e.mu.Lock()
	if e.opts.MaxGames > 0 && len(e.sessions) >= e.opts.MaxGames {
		e.mu.Unlock()
		return nil, fmt.Errorf("create game: %w (limit %d)", ErrTooManyGames, e.opts.MaxGames)
	}
	g := game.New(uuid.NewString(), game.Options{
		BoardSize:   opts.BoardSize,
		InitialFood: opts.InitialFood,
		Seed:        opts.Seed,
	})
	s := newSession(e.ctx, g, opts.MoveInterval, e.eventLog, e.logger, e.metrics)
	s.onStopped = e.queueStop
	e.sessions[g.ID] = s
	e.mu.Unlock()

	e.eventLog.Append(events.GameEvent{
		Type:    events.EventTypeGameCreated,
		GameID:  g.ID,
		ActorID: events.ActorSystem,
		Payload: events.StatusPayload{Status: g.Status(), Board: g.Board().Size},
	})
	e.logger.Info("Game created: " + g.ID)
	return s, nil
}

// Game returns the session of a game.
func (e *Engine) Game(id string) (*Session, error) {
	e.mu.RLock()
	s, ok := e.sessions[id]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return s, nil
}

// Games returns all sessions, oldest first.
func (e *Engine) Games() []*Session {
	e.mu.RLock()
	out := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

// RemoveGame stops a game if needed and forgets it.
func (e *Engine) RemoveGame(id string, actor string) error {
	e.mu.Lock()
	s, ok := e.sessions[id]
	if ok {
		delete(e.sessions, id)
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("remove: %w: %s", ErrGameNotFound, id)
	}

	if s.Snapshot().Status != game.StatusStopped {
		if err := s.Stop(actor); err != nil && !errors.Is(err, game.ErrNotRunning) {
			e.logger.Warn("stop before remove: " + err.Error())
		}
	}
	s.halt()

	e.eventLog.Append(events.GameEvent{
		Type:    events.EventTypeGameRemoved,
		GameID:  id,
		ActorID: actor,
	})
	e.logger.Info("Game removed: " + id)
	return nil
}

// Run processes events and reaps idle games until ctx ends.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Starting core game engine...")
	defer e.Shutdown()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.processEvents(ctx)
		return nil
	})
	g.Go(func() error {
		e.reapIdle(ctx)
		return nil
	})
	return g.Wait()
}

// Shutdown stops every ticker. Games keep their state.
func (e *Engine) Shutdown() {
	e.cancel()
}

// processEvents tails the EventLog and dispatches events to subsystems.
func (e *Engine) processEvents(ctx context.Context) {
	for {
		changed := e.eventLog.Changed()
		e.catchUp(ctx)

		select {
		case <-ctx.Done():
			e.logger.Info("EventProcessor stopped.")
			return
		case ev := <-e.stops:
			e.catchUp(ctx)
			e.settleStop(ctx, ev)
		case <-changed:
		}
	}
}

// catchUp dispatches every retained event after lastProcessedSeq. Events
// trimmed before they were read are counted as missed.
func (e *Engine) catchUp(ctx context.Context) {
	batch := e.eventLog.Since(e.lastProcessedSeq)
	if missed := events.Missed(e.lastProcessedSeq, batch); missed > 0 {
		e.metrics.RecordEventsMissed(missed)
		e.logger.Warn(fmt.Sprintf("EventProcessor fell behind: %d events trimmed before seq %d", missed, batch[0].Seq))
	}
	for _, event := range batch {
		e.dispatch(ctx, event)
		e.lastProcessedSeq = event.Seq
	}
}

// queueStop receives GAME_STOPPED from a session. It never blocks the
// session: a full queue hands the event to a goroutine.
func (e *Engine) queueStop(ev events.GameEvent) {
	select {
	case e.stops <- ev:
	default:
		go func() {
			select {
			case e.stops <- ev:
			case <-e.ctx.Done():
			}
		}()
	}
}

// settleStop handles a queued GAME_STOPPED unless the log already
// delivered it.
func (e *Engine) settleStop(ctx context.Context, ev events.GameEvent) {
	if e.stopsSeen[ev.Seq] {
		delete(e.stopsSeen, ev.Seq)
		return
	}
	e.logger.Warn(fmt.Sprintf("Recovered GAME_STOPPED seq %d for game %s", ev.Seq, ev.GameID))
	e.onStopped(ctx, ev)
}

func (e *Engine) onStopped(ctx context.Context, event events.GameEvent) {
	if p, ok := event.Payload.(events.StoppedPayload); ok {
		e.metrics.RecordGameStopped(p.FinalScore)
	}
	e.scoreSystem.OnGameStopped(ctx, event)
	e.archiveSystem.OnLifecycle(ctx, event)
}

// dispatch routes an event to the subsystems based on its type.
func (e *Engine) dispatch(ctx context.Context, event events.GameEvent) {
	switch event.Type {
	case events.EventTypeGameCreated:
		e.metrics.RecordGameCreated()
		e.archiveSystem.OnLifecycle(ctx, event)

	case events.EventTypeGameStarted:
		e.metrics.RecordGameStarted()
		autopilot := false
		if s, err := e.Game(event.GameID); err == nil {
			autopilot = s.Autopilot()
		}
		e.scoreSystem.OnGameStarted(event, autopilot)
		e.archiveSystem.OnLifecycle(ctx, event)

	case events.EventTypeGamePaused, events.EventTypeGameResumed:
		e.archiveSystem.OnLifecycle(ctx, event)

	case events.EventTypeGameStopped:
		e.stopsSeen[event.Seq] = true
		e.onStopped(ctx, event)

	case events.EventTypeGameRemoved:
		e.scoreSystem.OnGameRemoved(event)
		e.archiveSystem.OnLifecycle(ctx, event)

	case events.EventTypeFoodEaten:
		e.metrics.RecordFoodEaten()

	case events.EventTypeSelfCollision:
		e.metrics.RecordSelfCollision()

	case events.EventTypeAutopilotToggled:
		e.scoreSystem.OnAutopilotToggled(event)
	}
}

// reapIdle removes stopped games nobody touched for IdleTTL.
func (e *Engine) reapIdle(ctx context.Context) {
	if e.opts.IdleTTL <= 0 {
		<-ctx.Done()
		return
	}
	interval := e.opts.ReapInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.ReapIdle(now)
		}
	}
}

// ReapIdle removes stopped games idle since before now-IdleTTL and returns
// how many were removed.
func (e *Engine) ReapIdle(now time.Time) int {
	if e.opts.IdleTTL <= 0 {
		return 0
	}
	removed := 0
	for _, s := range e.Games() {
		if s.Snapshot().Status != game.StatusStopped {
			continue
		}
		if now.Sub(s.LastActive()) < e.opts.IdleTTL {
			continue
		}
		if err := e.RemoveGame(s.ID(), events.ActorSystem); err == nil {
			removed++
		}
	}
	if removed > 0 {
		e.logger.Infof("Reaped %d idle games", removed)
	}
	return removed
}
