package engine

import (
	"context"
	"time"

	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

// ScoreEntry is a finished game as it goes on the leaderboard.
type ScoreEntry struct {
	GameID    string
	Score     int
	Length    int
	Ticks     uint64
	FoodEaten int
	Reason    string
	Autopilot bool
	At        time.Time
}

// ScoreStore keeps finished games.
type ScoreStore interface {
	SaveScore(ctx context.Context, entry ScoreEntry) error
}

// ScoreSystem subscribes to GAME_STOPPED and records the final score.
type ScoreSystem struct {
	store   ScoreStore
	logger  *logger.Logger
	metrics *metrics.Collector
	onSaved []func(ScoreEntry)
	// Games currently flagged as autopilot-driven.
	autopilot map[string]bool
}

// NewScoreSystem creates a score system. A nil store only logs.
func NewScoreSystem(store ScoreStore, log *logger.Logger, m *metrics.Collector) *ScoreSystem {
	return &ScoreSystem{
		store:     store,
		logger:    log,
		metrics:   m,
		autopilot: make(map[string]bool),
	}
}

// OnSaved registers a hook run after every stored score, e.g. to drop a
// cached leaderboard.
func (ss *ScoreSystem) OnSaved(fn func(ScoreEntry)) {
	ss.onSaved = append(ss.onSaved, fn)
}

// OnAutopilotToggled tracks which games a human did not play.
func (ss *ScoreSystem) OnAutopilotToggled(event events.GameEvent) {
	payload, ok := event.Payload.(events.AutopilotPayload)
	if !ok {
		return
	}
	if payload.Enabled {
		ss.autopilot[event.GameID] = true
	}
}

// OnGameRemoved forgets per-game state.
func (ss *ScoreSystem) OnGameRemoved(event events.GameEvent) {
	delete(ss.autopilot, event.GameID)
}

// OnGameStarted clears the autopilot mark left by the previous round
// unless the autopilot is still on.
func (ss *ScoreSystem) OnGameStarted(event events.GameEvent, autopilotOn bool) {
	if autopilotOn {
		ss.autopilot[event.GameID] = true
	} else {
		delete(ss.autopilot, event.GameID)
	}
}

// OnGameStopped is the subscriber hook for GAME_STOPPED.
func (ss *ScoreSystem) OnGameStopped(ctx context.Context, event events.GameEvent) {
	payload, ok := event.Payload.(events.StoppedPayload)
	if !ok {
		ss.logger.Error("Failed to parse StoppedPayload")
		return
	}

	entry := ScoreEntry{
		GameID:    event.GameID,
		Score:     payload.FinalScore,
		Length:    payload.Length,
		Ticks:     payload.Ticks,
		FoodEaten: payload.FoodEaten,
		Reason:    payload.Reason,
		Autopilot: ss.autopilot[event.GameID],
		At:        event.Timestamp,
	}

	if ss.store == nil {
		return
	}
	if err := ss.store.SaveScore(ctx, entry); err != nil {
		ss.logger.Errorf("save score for game %s: %v", event.GameID, err)
		return
	}
	ss.metrics.RecordScoreSaved()
	for _, fn := range ss.onSaved {
		fn(entry)
	}
}
