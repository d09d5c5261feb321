package engine

import (
	"context"
	"time"

	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
)

// GameRecord is the stored row of one game.
type GameRecord struct {
	ID        string
	BoardSize int
	Status    string
	Score     int
	Rounds    int
	CreatedAt time.Time
	UpdatedAt time.Time
	Removed   bool
}

// GameStore keeps one row per game.
type GameStore interface {
	SaveGame(ctx context.Context, rec GameRecord) error
}

// ArchiveSystem mirrors game lifecycle events into a GameStore.
type ArchiveSystem struct {
	store  GameStore
	logger *logger.Logger
	games  map[string]*GameRecord
}

// NewArchiveSystem creates an archive system. A nil store disables it.
func NewArchiveSystem(store GameStore, log *logger.Logger) *ArchiveSystem {
	return &ArchiveSystem{
		store:  store,
		logger: log,
		games:  make(map[string]*GameRecord),
	}
}

// OnLifecycle is the subscriber hook for GAME_* events.
func (as *ArchiveSystem) OnLifecycle(ctx context.Context, event events.GameEvent) {
	rec, ok := as.games[event.GameID]
	if !ok {
		rec = &GameRecord{ID: event.GameID, CreatedAt: event.Timestamp}
		as.games[event.GameID] = rec
	}
	rec.UpdatedAt = event.Timestamp

	switch p := event.Payload.(type) {
	case events.StatusPayload:
		rec.BoardSize = p.Board
		rec.Status = string(p.Status)
	case events.StoppedPayload:
		rec.Status = "stopped"
		rec.Score = p.FinalScore
	}

	switch event.Type {
	case events.EventTypeGameStarted:
		rec.Rounds++
	case events.EventTypeGameRemoved:
		rec.Removed = true
	}

	if as.store != nil {
		if err := as.store.SaveGame(ctx, *rec); err != nil {
			as.logger.Errorf("archive game %s: %v", event.GameID, err)
		}
	}

	if rec.Removed {
		delete(as.games, event.GameID)
	}
}
