package storage

import (
	"context"
	"time"

	"github.com/MRamiBalles/SnakeWeb/server/internal/engine"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
)

// writeTimeout bounds a single write-through from the event log.
const writeTimeout = 5 * time.Second

// EventWriter translates domain events to storage events.
type EventWriter struct {
	repo EventRepository
}

// NewEventWriter adapts repo to events.EventPersister.
func NewEventWriter(repo EventRepository) *EventWriter {
	return &EventWriter{repo: repo}
}

func (w *EventWriter) Append(event events.GameEvent) error {
	stored, err := FromEvent(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return w.repo.Append(ctx, stored)
}

// ScoreWriter adapts a ScoreRepository to engine.ScoreStore.
type ScoreWriter struct {
	repo ScoreRepository
}

func NewScoreWriter(repo ScoreRepository) *ScoreWriter {
	return &ScoreWriter{repo: repo}
}

func (w *ScoreWriter) SaveScore(ctx context.Context, e engine.ScoreEntry) error {
	_, err := w.repo.Insert(ctx, Score{
		GameID:     e.GameID,
		Score:      e.Score,
		Length:     e.Length,
		Ticks:      e.Ticks,
		FoodEaten:  e.FoodEaten,
		Reason:     e.Reason,
		Autopilot:  e.Autopilot,
		RecordedAt: e.At,
	})
	return err
}

// GameWriter adapts a GameRepository to engine.GameStore.
type GameWriter struct {
	repo GameRepository
}

func NewGameWriter(repo GameRepository) *GameWriter {
	return &GameWriter{repo: repo}
}

func (w *GameWriter) SaveGame(ctx context.Context, r engine.GameRecord) error {
	return w.repo.Upsert(ctx, GameRow{
		ID:        r.ID,
		BoardSize: r.BoardSize,
		Status:    r.Status,
		Score:     r.Score,
		Rounds:    r.Rounds,
		Removed:   r.Removed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
}

var (
	_ events.EventPersister = (*EventWriter)(nil)
	_ engine.ScoreStore     = (*ScoreWriter)(nil)
	_ engine.GameStore      = (*GameWriter)(nil)
)
