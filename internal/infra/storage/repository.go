// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"encoding/json"
	"time"
)

// GameEvent mirrors the in-memory event structure for persistence.
// The payload is kept as raw JSON.
type GameEvent struct {
	ID        string          `json:"id" db:"id"`
	Seq       uint64          `json:"seq" db:"seq"`
	GameID    string          `json:"game_id" db:"game_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	EventType string          `json:"event_type" db:"event_type"`
	ActorID   string          `json:"actor_id" db:"actor_id"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	Tick      uint64          `json:"tick" db:"tick"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByGameID retrieves all events for a specific game (for replay).
	GetByGameID(ctx context.Context, gameID string) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type for a game.
	GetByEventType(ctx context.Context, gameID string, eventType string) ([]GameEvent, error)
}

// Score is one row of the leaderboard.
type Score struct {
	ID         int64     `json:"id" db:"id"`
	GameID     string    `json:"game_id" db:"game_id"`
	Score      int       `json:"score" db:"score"`
	Length     int       `json:"length" db:"length"`
	Ticks      uint64    `json:"ticks" db:"ticks"`
	FoodEaten  int       `json:"food_eaten" db:"food_eaten"`
	Reason     string    `json:"reason" db:"reason"`
	Autopilot  bool      `json:"autopilot" db:"autopilot"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// ScoreRepository stores final scores.
type ScoreRepository interface {
	// Insert stores a score and returns its row ID.
	Insert(ctx context.Context, s Score) (int64, error)

	// Top returns the best scores, highest first.
	Top(ctx context.Context, limit int) ([]Score, error)

	// BestForGame returns the best score of a game, or nil if it has none.
	BestForGame(ctx context.Context, gameID string) (*Score, error)
}

// GameRow is the stored summary of one game.
type GameRow struct {
	ID        string    `json:"id" db:"id"`
	BoardSize int       `json:"board_size" db:"board_size"`
	Status    string    `json:"status" db:"status"`
	Score     int       `json:"score" db:"score"`
	Rounds    int       `json:"rounds" db:"rounds"`
	Removed   bool      `json:"removed" db:"removed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GameRepository stores one summary row per game.
type GameRepository interface {
	// Upsert updates or inserts a game row.
	Upsert(ctx context.Context, g GameRow) error

	// Get retrieves one game, or nil if unknown.
	Get(ctx context.Context, id string) (*GameRow, error)

	// List returns the most recently updated games.
	List(ctx context.Context, limit int) ([]GameRow, error)
}
