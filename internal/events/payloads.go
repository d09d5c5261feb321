package events

import (
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
)

// StatusPayload is attached to GAME_CREATED, GAME_STARTED, GAME_PAUSED and GAME_RESUMED.
type StatusPayload struct {
	Status game.Status `json:"status"`
	Board  int         `json:"board_size"`
}

// StoppedPayload is attached to GAME_STOPPED.
type StoppedPayload struct {
	FinalScore int    `json:"final_score"`
	Reason     string `json:"reason"`
	Ticks      uint64 `json:"ticks"`
	FoodEaten  int    `json:"food_eaten"`
	Length     int    `json:"length"`
}

// DirectionPayload is attached to DIRECTION_CHANGED.
type DirectionPayload struct {
	From snake.Direction `json:"from"`
	To   snake.Direction `json:"to"`
}

// MovedPayload is attached to SNAKE_MOVED and carries the whole board so
// clients can redraw from a single message.
type MovedPayload struct {
	State game.Snapshot `json:"state"`
}

// FoodPayload is attached to FOOD_EATEN and FOOD_SPAWNED.
type FoodPayload struct {
	Cell  grid.Cell `json:"cell"`
	Score int       `json:"score"`
}

// CollisionPayload is attached to SELF_COLLISION.
type CollisionPayload struct {
	Cell  grid.Cell `json:"cell"`
	Score int       `json:"score"`
}

// AutopilotPayload is attached to AUTOPILOT_TOGGLED.
type AutopilotPayload struct {
	Enabled bool `json:"enabled"`
}
