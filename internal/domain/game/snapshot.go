package game

import (
	"strings"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
)

// Snapshot is a value copy of a game, safe to hand to other goroutines.
type Snapshot struct {
	GameID     string          `json:"game_id"`
	Status     Status          `json:"status"`
	BoardSize  int             `json:"board_size"`
	Snake      []grid.Cell     `json:"snake"`
	Direction  snake.Direction `json:"direction"`
	Heading    snake.Direction `json:"heading"`
	Food       []grid.Cell     `json:"food"`
	Score      int             `json:"score"`
	LastScore  int             `json:"last_score"`
	StopReason string          `json:"stop_reason,omitempty"`
	Tick       uint64          `json:"tick"`
	FoodEaten  int             `json:"food_eaten"`
}

// Snapshot captures the current state.
func (g *Game) Snapshot() Snapshot {
	s := g.snake.Clone()
	return Snapshot{
		GameID:     g.ID,
		Status:     g.status,
		BoardSize:  g.board.Size,
		Snake:      s.Parts,
		Direction:  s.Direction,
		Heading:    s.Heading(),
		Food:       g.food.Clone().Items,
		Score:      g.score,
		LastScore:  g.lastScore,
		StopReason: g.stopReason,
		Tick:       g.tick,
		FoodEaten:  g.foodEaten,
	}
}

// Head returns the leading snake cell of the snapshot.
func (s Snapshot) Head() grid.Cell {
	return s.Snake[len(s.Snake)-1]
}

// Render draws the board as text, one row per line:
// S head, s body, F food, - empty.
func (s Snapshot) Render() string {
	size := s.BoardSize
	rows := make([][]byte, size)
	for i := range rows {
		rows[i] = []byte(strings.Repeat("-", size))
	}
	for _, c := range s.Food {
		rows[c.Top][c.Left] = 'F'
	}
	for i, c := range s.Snake {
		if i == len(s.Snake)-1 {
			rows[c.Top][c.Left] = 'S'
		} else {
			rows[c.Top][c.Left] = 's'
		}
	}

	var b strings.Builder
	for _, row := range rows {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}
