// Package perception provides the "eyes" of the autopilot.
//
// It turns a game snapshot into a BoardView: an occupancy grid that knows
// when each body cell will be vacated, which is what the Cognition module
// needs to plan a path.
package perception

import (
	"errors"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
)

// ErrNothingToSee is returned for snapshots without a snake.
var ErrNothingToSee = errors.New("snapshot has no snake")

// BoardView is the autopilot's picture of one game.
type BoardView struct {
	GameID    string
	Board     grid.Board
	Head      grid.Cell
	Heading   snake.Direction
	Direction snake.Direction
	Length    int
	Food      []grid.Cell
	Status    game.Status

	// freeAt[i] is the first move number at which the head may enter
	// board cell i. Zero for empty cells.
	freeAt []int
	food   []bool
}

// SafeAt reports whether the head can enter c on move number move (1 = next).
// A body part at index i (tail = 0) is still present during move i+1,
// because the collision check runs before the tail shifts.
func (v *BoardView) SafeAt(c grid.Cell, move int) bool {
	return move >= v.freeAt[v.Board.Index(c)]
}

// HasFood reports whether c holds food.
func (v *BoardView) HasFood(c grid.Cell) bool {
	return v.food[v.Board.Index(c)]
}

// Perceiver builds BoardViews.
type Perceiver struct {
	logger *logger.Logger
}

// NewPerceiver creates a new perception module.
func NewPerceiver(log *logger.Logger) *Perceiver {
	return &Perceiver{logger: log}
}

// BuildBoardView analyzes a snapshot.
func (p *Perceiver) BuildBoardView(snap game.Snapshot) (*BoardView, error) {
	if len(snap.Snake) == 0 {
		return nil, ErrNothingToSee
	}

	b := grid.NewBoard(snap.BoardSize)
	v := &BoardView{
		GameID:    snap.GameID,
		Board:     b,
		Head:      snap.Head(),
		Heading:   snap.Heading,
		Direction: snap.Direction,
		Length:    len(snap.Snake),
		Food:      append([]grid.Cell(nil), snap.Food...),
		Status:    snap.Status,
		freeAt:    make([]int, b.Area()),
		food:      make([]bool, b.Area()),
	}

	for i, c := range snap.Snake {
		v.freeAt[b.Index(c)] = i + 2
	}
	for _, c := range snap.Food {
		if b.Contains(c) {
			v.food[b.Index(c)] = true
		}
	}
	return v, nil
}
