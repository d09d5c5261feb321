package cognition

import (
	"testing"

	"github.com/MRamiBalles/SnakeWeb/server/internal/autopilot/perception"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
)

func view(t *testing.T, size int, body []grid.Cell, heading snake.Direction, food ...grid.Cell) *perception.BoardView {
	t.Helper()
	v, err := perception.NewPerceiver(logger.Discard()).BuildBoardView(game.Snapshot{
		GameID:    "T",
		Status:    game.StatusStarted,
		BoardSize: size,
		Snake:     body,
		Direction: heading,
		Heading:   heading,
		Food:      food,
	})
	if err != nil {
		t.Fatalf("BuildBoardView failed: %v", err)
	}
	return v
}

func TestDecideFoodStraightAhead(t *testing.T) {
	c := NewCognitor(logger.Discard())
	d := c.Decide(view(t, 20, snake.InitialParts, snake.DirectionRight, grid.Cell{Top: 0, Left: 5}))

	if d.Direction != snake.DirectionRight || d.Reason != ReasonFood {
		t.Errorf("Expected FOOD right, got %s %s", d.Reason, d.Direction)
	}
	if d.Distance != 3 {
		t.Errorf("Expected distance 3, got %d", d.Distance)
	}
}

func TestDecideNeverReverses(t *testing.T) {
	// Food directly behind the head; the way there goes around the edge.
	c := NewCognitor(logger.Discard())
	d := c.Decide(view(t, 20, snake.InitialParts, snake.DirectionRight, grid.Cell{Top: 0, Left: 19}))

	if d.Direction == snake.DirectionLeft {
		t.Fatal("Autopilot reversed onto its own body")
	}
	if d.Direction != snake.DirectionUp || d.Distance != 5 {
		t.Errorf("Expected up with distance 5 through the top edge, got %s %d", d.Direction, d.Distance)
	}
	if _, ok := d.Areas[snake.DirectionLeft]; ok {
		t.Errorf("Reverse direction must not be a candidate")
	}
}

func TestDecideTrapped(t *testing.T) {
	// Head at 2:2 boxed in by its own body on every side it may turn to.
	body := []grid.Cell{
		{Top: 3, Left: 2}, {Top: 3, Left: 3}, {Top: 2, Left: 3}, {Top: 1, Left: 3},
		{Top: 1, Left: 2}, {Top: 1, Left: 1}, {Top: 2, Left: 1}, {Top: 2, Left: 2},
	}
	c := NewCognitor(logger.Discard())
	d := c.Decide(view(t, 5, body, snake.DirectionRight))

	if d.Reason != ReasonTrapped {
		t.Errorf("Expected TRAPPED, got %s", d.Reason)
	}
	if d.Direction != snake.DirectionRight {
		t.Errorf("Trapped snake keeps its direction, got %s", d.Direction)
	}
}

func TestDecideWithoutFoodKeepsDirection(t *testing.T) {
	c := NewCognitor(logger.Discard())
	d := c.Decide(view(t, 10, snake.InitialParts, snake.DirectionRight))

	if d.Reason != ReasonSurvive || d.Direction != snake.DirectionRight {
		t.Errorf("Expected SURVIVE right, got %s %s", d.Reason, d.Direction)
	}
	if len(d.Areas) != 3 {
		t.Errorf("Expected 3 candidate moves, got %v", d.Areas)
	}
}

func TestTailCellIsNotFreeOnNextMove(t *testing.T) {
	v := view(t, 20, snake.InitialParts, snake.DirectionRight)
	tail := snake.InitialParts[0]

	if v.SafeAt(tail, 1) {
		t.Errorf("Tail still counts as body on the next move")
	}
	if !v.SafeAt(tail, 2) {
		t.Errorf("Tail cell should be free on the second move")
	}
}
