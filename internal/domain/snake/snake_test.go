package snake

import (
	"testing"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
)

func TestNewSnakeStartsTopLeftHeadingRight(t *testing.T) {
	s := New()

	if s.Len() != 3 {
		t.Fatalf("Expected 3 parts, got %d", s.Len())
	}
	if s.Head() != (grid.Cell{Top: 0, Left: 2}) {
		t.Errorf("Expected head at (0,2), got %v", s.Head())
	}
	if s.Tail() != (grid.Cell{Top: 0, Left: 0}) {
		t.Errorf("Expected tail at (0,0), got %v", s.Tail())
	}
	if s.Direction != DirectionRight {
		t.Errorf("Expected direction right, got %s", s.Direction)
	}
}

func TestSetDirectionIgnoresReversal(t *testing.T) {
	s := New()

	if s.SetDirection(DirectionLeft) {
		t.Errorf("Reversal from right to left should be ignored")
	}
	if s.Direction != DirectionRight {
		t.Errorf("Direction changed to %s after an ignored reversal", s.Direction)
	}
	if !s.SetDirection(DirectionDown) {
		t.Errorf("Turning down from right should be accepted")
	}
}

func TestQuickDoubleTurnCannotReverse(t *testing.T) {
	s := New()

	// Two key presses before the next move: down, then left.
	if !s.SetDirection(DirectionDown) {
		t.Fatalf("Turning down from right should be accepted")
	}
	if s.SetDirection(DirectionLeft) {
		t.Errorf("Left must be rejected until the snake has actually moved down")
	}

	b := grid.NewBoard(20)
	s.Advance(s.NextPosition(b), false)

	if !s.SetDirection(DirectionLeft) {
		t.Errorf("Left should be accepted once the snake heads down")
	}
}

func TestNextPositionWraps(t *testing.T) {
	b := grid.NewBoard(20)

	cases := []struct {
		name string
		head grid.Cell
		dir  Direction
		want grid.Cell
	}{
		{"up from top row", grid.Cell{Top: 0, Left: 4}, DirectionUp, grid.Cell{Top: 19, Left: 4}},
		{"down from bottom row", grid.Cell{Top: 19, Left: 4}, DirectionDown, grid.Cell{Top: 0, Left: 4}},
		{"left from first column", grid.Cell{Top: 6, Left: 0}, DirectionLeft, grid.Cell{Top: 6, Left: 19}},
		{"right from last column", grid.Cell{Top: 6, Left: 19}, DirectionRight, grid.Cell{Top: 6, Left: 0}},
		{"right in the middle", grid.Cell{Top: 6, Left: 7}, DirectionRight, grid.Cell{Top: 6, Left: 8}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Snake{Parts: []grid.Cell{tc.head}, Direction: tc.dir, heading: tc.dir}
			if got := s.NextPosition(b); got != tc.want {
				t.Errorf("NextPosition = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdvanceShiftsOrGrows(t *testing.T) {
	s := New()

	s.Advance(grid.Cell{Top: 0, Left: 3}, false)
	if s.Len() != 3 || s.Tail() != (grid.Cell{Top: 0, Left: 1}) {
		t.Errorf("Expected plain move to keep length 3 and drop the tail, got %v", s.Parts)
	}

	s.Advance(grid.Cell{Top: 0, Left: 4}, true)
	if s.Len() != 4 || s.Head() != (grid.Cell{Top: 0, Left: 4}) {
		t.Errorf("Expected growth to length 4 with head (0,4), got %v", s.Parts)
	}
}

func TestOccupiesIncludesTail(t *testing.T) {
	s := New()
	if !s.Occupies(grid.Cell{Top: 0, Left: 0}) {
		t.Errorf("Tail cell must count as occupied")
	}
	if s.Occupies(grid.Cell{Top: 1, Left: 0}) {
		t.Errorf("(1,0) is not part of the snake")
	}
}

func TestDirectionFromKeyCode(t *testing.T) {
	cases := map[int]Direction{
		37: DirectionLeft,
		38: DirectionUp,
		39: DirectionRight,
		40: DirectionDown,
	}
	for code, want := range cases {
		got, ok := DirectionFromKeyCode(code)
		if !ok || got != want {
			t.Errorf("key %d = %q (ok=%t), want %q", code, got, ok, want)
		}
	}
	if _, ok := DirectionFromKeyCode(32); ok {
		t.Errorf("Space bar must not map to a direction")
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection(" Up "); err != nil || d != DirectionUp {
		t.Errorf("ParseDirection(\" Up \") = %q, %v", d, err)
	}
	if _, err := ParseDirection("north"); err == nil {
		t.Errorf("Expected an error for an unknown direction")
	}
}
