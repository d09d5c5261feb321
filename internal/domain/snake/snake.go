// Package snake defines the player-controlled snake.
// This package is PURE and must NOT import any infrastructure packages.
package snake

import "github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"

// InitialParts is the body every new or reset snake starts with, tail first.
var InitialParts = []grid.Cell{
	{Top: 0, Left: 0},
	{Top: 0, Left: 1},
	{Top: 0, Left: 2},
}

// InitialDirection is the heading of a new or reset snake.
const InitialDirection = DirectionRight

// Snake is an ordered run of body cells, tail at index 0 and head last.
type Snake struct {
	Parts     []grid.Cell `json:"parts"`
	Direction Direction   `json:"direction"`

	// heading is the direction of the last completed move. Reversal is
	// judged against it, not against Direction.
	heading Direction
}

// New creates a snake in its initial position.
func New() *Snake {
	s := &Snake{}
	s.Reset()
	return s
}

// Reset puts the snake back at its starting cells, heading right.
func (s *Snake) Reset() {
	s.Parts = append([]grid.Cell(nil), InitialParts...)
	s.Direction = InitialDirection
	s.heading = InitialDirection
}

// Head returns the leading cell.
func (s *Snake) Head() grid.Cell {
	return s.Parts[len(s.Parts)-1]
}

// Tail returns the trailing cell.
func (s *Snake) Tail() grid.Cell {
	return s.Parts[0]
}

// Len returns the number of body cells.
func (s *Snake) Len() int {
	return len(s.Parts)
}

// Heading returns the direction of the last completed move.
func (s *Snake) Heading() Direction {
	return s.heading
}

// SetDirection requests a new heading for the next move.
// A reversal of the current heading is ignored and reported as false.
func (s *Snake) SetDirection(d Direction) bool {
	if !d.Valid() || d == s.heading.Opposite() {
		return false
	}
	s.Direction = d
	return true
}

// NextPosition computes where the head goes next, wrapping at the edges.
func (s *Snake) NextPosition(b grid.Board) grid.Cell {
	dTop, dLeft := s.Direction.Delta()
	return b.Wrap(s.Head().Add(dTop, dLeft))
}

// Occupies reports whether any body cell, tail included, sits on c.
func (s *Snake) Occupies(c grid.Cell) bool {
	for _, p := range s.Parts {
		if p == c {
			return true
		}
	}
	return false
}

// Advance pushes pos as the new head. Unless grow is set the tail is dropped,
// so the length stays the same.
func (s *Snake) Advance(pos grid.Cell, grow bool) {
	if !grow {
		s.Parts = s.Parts[1:]
	}
	s.Parts = append(s.Parts, pos)
	s.heading = s.Direction
}

// Clone returns a deep copy.
func (s *Snake) Clone() *Snake {
	return &Snake{
		Parts:     append([]grid.Cell(nil), s.Parts...),
		Direction: s.Direction,
		heading:   s.heading,
	}
}
