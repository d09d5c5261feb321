package snake

import (
	"fmt"
	"strings"
)

// Direction is one of the four headings a snake can move in.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Browser keyCode values for the arrow keys.
const (
	KeyLeft  = 37
	KeyUp    = 38
	KeyRight = 39
	KeyDown  = 40
)

// Directions lists every valid direction in a stable order.
var Directions = []Direction{DirectionUp, DirectionRight, DirectionDown, DirectionLeft}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return true
	}
	return false
}

// Opposite returns the reverse heading.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionUp:
		return DirectionDown
	case DirectionDown:
		return DirectionUp
	case DirectionLeft:
		return DirectionRight
	case DirectionRight:
		return DirectionLeft
	default:
		return d
	}
}

// Delta returns the (row, column) offset of one step.
// Up decreases the row, matching screen coordinates.
func (d Direction) Delta() (dTop, dLeft int) {
	switch d {
	case DirectionUp:
		return -1, 0
	case DirectionDown:
		return 1, 0
	case DirectionLeft:
		return 0, -1
	case DirectionRight:
		return 0, 1
	default:
		return 0, 0
	}
}

// ParseDirection accepts the lower-case names, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}

// DirectionFromKeyCode maps an arrow-key code to a direction.
// Any other key is reported as not ok and must be ignored.
func DirectionFromKeyCode(code int) (Direction, bool) {
	switch code {
	case KeyLeft:
		return DirectionLeft, true
	case KeyUp:
		return DirectionUp, true
	case KeyRight:
		return DirectionRight, true
	case KeyDown:
		return DirectionDown, true
	}
	return "", false
}
