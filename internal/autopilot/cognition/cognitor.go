// Package cognition provides the "brain" of the autopilot.
//
// The Cognitor searches the wrapped board breadth-first for the nearest
// food. A path is only taken if the snake still has room to live after the
// first move; otherwise it turns toward the largest open area.
package cognition

import (
	"github.com/MRamiBalles/SnakeWeb/server/internal/autopilot/perception"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
)

// Reasons a direction was chosen.
const (
	ReasonFood    = "FOOD"
	ReasonSurvive = "SURVIVE"
	ReasonTrapped = "TRAPPED"
)

// Decision is the direction the autopilot wants next.
type Decision struct {
	GameID    string                  `json:"game_id"`
	Direction snake.Direction         `json:"direction"`
	Reason    string                  `json:"reason"`
	Target    *grid.Cell              `json:"target,omitempty"`
	Distance  int                     `json:"distance,omitempty"`
	Areas     map[snake.Direction]int `json:"areas"`
}

// Cognitor is the decision-making core.
type Cognitor struct {
	logger *logger.Logger
}

// NewCognitor creates a new cognition module.
func NewCognitor(log *logger.Logger) *Cognitor {
	return &Cognitor{logger: log}
}

// Decide picks the next direction for the view.
func (c *Cognitor) Decide(view *perception.BoardView) *Decision {
	d := &Decision{
		GameID:    view.GameID,
		Direction: view.Direction,
		Areas:     make(map[snake.Direction]int),
	}

	// Current direction first so ties do not make the snake twitch.
	order := candidateOrder(view)
	for _, dir := range order {
		next := step(view.Board, view.Head, dir)
		if view.SafeAt(next, 1) {
			d.Areas[dir] = reachable(view, next)
		}
	}
	if len(d.Areas) == 0 {
		d.Reason = ReasonTrapped
		c.logger.Debug("autopilot trapped in game " + view.GameID)
		return d
	}

	if first, target, dist, ok := nearestFood(view, order); ok && d.Areas[first] >= view.Length {
		d.Direction = first
		d.Reason = ReasonFood
		d.Target = &target
		d.Distance = dist
		return d
	}

	best := -1
	for _, dir := range order {
		if area, ok := d.Areas[dir]; ok && area > best {
			best = area
			d.Direction = dir
		}
	}
	d.Reason = ReasonSurvive
	return d
}

// candidateOrder lists the directions the snake may take, current first.
// The reverse of the heading is never a candidate.
func candidateOrder(view *perception.BoardView) []snake.Direction {
	banned := view.Heading.Opposite()
	order := make([]snake.Direction, 0, 3)
	if view.Direction.Valid() && view.Direction != banned {
		order = append(order, view.Direction)
	}
	for _, dir := range snake.Directions {
		if dir != banned && dir != view.Direction {
			order = append(order, dir)
		}
	}
	return order
}

func step(b grid.Board, c grid.Cell, dir snake.Direction) grid.Cell {
	dt, dl := dir.Delta()
	return b.Wrap(c.Add(dt, dl))
}

// nearestFood runs a breadth-first search from the head and returns the
// first move of the shortest path to food.
func nearestFood(view *perception.BoardView, firstMoves []snake.Direction) (snake.Direction, grid.Cell, int, bool) {
	type node struct {
		cell  grid.Cell
		dist  int
		first snake.Direction
	}

	visited := make([]bool, view.Board.Area())
	visited[view.Board.Index(view.Head)] = true

	queue := make([]node, 0, view.Board.Area())
	for _, dir := range firstMoves {
		next := step(view.Board, view.Head, dir)
		if !view.SafeAt(next, 1) || visited[view.Board.Index(next)] {
			continue
		}
		visited[view.Board.Index(next)] = true
		queue = append(queue, node{cell: next, dist: 1, first: dir})
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if view.HasFood(n.cell) {
			return n.first, n.cell, n.dist, true
		}
		for _, dir := range snake.Directions {
			next := step(view.Board, n.cell, dir)
			i := view.Board.Index(next)
			if visited[i] || !view.SafeAt(next, n.dist+1) {
				continue
			}
			visited[i] = true
			queue = append(queue, node{cell: next, dist: n.dist + 1, first: n.first})
		}
	}
	return "", grid.Cell{}, 0, false
}

// reachable counts the cells the head could still reach after moving to start.
func reachable(view *perception.BoardView, start grid.Cell) int {
	type node struct {
		cell grid.Cell
		dist int
	}

	visited := make([]bool, view.Board.Area())
	visited[view.Board.Index(view.Head)] = true
	visited[view.Board.Index(start)] = true
	queue := []node{{cell: start, dist: 1}}
	count := 0

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		count++
		for _, dir := range snake.Directions {
			next := step(view.Board, n.cell, dir)
			i := view.Board.Index(next)
			if visited[i] || !view.SafeAt(next, n.dist+1) {
				continue
			}
			visited[i] = true
			queue = append(queue, node{cell: next, dist: n.dist + 1})
		}
	}
	return count
}
