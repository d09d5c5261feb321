// Package game holds the rules of a single Snake game: the status machine,
// the score and the per-tick update step.
// This package is PURE and must NOT import any infrastructure packages.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/food"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusStarted Status = "started"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

// Reasons a game stopped.
const (
	StopReasonPlayer        = "player"
	StopReasonSelfCollision = "self_collision"
)

var (
	// ErrNotRunning is returned for commands that need a started (or paused) game.
	ErrNotRunning = errors.New("game is not running")
	// ErrAlreadyStarted is returned when starting a game that is already moving.
	ErrAlreadyStarted = errors.New("game already started")
)

// Options configures a new game.
type Options struct {
	BoardSize   int
	InitialFood []grid.Cell
	// Seed drives food placement. Zero picks a time-based seed.
	Seed uint64
}

// Game is one Snake game. It is not safe for concurrent use.
type Game struct {
	ID string

	board       grid.Board
	snake       *snake.Snake
	food        *food.Food
	initialFood []grid.Cell
	rng         *rand.Rand

	status     Status
	score      int
	lastScore  int
	stopReason string
	tick       uint64
	foodEaten  int
}

// New creates a stopped game. Initial food outside the board is dropped.
func New(id string, opts Options) *Game {
	size := opts.BoardSize
	if size <= 0 {
		size = grid.DefaultSize
	}
	board := grid.NewBoard(size)

	items := opts.InitialFood
	if items == nil {
		items = food.InitialItems
	}
	initial := make([]grid.Cell, 0, len(items))
	for _, c := range items {
		if board.Contains(c) {
			initial = append(initial, c)
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Game{
		ID:          id,
		board:       board,
		snake:       snake.New(),
		food:        food.New(initial),
		initialFood: initial,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		status:      StatusStopped,
	}
}

// Status returns the current lifecycle state.
func (g *Game) Status() Status { return g.status }

// Score returns the running score; it is zero once the game stopped.
func (g *Game) Score() int { return g.score }

// LastScore returns the score the most recent game ended with.
func (g *Game) LastScore() int { return g.lastScore }

// Tick returns the number of moves since the last fresh start.
func (g *Game) Tick() uint64 { return g.tick }

// Board returns the board dimensions.
func (g *Game) Board() grid.Board { return g.board }

// Start begins a new game when stopped, or resumes a paused one.
// It reports whether the game was resumed rather than freshly started.
func (g *Game) Start() (resumed bool, err error) {
	switch g.status {
	case StatusStarted:
		return false, ErrAlreadyStarted
	case StatusPaused:
		g.status = StatusStarted
		return true, nil
	}

	g.snake.Reset()
	g.food.Reset(g.initialFood)
	g.score = 0
	g.tick = 0
	g.foodEaten = 0
	g.stopReason = ""
	g.status = StatusStarted
	return false, nil
}

// Pause freezes a started game.
func (g *Game) Pause() error {
	if g.status != StatusStarted {
		return fmt.Errorf("pause: %w", ErrNotRunning)
	}
	g.status = StatusPaused
	return nil
}

// Stop ends the game, keeping the final score in LastScore.
func (g *Game) Stop(reason string) error {
	if g.status == StatusStopped {
		return fmt.Errorf("stop: %w", ErrNotRunning)
	}
	g.status = StatusStopped
	g.stopReason = reason
	g.lastScore = g.score
	g.score = 0
	return nil
}

// ChangeDirection forwards a turn request to the snake.
// Reversals of the current heading are ignored and reported as false.
func (g *Game) ChangeDirection(d snake.Direction) bool {
	return g.snake.SetDirection(d)
}

// StepResult describes what happened during one tick.
type StepResult struct {
	Tick     uint64     `json:"tick"`
	Head     grid.Cell  `json:"head"`
	Ate      bool       `json:"ate"`
	Spawned  *grid.Cell `json:"spawned,omitempty"`
	Collided bool       `json:"collided"`
	Score    int        `json:"score"`
	Length   int        `json:"length"`
	SpawnErr error      `json:"-"`
}

// Step advances the snake by one cell.
func (g *Game) Step() (StepResult, error) {
	if g.status != StatusStarted {
		return StepResult{}, fmt.Errorf("step: %w", ErrNotRunning)
	}

	next := g.snake.NextPosition(g.board)

	if g.snake.Occupies(next) {
		score := g.score
		_ = g.Stop(StopReasonSelfCollision)
		return StepResult{
			Tick:     g.tick,
			Head:     next,
			Collided: true,
			Score:    score,
			Length:   g.snake.Len(),
		}, nil
	}

	g.tick++
	res := StepResult{Tick: g.tick, Head: next}

	if i := g.food.Find(next); i != -1 {
		g.snake.Advance(next, true)
		g.food.Remove(i)
		g.score++
		g.foodEaten++
		res.Ate = true

		item, err := g.food.Spawn(g.rng, g.board, g.snake.Occupies)
		if err != nil {
			res.SpawnErr = err
		} else {
			res.Spawned = &item
		}
	} else {
		g.snake.Advance(next, false)
	}

	res.Score = g.score
	res.Length = g.snake.Len()
	return res, nil
}
