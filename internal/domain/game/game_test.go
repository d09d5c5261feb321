package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/food"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
)

func newTestGame(t *testing.T, foodItems ...grid.Cell) *Game {
	t.Helper()
	g := New("G1", Options{BoardSize: 20, InitialFood: foodItems, Seed: 42})
	if _, err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return g
}

func TestNewGameIsStoppedWithDefaultFood(t *testing.T) {
	g := New("G1", Options{})

	if g.Status() != StatusStopped {
		t.Errorf("Expected a new game to be stopped, got %s", g.Status())
	}
	snap := g.Snapshot()
	if snap.BoardSize != grid.DefaultSize {
		t.Errorf("Expected board size %d, got %d", grid.DefaultSize, snap.BoardSize)
	}
	if len(snap.Food) != 1 || snap.Food[0] != (grid.Cell{Top: 5, Left: 5}) {
		t.Errorf("Expected default food at (5,5), got %v", snap.Food)
	}
}

func TestStepMovesRight(t *testing.T) {
	g := newTestGame(t, grid.Cell{Top: 10, Left: 10})

	res, err := g.Step()
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if res.Head != (grid.Cell{Top: 0, Left: 3}) {
		t.Errorf("Expected head at (0,3), got %v", res.Head)
	}
	if res.Ate || res.Collided {
		t.Errorf("Plain move reported ate=%t collided=%t", res.Ate, res.Collided)
	}
	if res.Length != 3 {
		t.Errorf("Expected length 3, got %d", res.Length)
	}
}

func TestStepEatsFoodAndSpawnsAnother(t *testing.T) {
	g := newTestGame(t, grid.Cell{Top: 0, Left: 3})

	res, err := g.Step()
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if !res.Ate {
		t.Fatalf("Expected the snake to eat at (0,3)")
	}
	if g.Score() != 1 || res.Score != 1 {
		t.Errorf("Expected score 1, got %d", g.Score())
	}
	if res.Length != 4 {
		t.Errorf("Expected the snake to grow to 4, got %d", res.Length)
	}
	if res.Spawned == nil {
		t.Fatalf("Expected a new food item")
	}
	if g.snake.Occupies(*res.Spawned) {
		t.Errorf("New food spawned on the snake at %v", *res.Spawned)
	}

	snap := g.Snapshot()
	if len(snap.Food) != 1 || snap.Food[0] != *res.Spawned {
		t.Errorf("Expected only the new food item, got %v", snap.Food)
	}
}

func TestSelfCollisionStopsGame(t *testing.T) {
	g := newTestGame(t, grid.Cell{Top: 10, Left: 10})

	// A hook shape whose next move (right) lands on its own body.
	g.snake.Parts = []grid.Cell{
		{Top: 2, Left: 2},
		{Top: 2, Left: 3},
		{Top: 1, Left: 3},
		{Top: 1, Left: 2},
		{Top: 1, Left: 1},
		{Top: 2, Left: 1},
	}
	g.snake.Direction = snake.DirectionRight
	g.score = 4

	before := append([]grid.Cell(nil), g.snake.Parts...)

	res, err := g.Step()
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !res.Collided {
		t.Fatalf("Expected a self collision at (2,2)")
	}
	if g.Status() != StatusStopped {
		t.Errorf("Expected the game to stop, got %s", g.Status())
	}
	if g.LastScore() != 4 || g.Score() != 0 {
		t.Errorf("Expected last score 4 and score reset, got %d/%d", g.LastScore(), g.Score())
	}
	if g.Snapshot().StopReason != StopReasonSelfCollision {
		t.Errorf("Expected stop reason %q", StopReasonSelfCollision)
	}
	for i, c := range g.snake.Parts {
		if c != before[i] {
			t.Errorf("Snake mutated on the collision tick: %v", g.snake.Parts)
			break
		}
	}
}

func TestMovingIntoTailCollides(t *testing.T) {
	g := newTestGame(t, grid.Cell{Top: 10, Left: 10})

	// A 2x2 loop: the head's next cell is the current tail.
	g.snake.Parts = []grid.Cell{
		{Top: 1, Left: 1},
		{Top: 1, Left: 2},
		{Top: 0, Left: 2},
		{Top: 0, Left: 1},
	}
	g.snake.Direction = snake.DirectionDown

	res, _ := g.Step()
	if !res.Collided {
		t.Errorf("Expected moving onto the tail to count as a collision")
	}
}

func TestWrapAroundMovement(t *testing.T) {
	g := newTestGame(t, grid.Cell{Top: 10, Left: 10})

	for i := 0; i < 17; i++ {
		if _, err := g.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}
	if head := g.Snapshot().Head(); head != (grid.Cell{Top: 0, Left: 19}) {
		t.Fatalf("Expected head at (0,19), got %v", head)
	}

	res, _ := g.Step()
	if res.Head != (grid.Cell{Top: 0, Left: 0}) {
		t.Errorf("Expected the head to wrap to (0,0), got %v", res.Head)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	g := New("G1", Options{Seed: 1})

	if err := g.Pause(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Pausing a stopped game: expected ErrNotRunning, got %v", err)
	}
	if err := g.Stop(StopReasonPlayer); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stopping a stopped game: expected ErrNotRunning, got %v", err)
	}
	if _, err := g.Step(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stepping a stopped game: expected ErrNotRunning, got %v", err)
	}

	if resumed, err := g.Start(); err != nil || resumed {
		t.Fatalf("Fresh start: resumed=%t err=%v", resumed, err)
	}
	if _, err := g.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Double start: expected ErrAlreadyStarted, got %v", err)
	}

	g.Step()
	if err := g.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if _, err := g.Step(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stepping a paused game: expected ErrNotRunning, got %v", err)
	}

	if resumed, err := g.Start(); err != nil || !resumed {
		t.Fatalf("Resume: resumed=%t err=%v", resumed, err)
	}
	if g.Tick() != 1 {
		t.Errorf("Resume must keep progress, tick = %d", g.Tick())
	}

	if err := g.Stop(StopReasonPlayer); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if g.Status() != StatusStopped {
		t.Errorf("Expected stopped, got %s", g.Status())
	}
}

func TestStartAfterStopResetsBoard(t *testing.T) {
	g := newTestGame(t, grid.Cell{Top: 0, Left: 3})

	g.Step() // eats
	g.ChangeDirection(snake.DirectionDown)
	g.Stop(StopReasonPlayer)

	if _, err := g.Start(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}

	snap := g.Snapshot()
	if len(snap.Snake) != 3 || snap.Head() != (grid.Cell{Top: 0, Left: 2}) {
		t.Errorf("Expected the snake reset to its initial cells, got %v", snap.Snake)
	}
	if snap.Direction != snake.DirectionRight {
		t.Errorf("Expected direction reset to right, got %s", snap.Direction)
	}
	if len(snap.Food) != 1 || snap.Food[0] != (grid.Cell{Top: 0, Left: 3}) {
		t.Errorf("Expected initial food restored, got %v", snap.Food)
	}
	if snap.Score != 0 || snap.LastScore != 1 {
		t.Errorf("Expected score 0 and last score 1, got %d/%d", snap.Score, snap.LastScore)
	}
}

func TestInitialFoodOutsideBoardIsDropped(t *testing.T) {
	g := New("G1", Options{BoardSize: 4, InitialFood: []grid.Cell{{Top: 5, Left: 5}, {Top: 3, Left: 3}}})

	snap := g.Snapshot()
	if len(snap.Food) != 1 || snap.Food[0] != (grid.Cell{Top: 3, Left: 3}) {
		t.Errorf("Expected only (3,3) to survive, got %v", snap.Food)
	}
}

func TestRender(t *testing.T) {
	g := New("G1", Options{BoardSize: 4, InitialFood: []grid.Cell{{Top: 2, Left: 1}}})

	want := strings.Join([]string{"ssS-", "----", "-F--", "----", ""}, "\n")
	if got := g.Snapshot().Render(); got != want {
		t.Errorf("Render mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestStepEatingLastFreeCellKeepsPlaying(t *testing.T) {
	// Setup: a 4x4 board with food on every cell the snake does not cover
	var items []grid.Cell
	for top := 0; top < 4; top++ {
		for left := 0; left < 4; left++ {
			if top == 0 && left < 3 {
				continue
			}
			items = append(items, grid.Cell{Top: top, Left: left})
		}
	}
	g := New("G1", Options{BoardSize: 4, InitialFood: items, Seed: 1})
	if _, err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Act
	res, err := g.Step()

	// Assert
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !res.Ate || res.Spawned != nil {
		t.Errorf("Expected a meal with nothing spawned, got ate=%v spawned=%v", res.Ate, res.Spawned)
	}
	if !errors.Is(res.SpawnErr, food.ErrNoFreeCell) {
		t.Errorf("Expected ErrNoFreeCell, got %v", res.SpawnErr)
	}
	if g.Status() != StatusStarted || res.Score != 1 || res.Length != 4 {
		t.Errorf("Expected a running game at score 1 length 4, got %s %d %d", g.Status(), res.Score, res.Length)
	}
	if n := len(g.Snapshot().Food); n != 12 {
		t.Errorf("Expected 12 food items left, got %d", n)
	}
}
