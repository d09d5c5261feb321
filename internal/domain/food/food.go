// Package food manages the food items placed on the board.
// This package is PURE and must NOT import any infrastructure packages.
package food

import (
	"errors"
	"math/rand/v2"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
)

// ErrNoFreeCell is returned when every cell is taken by the snake or food.
var ErrNoFreeCell = errors.New("no free cell left for food")

// InitialItems is the food present when a game starts.
var InitialItems = []grid.Cell{{Top: 5, Left: 5}}

// Food is the small set of cells holding food.
type Food struct {
	Items []grid.Cell `json:"items"`
}

// New creates a food set holding copies of the given items.
func New(items []grid.Cell) *Food {
	return &Food{Items: append([]grid.Cell(nil), items...)}
}

// Find returns the index of the item on c, or -1.
func (f *Food) Find(c grid.Cell) int {
	for i, item := range f.Items {
		if item == c {
			return i
		}
	}
	return -1
}

// Remove deletes the item at index i, keeping the order of the rest.
func (f *Food) Remove(i int) {
	if i < 0 || i >= len(f.Items) {
		return
	}
	f.Items = append(f.Items[:i], f.Items[i+1:]...)
}

// Reset replaces all items.
func (f *Food) Reset(items []grid.Cell) {
	f.Items = append(f.Items[:0], items...)
}

// Spawn places one new item on a uniformly chosen free cell. A cell is free
// when occupied reports false for it and it holds no food yet.
func (f *Food) Spawn(rng *rand.Rand, b grid.Board, occupied func(grid.Cell) bool) (grid.Cell, error) {
	free := make([]grid.Cell, 0, b.Area())
	for _, c := range b.Cells() {
		if occupied(c) || f.Find(c) != -1 {
			continue
		}
		free = append(free, c)
	}
	if len(free) == 0 {
		return grid.Cell{}, ErrNoFreeCell
	}

	item := free[rng.IntN(len(free))]
	f.Items = append(f.Items, item)
	return item, nil
}

// Clone returns a deep copy.
func (f *Food) Clone() *Food {
	return New(f.Items)
}
