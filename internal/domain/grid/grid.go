// Package grid defines the square board the snake moves on.
// This package is PURE and must NOT import any infrastructure packages.
package grid

import "fmt"

// DefaultSize is the side length of the board when none is configured.
const DefaultSize = 20

// Cell is a (row, column) coordinate on the board.
type Cell struct {
	Top  int `json:"top"`
	Left int `json:"left"`
}

// String renders the cell as "(top,left)".
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Top, c.Left)
}

// Add returns the cell shifted by the given row and column offsets.
// The result is not wrapped.
func (c Cell) Add(dTop, dLeft int) Cell {
	return Cell{Top: c.Top + dTop, Left: c.Left + dLeft}
}

// Board is a fixed N×N grid.
type Board struct {
	Size int `json:"size"`
}

// NewBoard creates a board with the given side length.
func NewBoard(size int) Board {
	return Board{Size: size}
}

// Contains reports whether the cell lies inside the board.
func (b Board) Contains(c Cell) bool {
	return c.Top >= 0 && c.Top < b.Size && c.Left >= 0 && c.Left < b.Size
}

// Wrap folds coordinates that left the board back in from the opposite edge.
func (b Board) Wrap(c Cell) Cell {
	return Cell{Top: wrap(c.Top, b.Size), Left: wrap(c.Left, b.Size)}
}

func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}

// Area returns the number of cells on the board.
func (b Board) Area() int {
	return b.Size * b.Size
}

// CellAt maps a row-major index to its cell.
func (b Board) CellAt(i int) Cell {
	return Cell{Top: i / b.Size, Left: i % b.Size}
}

// Index maps a cell to its row-major index.
func (b Board) Index(c Cell) int {
	return c.Top*b.Size + c.Left
}

// Cells lists every cell in row-major order.
func (b Board) Cells() []Cell {
	cells := make([]Cell, 0, b.Area())
	for i := 0; i < b.Area(); i++ {
		cells = append(cells, b.CellAt(i))
	}
	return cells
}
