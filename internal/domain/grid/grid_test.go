package grid

import "testing"

func TestWrap(t *testing.T) {
	b := NewBoard(20)

	cases := []struct {
		in, want Cell
	}{
		{Cell{Top: -1, Left: 0}, Cell{Top: 19, Left: 0}},
		{Cell{Top: 20, Left: 5}, Cell{Top: 0, Left: 5}},
		{Cell{Top: 3, Left: -1}, Cell{Top: 3, Left: 19}},
		{Cell{Top: 3, Left: 20}, Cell{Top: 3, Left: 0}},
		{Cell{Top: 7, Left: 8}, Cell{Top: 7, Left: 8}},
	}

	for _, tc := range cases {
		if got := b.Wrap(tc.in); got != tc.want {
			t.Errorf("Wrap(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestContains(t *testing.T) {
	b := NewBoard(5)
	if !b.Contains(Cell{Top: 4, Left: 4}) {
		t.Errorf("Expected (4,4) inside a 5x5 board")
	}
	if b.Contains(Cell{Top: 5, Left: 0}) || b.Contains(Cell{Top: 0, Left: -1}) {
		t.Errorf("Expected out-of-range cells to be outside the board")
	}
}

func TestRowMajorEnumeration(t *testing.T) {
	b := NewBoard(4)
	cells := b.Cells()

	if len(cells) != 16 {
		t.Fatalf("Expected 16 cells, got %d", len(cells))
	}
	for i, c := range cells {
		if c.Top != i/4 || c.Left != i%4 {
			t.Errorf("Cell %d = %v, want (%d,%d)", i, c, i/4, i%4)
		}
		if b.Index(c) != i {
			t.Errorf("Index(%v) = %d, want %d", c, b.Index(c), i)
		}
	}
}
