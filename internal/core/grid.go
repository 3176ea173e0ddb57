package core

import "fmt"

// Grid is the canonical in-memory canvas: a fixed size×size matrix where every
// cell always holds a valid "#RRGGBB" color string.
//
// The grid has no internal locking. All mutations must come from the single
// hub goroutine; Snapshot returns a deep copy so callers never observe a
// partially applied mutation.
type Grid struct {
	size  int
	cells [][]string
}

// NewGrid builds a grid with every cell set to defaultColor.
func NewGrid(size int, defaultColor string) *Grid {
	cells := make([][]string, size)
	for y := range cells {
		cells[y] = make([]string, size)
		for x := range cells[y] {
			cells[y][x] = defaultColor
		}
	}
	return &Grid{size: size, cells: cells}
}

// GridFromCells builds a grid from persisted rows. The rows must form a square
// matrix of valid color strings; dimensions are fixed for the process lifetime.
func GridFromCells(cells [][]string) (*Grid, error) {
	size := len(cells)
	if size == 0 {
		return nil, fmt.Errorf("empty grid")
	}
	g := NewGrid(size, "")
	for y, row := range cells {
		if len(row) != size {
			return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(row), size)
		}
		for x, color := range row {
			if !IsValidColor(color) {
				return nil, fmt.Errorf("cell (%d,%d) holds invalid color %q", x, y, color)
			}
			g.cells[y][x] = color
		}
	}
	return g, nil
}

// Size returns the grid dimension.
func (g *Grid) Size() int {
	return g.size
}

// Snapshot returns a deep copy of the grid rows.
func (g *Grid) Snapshot() [][]string {
	out := make([][]string, g.size)
	for y, row := range g.cells {
		out[y] = make([]string, g.size)
		copy(out[y], row)
	}
	return out
}

// Apply sets one cell and returns its previous color. Out-of-range coordinates
// are rejected before any mutation.
func (g *Grid) Apply(x, y int, color string) (string, error) {
	if x < 0 || x >= g.size || y < 0 || y >= g.size {
		return "", fmt.Errorf("coordinates (%d,%d) outside grid of size %d", x, y, g.size)
	}
	prev := g.cells[y][x]
	g.cells[y][x] = color
	return prev, nil
}
