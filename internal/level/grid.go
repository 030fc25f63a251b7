package level

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned by Set for coordinates outside the grid.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrNegativeValue is returned by Set for values below 0.
	ErrNegativeValue = errors.New("cell values are non-negative")
)

// IntGrid is a dense, row-major integer grid. 0 marks an empty cell.
// It implements ir.Grid.
type IntGrid struct {
	width  int
	height int
	cells  []int
}

// NewIntGrid returns an all-empty width x height grid.
func NewIntGrid(width, height int) *IntGrid {
	width, height = max(width, 0), max(height, 0)
	return &IntGrid{width: width, height: height, cells: make([]int, width*height)}
}

// FromRows builds a grid from rows of equal length.
func FromRows(rows [][]int) (*IntGrid, error) {
	if len(rows) == 0 {
		return NewIntGrid(0, 0), nil
	}
	g := NewIntGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.width {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", y, len(row), g.width)
		}
		for x, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("cell (%d,%d): %w, got %d", x, y, ErrNegativeValue, v)
			}
			g.cells[y*g.width+x] = v
		}
	}
	return g, nil
}

func (g *IntGrid) Width() int  { return g.width }
func (g *IntGrid) Height() int { return g.height }

// Get returns the value at (x, y). Out-of-bounds reads return 0.
func (g *IntGrid) Get(x, y int) int {
	if !g.inBounds(x, y) {
		return 0
	}
	return g.cells[y*g.width+x]
}

// Set stores v at (x, y).
func (g *IntGrid) Set(x, y, v int) error {
	if !g.inBounds(x, y) {
		return fmt.Errorf("set (%d,%d) on %dx%d grid: %w", x, y, g.width, g.height, ErrOutOfBounds)
	}
	if v < 0 {
		return fmt.Errorf("set (%d,%d) to %d: %w", x, y, v, ErrNegativeValue)
	}
	g.cells[y*g.width+x] = v
	return nil
}

// Clone returns an independent copy.
func (g *IntGrid) Clone() *IntGrid {
	out := &IntGrid{width: g.width, height: g.height, cells: make([]int, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// Rows returns the grid as a fresh slice of rows.
func (g *IntGrid) Rows() [][]int {
	rows := make([][]int, g.height)
	for y := range rows {
		rows[y] = make([]int, g.width)
		copy(rows[y], g.cells[y*g.width:(y+1)*g.width])
	}
	return rows
}

// NonEmpty counts the cells holding a value other than 0.
func (g *IntGrid) NonEmpty() int {
	n := 0
	for _, v := range g.cells {
		if v != 0 {
			n++
		}
	}
	return n
}

func (g *IntGrid) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}
