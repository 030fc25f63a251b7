package engine

import (
	"math"
	"strings"

	"github.com/roach88/autotile/internal/ir"
)

// testGrid is a minimal mutable IntGrid for engine tests.
type testGrid struct {
	w, h  int
	cells []int
}

func newTestGrid(w, h int) *testGrid {
	return &testGrid{w: w, h: h, cells: make([]int, w*h)}
}

// gridOf builds a grid from rows of single-digit values.
func gridOf(rows ...string) *testGrid {
	g := newTestGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, ch := range row {
			g.Set(x, y, int(ch-'0'))
		}
	}
	return g
}

func (g *testGrid) Width() int       { return g.w }
func (g *testGrid) Height() int      { return g.h }
func (g *testGrid) Get(x, y int) int { return g.cells[y*g.w+x] }
func (g *testGrid) Set(x, y, v int)  { g.cells[y*g.w+x] = v }

// pat builds a square pattern from matcher notation, row-major.
func pat(cells ...string) ir.Pattern {
	size := int(math.Sqrt(float64(len(cells))))
	p := ir.Pattern{Size: size, Cells: make([]ir.CellMatcher, len(cells))}
	for i, c := range cells {
		m, err := ir.ParseCellMatcher(c)
		if err != nil {
			panic(err)
		}
		p.Cells[i] = m
	}
	return p
}

// anyPat returns an all-Any pattern of the given size.
func anyPat(size int) ir.Pattern {
	return pat(strings.Split(strings.Repeat("*", size*size), "")...)
}

func rule(id string, priority int, p ir.Pattern, tile int) ir.Rule {
	return ir.Rule{
		ID:       id,
		Priority: priority,
		Pattern:  p,
		Stamps:   []ir.Stamp{ir.SingleTile(tile)},
		Weight:   1,
	}
}

func group(name string, rules ...ir.Rule) ir.RuleGroup {
	return ir.RuleGroup{Name: name, Active: true, Rules: rules}
}

func layer(groups ...ir.RuleGroup) *ir.AutoLayer {
	return &ir.AutoLayer{Name: "test", Groups: groups}
}

var edgeEmpty = ir.EdgePolicy{Kind: ir.EdgeEmpty}

func tiles(ts ...int) []ir.TileRef {
	out := make([]ir.TileRef, len(ts))
	for i, t := range ts {
		out[i] = ir.TileRef{Tile: t}
	}
	return out
}

// constRand always returns the same value.
type constRand uint64

func (r constRand) Uint64() uint64 { return uint64(r) }
