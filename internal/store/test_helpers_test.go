package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testLayer returns a small valid layer with a rule using every field the
// JSON round trip must preserve.
func testLayer() *ir.AutoLayer {
	return &ir.AutoLayer{
		Name: "terrain",
		Seed: 1<<63 + 5,
		Groups: []ir.RuleGroup{{
			Name:   "walls",
			Active: true,
			Rules: []ir.Rule{{
				ID:       "wall",
				Priority: 2,
				Pattern: ir.Pattern{Size: 3, Cells: []ir.CellMatcher{
					ir.Any(), ir.Exact(1), ir.Any(),
					ir.Not(2), ir.OneOf(1, 3), ir.NoneOf(4),
					ir.Empty(), ir.Any(), ir.Any(),
				}},
				Stamps:        []ir.Stamp{ir.SingleTile(10), {Width: 2, Height: 1, Tiles: []int{11, ir.NoTile}, Weight: 3}},
				Weight:        1,
				AllowRotation: true,
				SourceValues:  []int{1},
			}},
		}},
	}
}

// testGrid returns a 3x2 grid:
//
//	1 0 2
//	0 3 0
func testGrid(t *testing.T) *level.IntGrid {
	t.Helper()
	g, err := level.FromRows([][]int{{1, 0, 2}, {0, 3, 0}})
	if err != nil {
		t.Fatalf("FromRows() failed: %v", err)
	}
	return g
}

func testResult() ir.SolveResult {
	return ir.SolveResult{
		{X: 0, Y: 0}: {{Tile: 10}},
		{X: 2, Y: 0}: {{Tile: 11, Variant: ir.Rot90}, {Tile: 12}},
		{X: 1, Y: 1}: {{Tile: 13, Variant: ir.AntiTranspose}},
	}
}

// createTestRun records testLayer on testGrid under the given id.
func createTestRun(t *testing.T, s *Store, id string) *Run {
	t.Helper()
	run := &Run{ID: id, Level: "cave", Edge: ir.EdgePolicy{Kind: ir.EdgeValue, Fill: 4}, Seed: 1<<63 + 5}
	if err := s.CreateRun(t.Context(), run, testLayer(), testGrid(t), testResult()); err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	return run
}
