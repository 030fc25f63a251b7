package engine

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/roach88/autotile/internal/ir"
)

// Scheduler keeps a solved layer current while its grid is edited.
//
// Callers mutate the grid, report the edited cells with MarkDirty, and call
// Flush to obtain the minimal diff. After every Flush, Result equals a full
// solve of the current grid.
//
// Not safe for concurrent use.
type Scheduler struct {
	solver *Solver
	grid   ir.Grid

	dirty  mapset.Set[ir.Coord]
	fires  map[ir.Coord][]Fire // cached decisions, anchors without fires absent
	result ir.SolveResult
	seq    uint64 // completed flushes
}

// NewScheduler performs a full solve of grid and starts tracking edits.
func NewScheduler(solver *Solver, grid ir.Grid) *Scheduler {
	s := &Scheduler{solver: solver, grid: grid}
	s.Reset()
	return s
}

// Reset discards dirty marks and re-solves the whole grid.
func (s *Scheduler) Reset() {
	s.dirty = mapset.New[ir.Coord]()
	s.fires = make(map[ir.Coord][]Fire)

	smp := s.solver.Sampler(s.grid)
	var all []Fire
	for _, a := range ir.FullRegion(s.grid.Width(), s.grid.Height()) {
		if f := s.solver.Decide(smp, a); len(f) > 0 {
			s.fires[a] = f
			all = append(all, f...)
		}
	}
	s.result = paint(s.grid, all, nil)

	s.solver.logger.Debug().
		Int("anchors", len(s.fires)).
		Int("cells", len(s.result)).
		Msg("scheduler reset")
}

// MarkDirty records edited cells. Out-of-bounds coordinates are ignored.
func (s *Scheduler) MarkDirty(coords ...ir.Coord) {
	for _, c := range coords {
		if ir.InBounds(s.grid, c) {
			s.dirty.Put(c)
		}
	}
}

// Dirty returns the number of cells marked since the last flush.
func (s *Scheduler) Dirty() int {
	return s.dirty.Size()
}

// PendingRegion returns every anchor whose decision could change: the
// in-bounds cells within the solver's radius of a dirty cell.
func (s *Scheduler) PendingRegion() ir.Region {
	var cells []ir.Coord
	s.dirty.Each(func(c ir.Coord) {
		cells = append(cells, c)
	})
	return expand(s.grid, cells, s.solver.Radius())
}

// Flush re-solves the pending region and returns the cells whose tiles
// changed. Flushing with no dirty cells returns an empty diff.
func (s *Scheduler) Flush() ir.Diff {
	s.seq++
	if s.dirty.Size() == 0 {
		return nil
	}

	region := s.PendingRegion()
	smp := s.solver.Sampler(s.grid)
	for _, a := range region {
		if f := s.solver.Decide(smp, a); len(f) > 0 {
			s.fires[a] = f
		} else {
			delete(s.fires, a)
		}
	}

	// A re-decided anchor can change any cell its stamps reach; those cells
	// can also receive stamps from anchors up to reach further away.
	reach := s.solver.Reach()
	repaint := expand(s.grid, region, reach)
	keep := make(map[ir.Coord]bool, len(repaint))
	for _, c := range repaint {
		keep[c] = true
	}
	var fires []Fire
	for _, a := range expand(s.grid, region, 2*reach) {
		fires = append(fires, s.fires[a]...)
	}
	patch := paint(s.grid, fires, func(c ir.Coord) bool { return keep[c] })

	diff := ComputeDiff(s.result, patch, repaint)
	ApplyDiff(s.result, diff)

	s.solver.logger.Debug().
		Uint64("seq", s.seq).
		Int("dirty", s.dirty.Size()).
		Int("region", len(region)).
		Int("repaint", len(repaint)).
		Int("changes", len(diff)).
		Msg("flush")

	s.dirty = mapset.New[ir.Coord]()
	return diff
}

// Result returns a copy of the current solved layer.
func (s *Scheduler) Result() ir.SolveResult {
	return s.result.Clone()
}

// Seq returns the number of flushes performed.
func (s *Scheduler) Seq() uint64 {
	return s.seq
}

// Solver returns the solver driving this scheduler.
func (s *Scheduler) Solver() *Solver {
	return s.solver
}

// expand returns the in-bounds cells within Chebyshev distance r of any
// cell in cells, in row-major order.
func expand(g ir.Grid, cells []ir.Coord, r int) ir.Region {
	seen := make(map[ir.Coord]bool, len(cells)*(2*r+1)*(2*r+1))
	var out []ir.Coord
	for _, c := range cells {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				n := c.Add(dx, dy)
				if !ir.InBounds(g, n) || seen[n] {
					continue
				}
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return ir.NewRegion(out)
}
