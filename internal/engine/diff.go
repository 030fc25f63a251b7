package engine

import (
	"slices"

	"github.com/roach88/autotile/internal/ir"
)

// ComputeDiff compares old and new at the given cells and returns the
// changed ones in row-major order.
func ComputeDiff(old, next ir.SolveResult, cells []ir.Coord) ir.Diff {
	var diff ir.Diff
	for _, c := range ir.NewRegion(cells) {
		before, hadBefore := old[c]
		after, hasAfter := next[c]
		switch {
		case !hadBefore && !hasAfter:
			continue
		case !hadBefore:
			diff = append(diff, ir.CellChange{Coord: c, Kind: ir.ChangeAdded, After: slices.Clone(after)})
		case !hasAfter:
			diff = append(diff, ir.CellChange{Coord: c, Kind: ir.ChangeRemoved, Before: slices.Clone(before)})
		case !slices.Equal(before, after):
			diff = append(diff, ir.CellChange{
				Coord:  c,
				Kind:   ir.ChangeModified,
				Before: slices.Clone(before),
				After:  slices.Clone(after),
			})
		}
	}
	return diff
}

// ApplyDiff patches res in place with diff.
func ApplyDiff(res ir.SolveResult, diff ir.Diff) {
	for _, ch := range diff {
		if ch.Kind == ir.ChangeRemoved {
			delete(res, ch.Coord)
			continue
		}
		res[ch.Coord] = slices.Clone(ch.After)
	}
}

// FullDiff returns the diff that turns old into next, over every cell
// either one holds.
func FullDiff(old, next ir.SolveResult) ir.Diff {
	cells := make([]ir.Coord, 0, len(old)+len(next))
	for c := range old {
		cells = append(cells, c)
	}
	for c := range next {
		cells = append(cells, c)
	}
	return ComputeDiff(old, next, cells)
}
