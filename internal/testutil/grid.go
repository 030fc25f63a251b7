package testutil

import (
	"math/rand/v2"

	"github.com/roach88/autotile/internal/level"
)

// RandomGrid fills a w x h grid with values drawn uniformly from
// [0, maxValue]. The same rng state always yields the same grid.
func RandomGrid(rng *rand.Rand, w, h, maxValue int) *level.IntGrid {
	g := level.NewIntGrid(w, h)
	for y := range h {
		for x := range w {
			// in bounds and non-negative by construction
			_ = g.Set(x, y, rng.IntN(maxValue+1))
		}
	}
	return g
}

// RandomEdits returns a batch of 1 to maxBatch in-bounds edits with
// values in [0, maxValue]. Batches may touch the same cell twice; the
// later edit wins.
func RandomEdits(rng *rand.Rand, w, h, maxBatch, maxValue int) []level.Edit {
	n := 1 + rng.IntN(maxBatch)
	edits := make([]level.Edit, n)
	for i := range edits {
		edits[i] = level.Edit{X: rng.IntN(w), Y: rng.IntN(h), Value: rng.IntN(maxValue + 1)}
	}
	return edits
}
