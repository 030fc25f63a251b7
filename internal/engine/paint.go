package engine

import (
	"cmp"
	"slices"

	"github.com/roach88/autotile/internal/ir"
)

// sortFires orders fires for painting: group, priority, anchor row-major,
// declaration index.
func sortFires(fires []Fire) {
	slices.SortFunc(fires, func(a, b Fire) int {
		return cmp.Or(
			cmp.Compare(a.Group, b.Group),
			cmp.Compare(a.Priority, b.Priority),
			a.Anchor.Compare(b.Anchor),
			cmp.Compare(a.Rule, b.Rule),
		)
	})
}

// paint writes fires into a fresh result.
//
// When keep is non-nil only cells it accepts are written or finalized.
// Each cell's content depends only on the ordered fires that target it, so
// painting a filtered subset produces the same cells as a full paint.
func paint(g ir.Grid, fires []Fire, keep func(ir.Coord) bool) ir.SolveResult {
	ordered := slices.Clone(fires)
	sortFires(ordered)

	res := make(ir.SolveResult)
	finalized := make(map[ir.Coord]bool)

	for _, f := range ordered {
		r := f.rule
		st := r.Stamps[f.Stamp]

		v := f.Variant
		if r.OrientationInvariant {
			v = ir.Identity
		}

		for j := 0; j < st.Height; j++ {
			for i := 0; i < st.Width; i++ {
				tile := st.Tiles[j*st.Width+i]
				if tile == ir.NoTile {
					continue
				}
				dx, dy := v.Apply(i-st.OriginX, j-st.OriginY)
				t := f.Anchor.Add(dx, dy)
				if !ir.InBounds(g, t) || (keep != nil && !keep(t)) {
					continue
				}
				if finalized[t] {
					continue
				}
				if g.Get(t.X, t.Y) == 0 && !r.TargetsEmpty {
					continue
				}

				ref := ir.TileRef{Tile: tile, Variant: v}
				if r.Additive {
					res[t] = append(res[t], ref)
				} else {
					res[t] = []ir.TileRef{ref}
				}
				if r.BreakOnMatch {
					finalized[t] = true
				}
			}
		}

		if r.BreakOnMatch && (keep == nil || keep(f.Anchor)) {
			finalized[f.Anchor] = true
		}
	}
	return res
}
