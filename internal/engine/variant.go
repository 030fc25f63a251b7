package engine

import "github.com/roach88/autotile/internal/ir"

// probe is one constrained pattern cell, already moved into a variant's
// sampling geometry.
type probe struct {
	dx, dy  int
	matcher ir.CellMatcher
}

// variantProbes is the precomputed sampling plan of one symmetry variant.
type variantProbes struct {
	variant ir.Variant
	probes  []probe
}

// enabledVariants returns the variants generated by the rule's symmetry
// flags, in the fixed try order.
func enabledVariants(r *ir.Rule) []ir.Variant {
	switch {
	case r.AllowRotation && (r.AllowMirrorX || r.AllowMirrorY):
		return []ir.Variant{
			ir.Identity, ir.Rot90, ir.Rot180, ir.Rot270,
			ir.MirrorX, ir.MirrorY, ir.Transpose, ir.AntiTranspose,
		}
	case r.AllowRotation:
		return []ir.Variant{ir.Identity, ir.Rot90, ir.Rot180, ir.Rot270}
	case r.AllowMirrorX && r.AllowMirrorY:
		return []ir.Variant{ir.Identity, ir.Rot180, ir.MirrorX, ir.MirrorY}
	case r.AllowMirrorX:
		return []ir.Variant{ir.Identity, ir.MirrorX}
	case r.AllowMirrorY:
		return []ir.Variant{ir.Identity, ir.MirrorY}
	default:
		return []ir.Variant{ir.Identity}
	}
}

// compileVariants builds the sampling plan of every distinct enabled variant.
// Variants whose transformed pattern is identical to an earlier one are
// dropped, so a symmetric pattern is only ever tried (and weighted) once.
func compileVariants(r *ir.Rule) []variantProbes {
	p := r.Pattern
	radius := p.Radius()

	var layouts [][]ir.CellMatcher
	var out []variantProbes

	for _, v := range enabledVariants(r) {
		layout := make([]ir.CellMatcher, len(p.Cells))
		var probes []probe
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				m := p.At(dx, dy)
				tx, ty := v.Apply(dx, dy)
				layout[(ty+radius)*p.Size+(tx+radius)] = m
				if !m.IsAny() {
					probes = append(probes, probe{dx: tx, dy: ty, matcher: m})
				}
			}
		}
		if containsLayout(layouts, layout) {
			continue
		}
		layouts = append(layouts, layout)
		out = append(out, variantProbes{variant: v, probes: probes})
	}
	return out
}

func containsLayout(layouts [][]ir.CellMatcher, layout []ir.CellMatcher) bool {
	for _, l := range layouts {
		same := true
		for i := range l {
			if !l[i].Equal(layout[i]) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

// Variants returns the distinct variants the solver will try for r, in order.
func Variants(r *ir.Rule) []ir.Variant {
	plans := compileVariants(r)
	out := make([]ir.Variant, len(plans))
	for i, vp := range plans {
		out[i] = vp.variant
	}
	return out
}
