package engine

import "github.com/roach88/autotile/internal/ir"

// Matches tests pattern p at anchor under variant v.
//
// The transform moves the sampling position; the matcher tested is the one
// at the untransformed pattern cell. An all-Any pattern always matches.
//
// The solver runs precomputed plans instead (see matchPlan); Matches is the
// per-variant reference those plans are tested against.
func Matches(p ir.Pattern, s Sampler, anchor ir.Coord, v ir.Variant) bool {
	radius := p.Radius()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			m := p.At(dx, dy)
			if m.IsAny() {
				continue
			}
			tx, ty := v.Apply(dx, dy)
			if !m.Test(s.Sample(anchor.Add(tx, ty))) {
				return false
			}
		}
	}
	return true
}

// matchPlan runs a precomputed variant plan at anchor.
func matchPlan(vp *variantProbes, s Sampler, anchor ir.Coord) bool {
	for _, pr := range vp.probes {
		if !pr.matcher.Test(s.Sample(anchor.Add(pr.dx, pr.dy))) {
			return false
		}
	}
	return true
}

// match returns the first variant of the rule that matches at anchor.
func (cr *compiledRule) match(s Sampler, anchor ir.Coord) (ir.Variant, bool) {
	for i := range cr.variants {
		if matchPlan(&cr.variants[i], s, anchor) {
			return cr.variants[i].variant, true
		}
	}
	return ir.Identity, false
}

// accepts reports whether the anchor's own value makes the rule eligible.
func (cr *compiledRule) accepts(anchorValue int) bool {
	if anchorValue == 0 && !cr.rule.TargetsEmpty {
		return false
	}
	if len(cr.rule.SourceValues) == 0 {
		return true
	}
	for _, v := range cr.rule.SourceValues {
		if v == anchorValue {
			return true
		}
	}
	return false
}
