package engine

import "github.com/roach88/autotile/internal/ir"

// Sampler reads grid values at arbitrary coordinates under a fixed edge policy.
type Sampler struct {
	grid   ir.Grid
	policy ir.EdgePolicy
	width  int
	height int
}

// NewSampler binds a grid snapshot to an edge policy for one solve pass.
func NewSampler(g ir.Grid, policy ir.EdgePolicy) Sampler {
	return Sampler{grid: g, policy: policy, width: g.Width(), height: g.Height()}
}

// Sample returns the value at c. Out-of-bounds coordinates are answered by
// the edge policy.
func (s Sampler) Sample(c ir.Coord) int {
	if c.X >= 0 && c.Y >= 0 && c.X < s.width && c.Y < s.height {
		return s.grid.Get(c.X, c.Y)
	}
	switch s.policy.Kind {
	case ir.EdgeValue:
		return s.policy.Fill
	case ir.EdgeClamp:
		if s.width == 0 || s.height == 0 {
			return 0
		}
		return s.grid.Get(clamp(c.X, s.width-1), clamp(c.Y, s.height-1))
	default:
		return 0
	}
}

func clamp(v, hi int) int {
	return min(max(v, 0), hi)
}
