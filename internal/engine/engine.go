package engine

import (
	"cmp"
	"slices"

	"github.com/rs/zerolog"

	"github.com/roach88/autotile/internal/ir"
)

// Solver resolves one Auto layer against IntGrids under a fixed edge policy.
//
// INVARIANTS:
//   - Group order and in-group declaration order never change after New
//   - Inactive groups are compiled out but keep their index for seeding
//   - Every compiled rule has an odd pattern, positive weights and at
//     least one stamp
type Solver struct {
	layer  *ir.AutoLayer
	policy ir.EdgePolicy
	groups []compiledGroup

	seed    uint64
	newRand RandFactory
	logger  zerolog.Logger

	radius int // max pattern radius over active rules
	reach  int // max stamp reach over active rules
}

type compiledRule struct {
	rule     *ir.Rule
	index    int // declaration index within the group
	variants []variantProbes
	stampW   []int
}

type compiledTier struct {
	priority int
	rules    []*compiledRule
}

type compiledGroup struct {
	index int // index in layer.Groups, inactive groups included
	name  string
	tiers []compiledTier
}

// Fire is one winning rule at one anchor, decided but not yet painted.
type Fire struct {
	Anchor   ir.Coord
	Group    int
	Priority int
	Rule     int
	RuleID   string
	Variant  ir.Variant
	Stamp    int

	rule *ir.Rule
}

// Option configures a Solver.
type Option func(*Solver)

// WithSeed overrides the layer's base seed.
func WithSeed(seed uint64) Option {
	return func(s *Solver) {
		s.seed = seed
	}
}

// WithRand replaces the splitmix64 generator used for weighted draws.
func WithRand(f RandFactory) Option {
	return func(s *Solver) {
		s.newRand = f
	}
}

// WithLogger sets the solver's logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Solver) {
		s.logger = l
	}
}

// New compiles layer for solving under policy.
//
// The layer is not copied; callers must not mutate it while the Solver is
// in use.
func New(layer *ir.AutoLayer, policy ir.EdgePolicy, opts ...Option) (*Solver, error) {
	if layer == nil {
		return nil, &LayerError{Code: ErrCodeNilLayer, Message: "layer is nil"}
	}
	if !ir.ValidEdgeKinds[policy.Kind] {
		return nil, &LayerError{
			Code:    ErrCodeInvalidEdge,
			Message: "unknown edge policy " + string(policy.Kind),
		}
	}

	s := &Solver{
		layer:   layer,
		policy:  policy,
		seed:    layer.Seed,
		newRand: NewSplitMix64,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for gi := range layer.Groups {
		g := &layer.Groups[gi]
		if !g.Active {
			continue
		}
		cg := compiledGroup{index: gi, name: g.Name}

		rules := make([]*compiledRule, 0, len(g.Rules))
		for ri := range g.Rules {
			cr, err := compileRule(&g.Rules[ri], ri)
			if err != nil {
				return nil, err
			}
			rules = append(rules, cr)
			s.radius = max(s.radius, cr.rule.Pattern.Radius())
			for _, st := range cr.rule.Stamps {
				s.reach = max(s.reach, st.Reach())
			}
		}
		slices.SortStableFunc(rules, func(a, b *compiledRule) int {
			return cmp.Compare(a.rule.Priority, b.rule.Priority)
		})
		for _, cr := range rules {
			n := len(cg.tiers)
			if n == 0 || cg.tiers[n-1].priority != cr.rule.Priority {
				cg.tiers = append(cg.tiers, compiledTier{priority: cr.rule.Priority})
				n++
			}
			cg.tiers[n-1].rules = append(cg.tiers[n-1].rules, cr)
		}
		s.groups = append(s.groups, cg)
	}

	s.logger.Debug().
		Str("layer", layer.Name).
		Int("groups", len(s.groups)).
		Int("radius", s.radius).
		Int("reach", s.reach).
		Str("edge", policy.String()).
		Msg("solver compiled")

	return s, nil
}

func compileRule(r *ir.Rule, index int) (*compiledRule, error) {
	p := r.Pattern
	if p.Size <= 0 || p.Size%2 == 0 || len(p.Cells) != p.Size*p.Size {
		return nil, malformed(r.ID, "pattern must be a non-empty odd square")
	}
	if r.Weight <= 0 {
		return nil, malformed(r.ID, "weight must be positive, got %d", r.Weight)
	}
	if len(r.Stamps) == 0 {
		return nil, malformed(r.ID, "rule has no stamps")
	}
	weights := make([]int, len(r.Stamps))
	for i, st := range r.Stamps {
		if st.Weight <= 0 {
			return nil, malformed(r.ID, "stamp %d weight must be positive, got %d", i, st.Weight)
		}
		if st.Width <= 0 || st.Height <= 0 || len(st.Tiles) != st.Width*st.Height {
			return nil, malformed(r.ID, "stamp %d has %d tiles for %dx%d", i, len(st.Tiles), st.Width, st.Height)
		}
		weights[i] = st.Weight
	}
	return &compiledRule{
		rule:     r,
		index:    index,
		variants: compileVariants(r),
		stampW:   weights,
	}, nil
}

// Layer returns the layer the solver was built from.
func (s *Solver) Layer() *ir.AutoLayer { return s.layer }

// Policy returns the edge policy applied to every sample.
func (s *Solver) Policy() ir.EdgePolicy { return s.policy }

// Seed returns the effective base seed.
func (s *Solver) Seed() uint64 { return s.seed }

// Radius returns the largest pattern radius over active rules.
func (s *Solver) Radius() int { return s.radius }

// Reach returns the largest stamp reach over active rules.
func (s *Solver) Reach() int { return s.reach }

// Sampler binds g to the solver's edge policy.
func (s *Solver) Sampler(g ir.Grid) Sampler {
	return NewSampler(g, s.policy)
}

// Decide evaluates one anchor and returns its fires in group order.
//
// The outcome depends only on grid values within Radius() of the anchor.
func (s *Solver) Decide(smp Sampler, anchor ir.Coord) []Fire {
	var fires []Fire
	value := smp.Sample(anchor)

	for gi := range s.groups {
		g := &s.groups[gi]
		var rng Rand

		for ti := range g.tiers {
			tier := &g.tiers[ti]

			var cands []*compiledRule
			var variants []ir.Variant
			for _, cr := range tier.rules {
				if !cr.accepts(value) {
					continue
				}
				if v, ok := cr.match(smp, anchor); ok {
					cands = append(cands, cr)
					variants = append(variants, v)
				}
			}
			if len(cands) == 0 {
				continue
			}

			pick := 0
			if len(cands) > 1 {
				if rng == nil {
					rng = s.newRand(DeriveSeed(s.seed, anchor, g.index))
				}
				weights := make([]int, len(cands))
				for i, cr := range cands {
					weights[i] = cr.rule.Weight
				}
				pick = pickWeighted(rng, weights)
			}
			win := cands[pick]

			stamp := 0
			if len(win.stampW) > 1 {
				if rng == nil {
					rng = s.newRand(DeriveSeed(s.seed, anchor, g.index))
				}
				stamp = pickWeighted(rng, win.stampW)
			}

			fires = append(fires, Fire{
				Anchor:   anchor,
				Group:    g.index,
				Priority: tier.priority,
				Rule:     win.index,
				RuleID:   win.rule.ID,
				Variant:  variants[pick],
				Stamp:    stamp,
				rule:     win.rule,
			})
			if win.rule.BreakOnMatch {
				return fires
			}
			break
		}
	}
	return fires
}

// Solve decides every anchor in region and paints the resulting fires.
// Passing ir.FullRegion of the grid yields the complete layer.
func (s *Solver) Solve(g ir.Grid, region ir.Region) ir.SolveResult {
	smp := s.Sampler(g)
	var fires []Fire
	for _, anchor := range region {
		if !ir.InBounds(g, anchor) {
			continue
		}
		fires = append(fires, s.Decide(smp, anchor)...)
	}
	res := paint(g, fires, nil)

	s.logger.Debug().
		Str("layer", s.layer.Name).
		Int("anchors", len(region)).
		Int("fires", len(fires)).
		Int("cells", len(res)).
		Msg("solve complete")
	return res
}

// SolveAll solves every cell of g.
func (s *Solver) SolveAll(g ir.Grid) ir.SolveResult {
	return s.Solve(g, ir.FullRegion(g.Width(), g.Height()))
}
