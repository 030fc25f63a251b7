package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autotile/internal/ir"
)

// mixedLayer exercises every rule feature the scheduler has to reproduce:
// symmetry, weighted ties, multi-cell stamps, break-on-match, additive
// overlays and empty-cell targeting.
func mixedLayer() *ir.AutoLayer {
	interiorRule := rule("interior", 1, interior, 100)

	shore := rule("shore", 2, pat(
		"*", ".", "*",
		"*", "1", "*",
		"*", "*", "*",
	), 101)
	shore.AllowRotation = true

	fallA := rule("fall-a", 10, anyPat(3), 200)
	fallB := rule("fall-b", 10, anyPat(3), 201)
	fallB.Weight = 2

	rock := rule("rock", 1, pat("2"), 0)
	rock.BreakOnMatch = true
	rock.Stamps = []ir.Stamp{
		{Width: 2, Height: 2, Tiles: []int{10, 11, 12, 13}, Weight: 1},
		{Width: 2, Height: 1, OriginX: 1, Tiles: []int{14, ir.NoTile}, Weight: 1},
	}

	grass := rule("grass", 1, anyPat(1), 300)
	grass.Additive = true
	grass.SourceValues = []int{1}

	void := rule("void", 1, pat(
		"*", "*", "*",
		"*", ".", "!0",
		"*", "*", "*",
	), 400)
	void.TargetsEmpty = true
	void.AllowMirrorX = true

	l := layer(
		group("terrain", interiorRule, shore, fallA, fallB),
		group("decor", rock, grass),
		group("void", void),
	)
	l.Seed = 7
	return l
}

func randomGrid(rng *rand.Rand, w, h int) *testGrid {
	g := newTestGrid(w, h)
	for i := range g.cells {
		g.cells[i] = rng.IntN(3)
	}
	return g
}

func TestScheduler_InitialResultIsFullSolve(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	g := randomGrid(rng, 10, 8)
	s, err := New(mixedLayer(), edgeEmpty)
	require.NoError(t, err)

	sched := NewScheduler(s, g)
	assert.True(t, sched.Result().Equal(s.SolveAll(g)))
	assert.Equal(t, uint64(0), sched.Seq())
	assert.Same(t, s, sched.Solver())
}

func TestScheduler_EmptyFlush(t *testing.T) {
	s, err := New(interiorLayer(), edgeEmpty)
	require.NoError(t, err)
	sched := NewScheduler(s, gridOf("111", "111", "111"))

	sched.MarkDirty()
	assert.Empty(t, sched.PendingRegion())
	assert.True(t, sched.Flush().Empty())
	assert.Equal(t, uint64(1), sched.Seq())
}

func TestScheduler_FlushTwiceIsIdempotent(t *testing.T) {
	g := gridOf("111", "111", "111")
	s, err := New(interiorLayer(), edgeEmpty)
	require.NoError(t, err)
	sched := NewScheduler(s, g)
	before := sched.Result()

	g.Set(1, 0, 0)
	sched.MarkDirty(ir.Coord{X: 1, Y: 0})
	diff := sched.Flush()
	assert.False(t, diff.Empty())
	assert.True(t, sched.Flush().Empty())

	ApplyDiff(before, diff)
	assert.True(t, before.Equal(sched.Result()))
}

func TestScheduler_MarkDirtyIgnoresOutOfBounds(t *testing.T) {
	s, err := New(interiorLayer(), edgeEmpty)
	require.NoError(t, err)
	sched := NewScheduler(s, gridOf("111", "111", "111"))

	sched.MarkDirty(ir.Coord{X: -1, Y: 0}, ir.Coord{X: 3, Y: 3})
	assert.Equal(t, 0, sched.Dirty())

	sched.MarkDirty(ir.Coord{X: 0, Y: 0}, ir.Coord{X: 0, Y: 0})
	assert.Equal(t, 1, sched.Dirty())
}

func TestScheduler_PendingRegionClippedToRadius(t *testing.T) {
	s, err := New(interiorLayer(), edgeEmpty)
	require.NoError(t, err)
	sched := NewScheduler(s, newTestGrid(6, 6))

	sched.MarkDirty(ir.Coord{X: 0, Y: 0})
	assert.Equal(t, ir.Region{
		{X: 0, Y: 0}, {X: 1, Y: 0},
		{X: 0, Y: 1}, {X: 1, Y: 1},
	}, sched.PendingRegion())

	sched.MarkDirty(ir.Coord{X: 4, Y: 4})
	assert.Len(t, sched.PendingRegion(), 4+9)
}

func TestScheduler_DiffKinds(t *testing.T) {
	g := gridOf("10", "00")
	s, err := New(layer(group("g", rule("all", 1, anyPat(1), 4))), edgeEmpty)
	require.NoError(t, err)
	sched := NewScheduler(s, g)

	g.Set(0, 0, 0)
	g.Set(1, 1, 3)
	sched.MarkDirty(ir.Coord{X: 0, Y: 0}, ir.Coord{X: 1, Y: 1})
	diff := sched.Flush()

	require.Len(t, diff, 2)
	assert.Equal(t, ir.CellChange{Coord: ir.Coord{X: 0, Y: 0}, Kind: ir.ChangeRemoved, Before: tiles(4)}, diff[0])
	assert.Equal(t, ir.CellChange{Coord: ir.Coord{X: 1, Y: 1}, Kind: ir.ChangeAdded, After: tiles(4)}, diff[1])
}

// Applying flush diffs after every edit batch must track a full re-solve,
// under every edge policy.
func TestScheduler_FullIncrementalEquivalence(t *testing.T) {
	policies := []ir.EdgePolicy{
		{Kind: ir.EdgeEmpty},
		{Kind: ir.EdgeValue, Fill: 1},
		{Kind: ir.EdgeClamp},
	}

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(42, uint64(len(policy.Kind))))
			g := randomGrid(rng, 12, 9)
			s, err := New(mixedLayer(), policy)
			require.NoError(t, err)

			sched := NewScheduler(s, g)
			patched := sched.Result()

			for step := range 150 {
				for range 1 + rng.IntN(3) {
					c := ir.Coord{X: rng.IntN(g.w), Y: rng.IntN(g.h)}
					g.Set(c.X, c.Y, rng.IntN(3))
					sched.MarkDirty(c)
				}
				diff := sched.Flush()
				ApplyDiff(patched, diff)

				full := s.SolveAll(g)
				require.True(t, full.Equal(sched.Result()), "step %d: scheduler result diverged", step)
				require.True(t, full.Equal(patched), "step %d: cumulative diffs diverged", step)
			}
		})
	}
}

// A single edit never changes cells further than the pattern radius away
// when every stamp is a single tile.
func TestScheduler_RadiusCorrectness(t *testing.T) {
	shore := rule("shore", 2, pat(
		"*", "*", "*", "*", "*",
		"*", "*", "*", "*", "*",
		"*", "*", "1", "*", ".",
		"*", "*", "*", "*", "*",
		"*", "*", "*", "*", "*",
	), 101)
	shore.AllowRotation = true
	l := layer(group("g", rule("interior", 1, interior, 100), shore, rule("fall", 10, anyPat(3), 200)))

	rng := rand.New(rand.NewPCG(3, 4))
	g := randomGrid(rng, 11, 11)
	s, err := New(l, edgeEmpty)
	require.NoError(t, err)
	require.Equal(t, 2, s.Radius())

	for range 100 {
		before := s.SolveAll(g)
		c := ir.Coord{X: rng.IntN(g.w), Y: rng.IntN(g.h)}
		g.Set(c.X, c.Y, rng.IntN(3))
		after := s.SolveAll(g)

		for _, ch := range FullDiff(before, after) {
			dx, dy := ch.Coord.X-c.X, ch.Coord.Y-c.Y
			assert.LessOrEqual(t, max(dx, -dx, dy, -dy), s.Radius(), "edit %v changed %v", c, ch.Coord)
		}
	}
}

func TestScheduler_Reset(t *testing.T) {
	g := gridOf("111", "111", "111")
	s, err := New(interiorLayer(), edgeEmpty)
	require.NoError(t, err)
	sched := NewScheduler(s, g)

	g.Set(1, 1, 0)
	sched.MarkDirty(ir.Coord{X: 1, Y: 1})
	sched.Reset()

	assert.Equal(t, 0, sched.Dirty())
	assert.True(t, sched.Result().Equal(s.SolveAll(g)))
}
