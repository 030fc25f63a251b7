package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autotile/internal/level"
)

const wallRules = `
layer: walls: {
	groups: [{
		name: "base"
		rules: [{
			id:      "fill"
			pattern: [["*"]]
			tile:    1
		}]
	}, {
		name: "edges"
		rules: [{
			id: "top"
			pattern: [
				["*", ".", "*"],
				["*", 1, "*"],
				["*", "*", "*"],
			]
			tile:     2
			additive: true
		}]
	}]
}
`

func intPtr(n int) *int { return &n }

func wallScenario() *Scenario {
	return &Scenario{
		Name:        "wall_inline",
		Description: "inline wall rules",
		RulesSource: wallRules,
		Level: level.Spec{
			Edge: "empty",
			Rows: [][]int{
				{0, 0, 0},
				{0, 1, 0},
			},
		},
		Steps: []Step{
			{Set: []level.Edit{{X: 1, Y: 0, Value: 1}}, ExpectChanges: intPtr(2)},
		},
		Assertions: []Assertion{
			{Type: AssertCellTiles, Cell: []int{1, 0}, Tiles: []int{1, 2}},
			{Type: AssertCellTiles, Cell: []int{1, 1}, Tiles: []int{1}},
			{Type: AssertCellCount, Count: 2},
		},
	}
}

func TestRun_InlineRules(t *testing.T) {
	result, err := Run(t.Context(), wallScenario())
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "walls", result.Layer)

	assert.Len(t, result.Initial, 1)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, 1, result.Steps[0].Seq)
	assert.Len(t, result.Steps[0].Diff, 2)
	assert.Len(t, result.Final, 2)
}

func TestRun_ExpectChangesMismatch(t *testing.T) {
	s := wallScenario()
	s.Steps[0].ExpectChanges = intPtr(5)

	result, err := Run(t.Context(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "step 1: expected 5 changed cells, got 2", result.Errors[0])
}

func TestRun_FailedAssertion(t *testing.T) {
	s := wallScenario()
	s.Assertions = append(s.Assertions, Assertion{Type: AssertCellEmpty, Cell: []int{1, 1}})

	result, err := Run(t.Context(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion 3:")
}

func TestRun_RejectedRulesFailScenario(t *testing.T) {
	s := wallScenario()
	s.RulesSource = `
layer: walls: {
	groups: [{
		rules: [{
			id:      "fill"
			pattern: [["*"]]
			tile:    1
		}, {
			id:      "even"
			pattern: [["*", "*"], ["*", "*"]]
			tile:    9
		}]
	}]
}
`
	s.Steps = nil
	s.Assertions = []Assertion{{Type: AssertTileCount, Tile: 1, Count: 1}}

	result, err := Run(t.Context(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "rules:")
	assert.Contains(t, result.Errors[0], "even")
}

func TestRun_LayerSelection(t *testing.T) {
	twoLayers := `
layer: a: groups: [{rules: [{pattern: [["*"]], tile: 1}]}]
layer: b: groups: [{rules: [{pattern: [["*"]], tile: 2}]}]
`
	s := wallScenario()
	s.RulesSource = twoLayers
	s.Steps = nil
	s.Assertions = []Assertion{{Type: AssertTileCount, Tile: 2, Count: 1}}

	_, err := Run(t.Context(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario must name one")

	s.Layer = "b"
	result, err := Run(t.Context(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "b", result.Layer)

	s.Layer = "c"
	_, err = Run(t.Context(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `layer "c" not found`)
}

func TestRun_StepOutOfBounds(t *testing.T) {
	s := wallScenario()
	s.Steps = []Step{{Set: []level.Edit{{X: 7, Y: 0, Value: 1}}}}

	_, err := Run(t.Context(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, level.ErrOutOfBounds)
	assert.Contains(t, err.Error(), "step 1")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Run(ctx, wallScenario())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_SeededSnapshotIsDeterministic(t *testing.T) {
	seed := uint64(99)
	s := &Scenario{
		Name:        "speckle",
		Description: "weighted tiles",
		RulesSource: `layer: ground: groups: [{rules: [{pattern: [["*"]], tiles: [1, 3, 5]}]}]`,
		Seed:        &seed,
		Level: level.Spec{Rows: [][]int{
			{1, 1, 1, 1},
			{1, 1, 1, 1},
			{1, 1, 1, 1},
		}},
		Steps: []Step{
			{Set: []level.Edit{{X: 0, Y: 0, Value: 0}}, ExpectChanges: intPtr(1)},
			{Set: []level.Edit{{X: 0, Y: 0, Value: 1}}, ExpectChanges: intPtr(1)},
		},
		Assertions: []Assertion{{Type: AssertCellCount, Count: 12}},
	}

	first, err := Run(t.Context(), s)
	require.NoError(t, err)
	assert.True(t, first.Pass, "errors: %v", first.Errors)

	second, err := Run(t.Context(), s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	// erasing and restoring a cell lands on the same draw
	assert.True(t, first.Initial.Equal(first.Final))
}

func TestRunWithGolden_WallShore(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/wall_shore.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
