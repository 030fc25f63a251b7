package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

func TestCreateRun_FillsDerivedFields(t *testing.T) {
	s := createTestStore(t)
	run := createTestRun(t, s, "run-1")

	assert.Equal(t, "terrain", run.Layer)
	assert.Equal(t, 3, run.Width)
	assert.Equal(t, 2, run.Height)
	assert.Equal(t, int64(1), run.CreatedSeq)
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)
	assert.Equal(t, ir.IRVersion, run.IRVersion)

	layerHash, err := ir.LayerHash(testLayer())
	require.NoError(t, err)
	assert.Equal(t, layerHash, run.LayerHash)
	assert.Equal(t, ir.MustResultHash(testResult()), run.ResultHash)

	second := createTestRun(t, s, "run-2")
	assert.Equal(t, int64(2), second.CreatedSeq)
}

func TestCreateRun_Errors(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	err := s.CreateRun(ctx, &Run{}, testLayer(), testGrid(t), testResult())
	assert.Error(t, err, "id is required")

	createTestRun(t, s, "dup")
	err = s.CreateRun(ctx, &Run{ID: "dup"}, testLayer(), testGrid(t), testResult())
	assert.Error(t, err, "duplicate id")

	// the failed insert left nothing behind
	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCreateRun_StoresOnlyNonEmptyCells(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-1")

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM grid_cells WHERE run_id = 'run-1'`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestWriteEditsAndDiff(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	createTestRun(t, s, "run-1")

	edits := []level.Edit{{X: 1, Y: 0, Value: 1}, {X: 0, Y: 0, Value: 0}}
	diff := ir.Diff{
		{Coord: ir.Coord{X: 0, Y: 0}, Kind: ir.ChangeRemoved, Before: []ir.TileRef{{Tile: 10}}},
		{Coord: ir.Coord{X: 1, Y: 0}, Kind: ir.ChangeAdded, After: []ir.TileRef{{Tile: 10, Variant: ir.Rot180}}},
	}
	require.NoError(t, s.WriteEdits(ctx, "run-1", 1, edits))
	require.NoError(t, s.WriteDiff(ctx, "run-1", 1, diff, "hash-1"))
	// retrying the diff step hash is allowed
	require.NoError(t, s.WriteDiff(ctx, "run-1", 1, nil, "hash-1b"))

	steps, err := s.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, int64(1), steps[0].Seq)
	assert.Equal(t, "hash-1b", steps[0].ResultHash)
	assert.Equal(t, edits, steps[0].Edits)
	assert.Equal(t, diff, steps[0].Diff)
}

func TestWriteStep_Atomic(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	createTestRun(t, s, "run-1")

	bad := Step{
		Seq:   1,
		Edits: []level.Edit{{X: 0, Y: 0, Value: 1}},
		Diff: ir.Diff{
			{Coord: ir.Coord{X: 0, Y: 0}, Kind: "moved"},
		},
		ResultHash: "h",
	}
	require.Error(t, s.WriteStep(ctx, "run-1", bad))

	edits, err := s.ReadEdits(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, edits, "edits rolled back with the failed diff")
}

func TestWriteStep_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteStep(t.Context(), "ghost", Step{Seq: 1, ResultHash: "h"})
	assert.Error(t, err)
}
