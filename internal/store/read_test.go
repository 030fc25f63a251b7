package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

func TestReadRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	want := createTestRun(t, s, "run-1")

	got, err := s.ReadRun(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, *want, got)
	assert.Equal(t, uint64(1<<63+5), got.Seed, "seeds above MaxInt64 survive")
	assert.Equal(t, ir.EdgePolicy{Kind: ir.EdgeValue, Fill: 4}, got.Edge)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(t.Context(), "ghost")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.ReadLayer(t.Context(), "ghost")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.LoadSession(t.Context(), "ghost")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns_OrderedByCreation(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	createTestRun(t, s, "zz")
	createTestRun(t, s, "aa")

	runs, err = s.ListRuns(t.Context())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "zz", runs[0].ID)
	assert.Equal(t, "aa", runs[1].ID)
}

func TestReadLayer_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-1")

	layer, err := s.ReadLayer(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, testLayer(), layer)
}

func TestReadGridAndSnapshot(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-1")

	grid, err := s.ReadGrid(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, testGrid(t).Rows(), grid.Rows())

	snap, err := s.ReadSnapshot(t.Context(), "run-1")
	require.NoError(t, err)
	assert.True(t, testResult().Equal(snap))
}

func TestReadDiffs_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	createTestRun(t, s, "run-1")

	added := []ir.TileRef{{Tile: 1}}
	require.NoError(t, s.WriteDiff(ctx, "run-1", 2, ir.Diff{
		{Coord: ir.Coord{X: 0, Y: 1}, Kind: ir.ChangeAdded, After: added},
	}, "h2"))
	require.NoError(t, s.WriteDiff(ctx, "run-1", 1, ir.Diff{
		{Coord: ir.Coord{X: 2, Y: 0}, Kind: ir.ChangeAdded, After: added},
		{Coord: ir.Coord{X: 1, Y: 0}, Kind: ir.ChangeAdded, After: added},
	}, "h1"))

	records, err := s.ReadDiffs(ctx, "run-1")
	require.NoError(t, err)

	var got []string
	for _, r := range records {
		got = append(got, r.Change.Coord.String())
		assert.Equal(t, added, r.Change.After)
		assert.Nil(t, r.Change.Before)
	}
	assert.Equal(t, []string{"(1,0)", "(2,0)", "(0,1)"}, got)
	assert.Equal(t, int64(1), records[0].Seq)
	assert.Equal(t, int64(2), records[2].Seq)
}

func TestReadSteps_EmptyDiffStillListed(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	createTestRun(t, s, "run-1")

	require.NoError(t, s.WriteStep(ctx, "run-1", Step{
		Seq:        1,
		Edits:      []level.Edit{{X: 0, Y: 0, Value: 1}},
		ResultHash: "same",
	}))

	steps, err := s.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Empty(t, steps[0].Diff)
	assert.Equal(t, []level.Edit{{X: 0, Y: 0, Value: 1}}, steps[0].Edits)
}

func TestReadSteps_OrphanEdit(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	createTestRun(t, s, "run-1")

	require.NoError(t, s.WriteEdits(ctx, "run-1", 3, []level.Edit{{X: 0, Y: 0, Value: 1}}))
	_, err := s.ReadSteps(ctx, "run-1")
	assert.ErrorContains(t, err, "unrecorded step 3")
}

func TestLoadSession(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	run := createTestRun(t, s, "run-1")
	require.NoError(t, s.WriteStep(ctx, "run-1", Step{Seq: 1, ResultHash: "h"}))

	sess, err := s.LoadSession(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, *run, sess.Run)
	assert.Equal(t, testLayer(), sess.Layer)
	assert.Equal(t, 3, sess.Grid.NonEmpty())
	assert.Len(t, sess.Snapshot, 3)
	assert.Len(t, sess.Steps, 1)
}

func TestUnmarshalTiles_UnknownVariant(t *testing.T) {
	_, err := unmarshalTiles(`[{"tile":1,"variant":"skew"}]`)
	assert.Error(t, err)

	tiles, err := unmarshalTiles("[]")
	require.NoError(t, err)
	assert.Nil(t, tiles)
}

func TestIDGenerators(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())

	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, UUIDv7Generator{}.Generate())
}
