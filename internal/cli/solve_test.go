package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autotile/internal/config"
	"github.com/roach88/autotile/internal/store"
)

func runSolveCmd(t *testing.T, opts *RootOptions, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewSolveCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestSolveText(t *testing.T) {
	_, rules, lvl := fixtures(t)

	buf, err := runSolveCmd(t, &RootOptions{Format: "text"}, rules, lvl)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "layer walls on pond (3x2, edge empty, seed 3)")
	assert.Contains(t, out, "  (1,1) 1 2\n")
	assert.Contains(t, out, "1 cell(s), result ")
	assert.NotContains(t, out, "recorded run")
}

func TestSolveJSON(t *testing.T) {
	_, rules, lvl := fixtures(t)

	buf, err := runSolveCmd(t, &RootOptions{Format: "json"}, rules, lvl, "--seed", "9")
	require.NoError(t, err)

	resp := decodeResponse(t, buf)
	assert.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "walls", data["layer"])
	assert.Equal(t, "pond", data["level"])
	assert.Equal(t, float64(3), data["width"])
	assert.Equal(t, float64(2), data["height"])
	assert.Equal(t, float64(9), data["seed"])
	assert.Len(t, data["result_hash"], 64)

	cells := data["cells"].([]any)
	require.Len(t, cells, 1)
	cell := cells[0].(map[string]any)
	assert.Equal(t, float64(1), cell["x"])
	assert.Equal(t, float64(1), cell["y"])
	assert.Len(t, cell["tiles"], 2)
}

func TestSolveDeterministicHash(t *testing.T) {
	_, rules, lvl := fixtures(t)

	hashOf := func() any {
		buf, err := runSolveCmd(t, &RootOptions{Format: "json"}, rules, lvl)
		require.NoError(t, err)
		return decodeResponse(t, buf)["data"].(map[string]any)["result_hash"]
	}
	assert.Equal(t, hashOf(), hashOf())
}

func TestSolveConfiguredEdgeFallback(t *testing.T) {
	dir, rules, _ := fixtures(t)
	lvl := writeFile(t, dir, "bare.toml", "name = \"bare\"\nrows = [[0, 1, 0]]\n")

	cfg := config.Default()
	cfg.Solve.Edge = "value"
	cfg.Solve.Fill = 1

	buf, err := runSolveCmd(t, &RootOptions{Format: "text", Config: cfg}, rules, lvl)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "edge value(1)")
	// a filled border above hides the top edge
	assert.Contains(t, buf.String(), "  (1,0) 1\n")
}

func TestSolveRecordsRun(t *testing.T) {
	dir, rules, lvl := fixtures(t)
	db := filepath.Join(dir, "runs.db")

	buf, err := runSolveCmd(t, &RootOptions{Format: "text"}, rules, lvl, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "recorded run ")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "walls", runs[0].Layer)
	assert.Contains(t, buf.String(), runs[0].ID)
}

func TestSolveUnknownLayer(t *testing.T) {
	_, rules, lvl := fixtures(t)

	buf, err := runSolveCmd(t, &RootOptions{Format: "json"}, rules, lvl, "--layer", "floors")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, buf)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, ErrCodeNoLayer, errObj["code"])
	assert.Contains(t, errObj["message"], `layer "floors" not found (have walls)`)
}

func TestSolveMissingLevel(t *testing.T) {
	dir, rules, _ := fixtures(t)

	buf, err := runSolveCmd(t, &RootOptions{Format: "text"}, rules, filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [")
}

func TestSolveMissingArgs(t *testing.T) {
	_, err := runSolveCmd(t, &RootOptions{Format: "text"}, "only-rules.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}
