package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "erase_wall.yaml"),
		filepath.Join("testdata", "scenarios", "wall_shore.yaml"),
	}, paths)

	paths, err = FindScenarios("testdata/scenarios", "shore")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("testdata", "scenarios", "wall_shore.yaml")}, paths)
}

func TestFindScenarios_MissingDir(t *testing.T) {
	_, err := FindScenarios("/nonexistent/scenarios", "")
	assert.Error(t, err)
}

func TestRunAll(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: [unterminated"), 0644))
	paths = append(paths, broken)

	outcomes, err := RunAll(t.Context(), paths, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	for i, out := range outcomes[:2] {
		assert.Equal(t, paths[i], out.Path)
		assert.NoError(t, out.Err)
		require.NotNil(t, out.Result)
		assert.True(t, out.Pass(), "%s: %v", out.Path, out.Result.Errors)
	}

	assert.Equal(t, broken, outcomes[2].Path)
	assert.Error(t, outcomes[2].Err)
	assert.False(t, outcomes[2].Pass())
}
