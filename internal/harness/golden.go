package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/autotile/internal/ir"
)

// Snapshot renders a scenario result as canonical JSON: the initial solve,
// every step's edits and diff, and the final result. Identical inputs
// always produce identical bytes.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	steps := make([]any, len(result.Steps))
	for i, st := range result.Steps {
		edits := make([]any, len(st.Edits))
		for j, e := range st.Edits {
			edits[j] = map[string]any{
				"x":     e.X,
				"y":     e.Y,
				"value": e.Value,
			}
		}
		steps[i] = map[string]any{
			"seq":   st.Seq,
			"edits": edits,
			"diff":  ir.CanonicalDiff(st.Diff),
		}
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario": scenarioName,
		"layer":    result.Layer,
		"initial":  ir.CanonicalResult(result.Initial),
		"steps":    steps,
		"final":    ir.CanonicalResult(result.Final),
	})
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}
