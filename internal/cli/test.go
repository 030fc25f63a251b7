package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/autotile/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // substring of the scenario file name
	Parallel int
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or "" when no golden file exists
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run solver scenarios",
		Long: `Run scenario files against the solver.

Every .yaml scenario under the directory is solved, painted step by step
and checked against its assertions. When golden/<name>.golden exists next
to a scenario, the canonical snapshot of the run must match it byte for
byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  autotile test ./scenarios
  autotile test ./scenarios --filter wall
  autotile test ./scenarios --update
  autotile test ./scenarios --parallel 1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name contains this")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "scenarios run at once (default from config test.parallel)")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(dir); err != nil {
		return reportError(formatter, &CodedError{Code: ErrCodeNotFound, Err: fmt.Errorf("scenarios directory not found: %s", dir)})
	}

	paths, err := harness.FindScenarios(dir, opts.Filter)
	if err != nil {
		return reportError(formatter, &CodedError{Code: ErrCodeReadFailed, Err: err})
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(paths)),
		Total:     len(paths),
	}
	if len(paths) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	parallel := opts.Parallel
	if !cmd.Flags().Changed("parallel") {
		parallel = opts.config().Test.Parallel
	}
	formatter.VerboseLog("Running %d scenario(s), parallel %d", len(paths), parallel)

	outcomes, err := harness.RunAll(ctx, paths, parallel)
	if err != nil {
		return reportError(formatter, err)
	}

	for _, out := range outcomes {
		sr := checkOutcome(out, opts.Update)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		if result.Failed == 0 {
			return formatter.Success(result)
		}
		msg := fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total)
		if err := formatter.Failure(result, ErrCodeTestFailed, msg); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	return outputTestText(formatter, result)
}

// checkOutcome turns a harness outcome into a scenario result, comparing or
// updating its golden file.
func checkOutcome(out harness.Outcome, update bool) ScenarioResult {
	sr := ScenarioResult{
		Name: strings.TrimSuffix(filepath.Base(out.Path), filepath.Ext(out.Path)),
		Path: out.Path,
	}
	if out.Scenario != nil {
		sr.Name = out.Scenario.Name
	}
	if out.Err != nil {
		sr.Errors = []string{out.Err.Error()}
		return sr
	}
	sr.Errors = append(sr.Errors, out.Result.Errors...)

	snapshot, err := harness.Snapshot(sr.Name, out.Result)
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("snapshot: %v", err))
		return sr
	}

	goldenPath := goldenFilePath(out.Path)
	switch {
	case update:
		if err := writeGolden(goldenPath, snapshot); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
		sr.Golden = "updated"
	default:
		want, err := os.ReadFile(goldenPath)
		switch {
		case os.IsNotExist(err):
			// No golden file: assertions only.
		case err != nil:
			sr.Errors = append(sr.Errors, fmt.Sprintf("read golden file: %v", err))
		case !bytes.Equal(bytes.TrimSpace(want), snapshot):
			sr.Errors = append(sr.Errors, "golden file mismatch (run with --update to regenerate)")
		default:
			sr.Golden = "match"
		}
	}

	sr.Pass = out.Result.Pass && len(sr.Errors) == 0
	return sr
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func outputTestText(f *OutputFormatter, result TestResult) error {
	w := f.Writer

	for _, sr := range result.Scenarios {
		status := "✓"
		if !sr.Pass {
			status = "✗"
		}
		switch sr.Golden {
		case "updated":
			fmt.Fprintf(w, "%s %s (golden updated)\n", status, sr.Name)
		default:
			fmt.Fprintf(w, "%s %s\n", status, sr.Name)
		}
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Results: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}
