package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/autotile/internal/session"
	"github.com/roach88/autotile/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs          []session.Report `json:"runs"`
	TotalRuns     int              `json:"total_runs"`
	AllConsistent bool             `json:"all_consistent"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded runs and verify them",
		Long: `Replay recorded paint sessions and verify the incremental solver.

For every step the recorded diffs are applied to the recorded snapshot and
checked against the stored result hash, a fresh full solve of the edited
grid, and a re-run of the edits through a new scheduler.

Exit codes:
  0 - All runs replay consistently
  1 - Verification failed (a mismatch was found)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  autotile replay --db runs.db
  autotile replay --db runs.db --run 0192f1c2-...
  autotile replay --db runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Opening would create an empty database.
	if _, err := os.Stat(opts.Database); err != nil {
		return reportError(formatter, &CodedError{Code: ErrCodeNotFound, Err: fmt.Errorf("database %s: %w", opts.Database, err)})
	}
	st, err := store.Open(opts.Database, store.WithLogger(opts.Logger))
	if err != nil {
		return reportError(formatter, &CodedError{Code: ErrCodeStore, Err: err})
	}
	defer st.Close()

	var ids []string
	if opts.RunID != "" {
		ids = []string{opts.RunID}
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return reportError(formatter, &CodedError{Code: ErrCodeStore, Err: err})
		}
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
	}

	result := ReplayResult{
		Runs:          make([]session.Report, 0, len(ids)),
		TotalRuns:     len(ids),
		AllConsistent: true,
	}
	if len(ids) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No runs found in database.")
		return nil
	}

	for _, id := range ids {
		report, err := session.Verify(ctx, st, id, opts.Logger)
		if err != nil {
			code := ErrCodeStore
			if errors.Is(err, store.ErrRunNotFound) {
				code = ErrCodeNotFound
			}
			return reportError(formatter, &CodedError{Code: code, Err: fmt.Errorf("replay %s: %w", id, err)})
		}
		result.Runs = append(result.Runs, report)
		if !report.OK() {
			result.AllConsistent = false
		}
	}

	if formatter.Format == "json" {
		if result.AllConsistent {
			return formatter.Success(result)
		}
		if err := formatter.Failure(result, ErrCodeMismatch, "replay verification failed"); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "replay verification failed")
	}

	return outputReplayText(formatter, result)
}

func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, r := range result.Runs {
		status := "✓"
		if !r.OK() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s run %s\n", status, r.RunID)
		fmt.Fprintf(w, "  layer %s, %d step(s), result %s\n", r.Layer, r.Steps, short(r.ResultHash))
		if f.Verbose {
			fmt.Fprintf(w, "  engine %s\n", r.EngineVersion)
		}
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "  %s\n", m)
		}
		fmt.Fprintln(w)
	}

	if result.AllConsistent {
		fmt.Fprintln(w, "✓ All runs replay consistently")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
