package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

// PaintOptions holds flags for the paint command.
type PaintOptions struct {
	*RootOptions
	Layer    string
	Database string
	Seed     uint64
	Sets     []string // one step per flag, edits separated by ';'
	Out      string
}

// PaintStep is one flushed step.
type PaintStep struct {
	Seq     int64          `json:"seq"`
	Edits   []string       `json:"edits"`
	Changes []ChangeOutput `json:"changes"`
}

// PaintOutput is the result of a paint session.
type PaintOutput struct {
	Layer      string       `json:"layer"`
	Level      string       `json:"level"`
	RunID      string       `json:"run_id,omitempty"`
	Steps      []PaintStep  `json:"steps"`
	ResultHash string       `json:"result_hash"`
	Cells      []CellOutput `json:"cells"`
}

// NewPaintCommand creates the paint command.
func NewPaintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PaintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "paint <rules.cue> <level>",
		Short: "Apply edits and print incremental diffs",
		Long: `Solve a level, then apply edits through the incremental scheduler.

Each --set flag is one step: its edits are applied together and flushed
once, and the cells whose tiles changed are printed. Separate several
edits of one step with ';'.

Examples:
  autotile paint rules.cue cave.yaml --set 3,4=1
  autotile paint rules.cue cave.yaml --set "3,4=1;3,5=1" --set 0,0=0
  autotile paint rules.cue cave.yaml --set 3,4=1 --db runs.db --out edited.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaint(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Layer, "layer", "", "layer to solve (required when the file has several)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session in this SQLite database")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "override the layer seed")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "edit step as x,y=value (repeatable)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the edited level to this file")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}

// parseSteps turns --set values into edit batches.
func parseSteps(sets []string) ([][]level.Edit, error) {
	steps := make([][]level.Edit, 0, len(sets))
	for _, set := range sets {
		var edits []level.Edit
		for part := range strings.SplitSeq(set, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			e, err := level.ParseEdit(part)
			if err != nil {
				return nil, &CodedError{Code: ErrCodeBadEdit, Err: err}
			}
			edits = append(edits, e)
		}
		if len(edits) == 0 {
			return nil, &CodedError{Code: ErrCodeBadEdit, Err: fmt.Errorf("empty --set value %q", set)}
		}
		steps = append(steps, edits)
	}
	return steps, nil
}

func runPaint(ctx context.Context, opts *PaintOptions, rulesPath, levelPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	steps, err := parseSteps(opts.Sets)
	if err != nil {
		return reportError(formatter, err)
	}

	p, closeFn, err := openSession(ctx, opts.RootOptions, cmd, rulesPath, levelPath, opts.Layer, opts.Database)
	if err != nil {
		return reportError(formatter, err)
	}
	defer closeFn()

	out := PaintOutput{
		Layer: p.Solver().Layer().Name,
		Level: p.Level(),
		RunID: p.RunID(),
		Steps: make([]PaintStep, 0, len(steps)),
	}
	for _, edits := range steps {
		diff, err := p.Paint(ctx, edits)
		if err != nil {
			return reportError(formatter, &CodedError{Code: ErrCodeBadEdit, Err: fmt.Errorf("step %d: %w", p.Steps()+1, err)})
		}
		step := PaintStep{Seq: p.Steps(), Changes: diffOutput(diff)}
		for _, e := range edits {
			step.Edits = append(step.Edits, e.String())
		}
		out.Steps = append(out.Steps, step)
	}

	res := p.Result()
	if out.ResultHash, err = ir.ResultHash(res); err != nil {
		return reportError(formatter, err)
	}
	out.Cells = cellsOutput(res)

	if opts.Out != "" {
		edited := &level.Level{Name: p.Level(), Edge: p.Solver().Policy(), Grid: p.Grid()}
		if err := level.WriteFile(opts.Out, edited); err != nil {
			return reportError(formatter, &CodedError{Code: ErrCodeWriteFailed, Err: err})
		}
		formatter.VerboseLog("Wrote %s", opts.Out)
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	for _, step := range out.Steps {
		fmt.Fprintf(w, "step %d: %s\n", step.Seq, strings.Join(step.Edits, " "))
		writeDiffText(w, step.Changes)
	}
	fmt.Fprintf(w, "%d step(s), %d cell(s), result %s\n", len(out.Steps), len(out.Cells), short(out.ResultHash))
	if out.RunID != "" {
		fmt.Fprintf(w, "recorded run %s\n", out.RunID)
	}
	return nil
}
