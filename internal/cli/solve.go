package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/session"
	"github.com/roach88/autotile/internal/store"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	Layer    string
	Database string
	Seed     uint64
}

// SolveOutput is the result of a full solve.
type SolveOutput struct {
	Layer      string       `json:"layer"`
	Level      string       `json:"level"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Edge       string       `json:"edge"`
	Seed       uint64       `json:"seed"`
	ResultHash string       `json:"result_hash"`
	RunID      string       `json:"run_id,omitempty"`
	Cells      []CellOutput `json:"cells"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve <rules.cue> <level>",
		Short: "Solve one layer over a level",
		Long: `Run a full solve of one auto-layer over a level file (YAML or TOML)
and print every written cell.

With --db the solve is recorded as a new run that replay can verify.

Examples:
  autotile solve rules.cue cave.yaml
  autotile solve rules.cue cave.toml --layer walls --seed 7
  autotile solve rules.cue cave.yaml --db runs.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Layer, "layer", "", "layer to solve (required when the file has several)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "override the layer seed")

	return cmd
}

// openSession loads rules and level and starts a painter, recording to
// dbPath when set. The returned close function is never nil.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command, rulesPath, levelPath, layerName, dbPath string) (*session.Painter, func(), error) {
	noop := func() {}
	cfg := opts.config()

	res, err := loadRules(rulesPath, opts.Logger)
	if err != nil {
		return nil, noop, err
	}
	layer, err := selectLayer(res.RuleSet, layerName)
	if err != nil {
		return nil, noop, err
	}
	lvl, err := loadLevel(levelPath, cfg)
	if err != nil {
		return nil, noop, err
	}

	var seed *uint64
	if cmd.Flags().Changed("seed") {
		v, _ := cmd.Flags().GetUint64("seed")
		seed = &v
	}
	solver, err := newSolver(layer, lvl, cfg, seed, opts.Logger)
	if err != nil {
		return nil, noop, err
	}

	painterOpts := []session.Option{session.WithLogger(opts.Logger)}
	closeFn := noop
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	if dbPath != "" {
		st, err := store.Open(dbPath, store.WithLogger(opts.Logger))
		if err != nil {
			return nil, noop, &CodedError{Code: ErrCodeStore, Err: err}
		}
		closeFn = func() { st.Close() }
		painterOpts = append(painterOpts, session.WithStore(st, nil))
	}

	p, err := session.NewPainter(ctx, solver, lvl, painterOpts...)
	if err != nil {
		closeFn()
		return nil, noop, &CodedError{Code: ErrCodeStore, Err: err}
	}
	return p, closeFn, nil
}

func runSolve(ctx context.Context, opts *SolveOptions, rulesPath, levelPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, closeFn, err := openSession(ctx, opts.RootOptions, cmd, rulesPath, levelPath, opts.Layer, opts.Database)
	if err != nil {
		return reportError(formatter, err)
	}
	defer closeFn()

	res := p.Result()
	hash, err := ir.ResultHash(res)
	if err != nil {
		return reportError(formatter, err)
	}

	solver := p.Solver()
	out := SolveOutput{
		Layer:      solver.Layer().Name,
		Level:      p.Level(),
		Width:      p.Grid().Width(),
		Height:     p.Grid().Height(),
		Edge:       solver.Policy().String(),
		Seed:       solver.Seed(),
		ResultHash: hash,
		RunID:      p.RunID(),
		Cells:      cellsOutput(res),
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "layer %s on %s (%dx%d, edge %s, seed %d)\n", out.Layer, out.Level, out.Width, out.Height, out.Edge, out.Seed)
	writeCellsText(w, out.Cells)
	fmt.Fprintf(w, "%d cell(s), result %s\n", len(out.Cells), short(hash))
	if out.RunID != "" {
		fmt.Fprintf(w, "recorded run %s\n", out.RunID)
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
