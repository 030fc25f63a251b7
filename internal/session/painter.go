package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/autotile/internal/engine"
	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
	"github.com/roach88/autotile/internal/store"
)

// Painter applies grid edits one step at a time and keeps the auto layer
// up to date through an incremental scheduler. With a store attached every
// step is recorded for later replay.
//
// Painter is not safe for concurrent use.
type Painter struct {
	solver *engine.Solver
	sched  *engine.Scheduler
	grid   *level.IntGrid
	level  string

	store  *store.Store
	ids    store.IDGenerator
	runID  string
	seq    int64
	logger zerolog.Logger
}

// Option configures a Painter.
type Option func(*Painter)

// WithStore records the session in st. Run ids come from ids, or UUIDv7
// when ids is nil.
func WithStore(st *store.Store, ids store.IDGenerator) Option {
	return func(p *Painter) {
		p.store = st
		p.ids = ids
	}
}

// WithLogger sets the painter's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Painter) {
		p.logger = l
	}
}

// NewPainter solves lvl in full and, when a store is attached, records the
// new run. The level's grid is cloned; later edits never touch lvl.
func NewPainter(ctx context.Context, solver *engine.Solver, lvl *level.Level, opts ...Option) (*Painter, error) {
	p := &Painter{
		solver: solver,
		grid:   lvl.Grid.Clone(),
		level:  lvl.Name,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sched = engine.NewScheduler(solver, p.grid)

	if p.store == nil {
		return p, nil
	}
	if p.ids == nil {
		p.ids = store.UUIDv7Generator{}
	}

	run := &store.Run{
		ID:    p.ids.Generate(),
		Layer: solver.Layer().Name,
		Level: lvl.Name,
		Edge:  solver.Policy(),
		Seed:  solver.Seed(),
	}
	if err := p.store.CreateRun(ctx, run, solver.Layer(), p.grid, p.sched.Result()); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	p.runID = run.ID
	p.logger.Info().Str("run", run.ID).Str("layer", run.Layer).Msg("run recorded")
	return p, nil
}

// Paint applies one step of edits and returns the diff it caused.
// Edits are validated first; a rejected step changes nothing.
func (p *Painter) Paint(ctx context.Context, edits []level.Edit) (ir.Diff, error) {
	changed, err := p.grid.Apply(edits)
	if err != nil {
		return nil, err
	}
	p.sched.MarkDirty(changed...)
	diff := p.sched.Flush()
	p.seq++

	p.logger.Debug().
		Int64("seq", p.seq).
		Int("edits", len(edits)).
		Int("changed", len(changed)).
		Int("diff", len(diff)).
		Msg("paint step")

	if p.store == nil {
		return diff, nil
	}
	hash, err := ir.ResultHash(p.sched.Result())
	if err != nil {
		return nil, err
	}
	step := store.Step{Seq: p.seq, Edits: edits, Diff: diff, ResultHash: hash}
	if err := p.store.WriteStep(ctx, p.runID, step); err != nil {
		return nil, fmt.Errorf("record step %d: %w", p.seq, err)
	}
	return diff, nil
}

// Result returns a copy of the current auto-layer result.
func (p *Painter) Result() ir.SolveResult { return p.sched.Result() }

// Grid returns the painter's working grid. Callers must not modify it.
func (p *Painter) Grid() *level.IntGrid { return p.grid }

// Steps returns the number of Paint calls so far.
func (p *Painter) Steps() int64 { return p.seq }

// RunID returns the recorded run id, or "" without a store.
func (p *Painter) RunID() string { return p.runID }

// Level returns the name of the painted level.
func (p *Painter) Level() string { return p.level }

// Solver returns the solver the painter was built with.
func (p *Painter) Solver() *engine.Solver { return p.solver }
