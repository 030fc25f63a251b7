package harness

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/autotile/internal/compiler"
	"github.com/roach88/autotile/internal/engine"
	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
	"github.com/roach88/autotile/internal/session"
)

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Compile the CUE rules and select the layer; rejected rules are
//     reported as errors and dropped
//  2. Build the level and solve it in full
//  3. Paint every step through the incremental scheduler, checking the
//     result against a fresh full solve after each one
//  4. Evaluate assertions against the final result
//
// An error is returned only when the scenario cannot run at all; failed
// checks are recorded in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, zerolog.Nop())
}

// RunWithLogger is Run with solver and painter logging sent to logger.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger zerolog.Logger) (*Result, error) {
	compiled, err := loadRules(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for _, verr := range compiled.Errors {
		result.AddError(fmt.Sprintf("rules: %s", verr.Error()))
	}

	layer, err := selectLayer(compiled.RuleSet, scenario.Layer)
	if err != nil {
		return nil, err
	}
	result.Layer = layer.Name

	lvl, err := scenario.Level.Build(level.Options{})
	if err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	if scenario.Seed != nil {
		opts = append(opts, engine.WithSeed(*scenario.Seed))
	}
	solver, err := engine.New(layer, lvl.Edge, opts...)
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}

	painter, err := session.NewPainter(ctx, solver, lvl, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	result.Initial = painter.Result()

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seq := i + 1
		diff, err := painter.Paint(ctx, step.Set)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", seq, err)
		}
		result.Steps = append(result.Steps, StepTrace{Seq: seq, Edits: step.Set, Diff: diff})

		incremental := painter.Result()
		if full := solver.SolveAll(painter.Grid()); !full.Equal(incremental) {
			result.AddError(fmt.Sprintf(
				"step %d: incremental result differs from full solve: %d changed cells",
				seq, len(engine.FullDiff(full, incremental)),
			))
		}
		if step.ExpectChanges != nil && len(diff) != *step.ExpectChanges {
			result.AddError(fmt.Sprintf("step %d: expected %d changed cells, got %d", seq, *step.ExpectChanges, len(diff)))
		}
	}

	result.Final = painter.Result()
	for _, msg := range EvaluateAssertions(result.Final, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func loadRules(s *Scenario) (*compiler.Result, error) {
	if s.RulesSource != "" {
		res, err := compiler.Load([]byte(s.RulesSource), s.Name+".cue")
		if err != nil {
			return nil, fmt.Errorf("rules: %w", err)
		}
		return res, nil
	}
	res, err := compiler.LoadFile(s.Rules)
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return res, nil
}

func selectLayer(rs *ir.RuleSet, name string) (*ir.AutoLayer, error) {
	if name != "" {
		layer, ok := rs.Layer(name)
		if !ok {
			return nil, fmt.Errorf("layer %q not found in rules", name)
		}
		return layer, nil
	}
	if len(rs.Layers) != 1 {
		return nil, fmt.Errorf("rules declare %d layers; scenario must name one", len(rs.Layers))
	}
	return &rs.Layers[0], nil
}
