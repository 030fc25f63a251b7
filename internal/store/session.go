package store

import (
	"context"
	"fmt"

	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

// Session is everything recorded for one run.
type Session struct {
	Run      Run
	Layer    *ir.AutoLayer
	Grid     *level.IntGrid
	Snapshot ir.SolveResult
	Steps    []Step
}

// LoadSession reads a complete run for replay.
func (s *Store) LoadSession(ctx context.Context, id string) (*Session, error) {
	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	layer, err := s.ReadLayer(ctx, id)
	if err != nil {
		return nil, err
	}
	grid, err := s.ReadGrid(ctx, id)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.ReadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	steps, err := s.ReadSteps(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", id, err)
	}
	return &Session{Run: run, Layer: layer, Grid: grid, Snapshot: snapshot, Steps: steps}, nil
}
