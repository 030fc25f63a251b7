package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

const runColumns = `id, layer, layer_hash, level, width, height, edge, fill, seed, result_hash, engine_version, ir_version, created_seq`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var edge, seed string
	err := row.Scan(
		&run.ID,
		&run.Layer,
		&run.LayerHash,
		&run.Level,
		&run.Width,
		&run.Height,
		&edge,
		&run.Edge.Fill,
		&seed,
		&run.ResultHash,
		&run.EngineVersion,
		&run.IRVersion,
		&run.CreatedSeq,
	)
	if err != nil {
		return Run{}, err
	}
	run.Edge.Kind = ir.EdgeKind(edge)
	if run.Seed, err = parseSeed(seed); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ReadRun returns the header of one run.
// Returns an error wrapping ErrRunNotFound if the id is unknown.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %q: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run ordered by creation.
// Returns an empty slice (not nil) for an empty database.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadLayer returns the compiled layer recorded with a run.
func (s *Store) ReadLayer(ctx context.Context, id string) (*ir.AutoLayer, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT layer_json FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read layer %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read layer %q: %w", id, err)
	}
	return unmarshalLayer(data)
}

// ReadGrid rebuilds the initial IntGrid of a run.
func (s *Store) ReadGrid(ctx context.Context, id string) (*level.IntGrid, error) {
	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	grid := level.NewIntGrid(run.Width, run.Height)

	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, value FROM grid_cells
		WHERE run_id = ?
		ORDER BY y ASC, x ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query grid cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, v int
		if err := rows.Scan(&x, &y, &v); err != nil {
			return nil, fmt.Errorf("scan grid cell: %w", err)
		}
		if err := grid.Set(x, y, v); err != nil {
			return nil, fmt.Errorf("read grid %q: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grid cells: %w", err)
	}
	return grid, nil
}

// ReadSnapshot returns the initial full-solve result of a run.
func (s *Store) ReadSnapshot(ctx context.Context, id string) (ir.SolveResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, tiles FROM result_cells
		WHERE run_id = ?
		ORDER BY y ASC, x ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query result cells: %w", err)
	}
	defer rows.Close()

	result := make(ir.SolveResult)
	for rows.Next() {
		var c ir.Coord
		var data string
		if err := rows.Scan(&c.X, &c.Y, &data); err != nil {
			return nil, fmt.Errorf("scan result cell: %w", err)
		}
		tiles, err := unmarshalTiles(data)
		if err != nil {
			return nil, err
		}
		result[c] = tiles
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result cells: %w", err)
	}
	return result, nil
}

// ReadEdits returns every edit of a run ordered by step, then by position
// within the step.
func (s *Store) ReadEdits(ctx context.Context, id string) ([]EditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, x, y, value FROM edits
		WHERE run_id = ?
		ORDER BY seq ASC, idx ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query edits: %w", err)
	}
	defer rows.Close()

	records := []EditRecord{}
	for rows.Next() {
		var r EditRecord
		if err := rows.Scan(&r.Seq, &r.Edit.X, &r.Edit.Y, &r.Edit.Value); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edits: %w", err)
	}
	return records, nil
}

// ReadDiffs returns every cell change of a run ordered seq ASC, y ASC, x ASC.
func (s *Store) ReadDiffs(ctx context.Context, id string) ([]DiffRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, x, y, kind, before, after FROM diffs
		WHERE run_id = ?
		ORDER BY seq ASC, y ASC, x ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query diffs: %w", err)
	}
	defer rows.Close()

	records := []DiffRecord{}
	for rows.Next() {
		var r DiffRecord
		var kind, before, after string
		if err := rows.Scan(&r.Seq, &r.Change.Coord.X, &r.Change.Coord.Y, &kind, &before, &after); err != nil {
			return nil, fmt.Errorf("scan diff: %w", err)
		}
		r.Change.Kind = ir.ChangeKind(kind)
		if r.Change.Before, err = unmarshalTiles(before); err != nil {
			return nil, err
		}
		if r.Change.After, err = unmarshalTiles(after); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diffs: %w", err)
	}
	return records, nil
}

// ReadSteps assembles the paint steps of a run in seq order.
func (s *Store) ReadSteps(ctx context.Context, id string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, result_hash FROM steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []Step{}
	index := make(map[int64]int)
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.Seq, &st.ResultHash); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		index[st.Seq] = len(steps)
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}

	edits, err := s.ReadEdits(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, r := range edits {
		i, ok := index[r.Seq]
		if !ok {
			return nil, fmt.Errorf("read steps: edit for unrecorded step %d", r.Seq)
		}
		steps[i].Edits = append(steps[i].Edits, r.Edit)
	}

	diffs, err := s.ReadDiffs(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, r := range diffs {
		i, ok := index[r.Seq]
		if !ok {
			return nil, fmt.Errorf("read steps: diff for unrecorded step %d", r.Seq)
		}
		steps[i].Diff = append(steps[i].Diff, r.Change)
	}
	return steps, nil
}
