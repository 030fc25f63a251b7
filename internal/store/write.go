package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

// CreateRun records a new run: the header, the initial grid and the
// initial full-solve snapshot, in one transaction.
//
// The caller sets ID, Layer, Level, Edge and Seed. CreateRun fills in the
// derived fields (hashes, dimensions, versions, CreatedSeq) on run.
func (s *Store) CreateRun(ctx context.Context, run *Run, layer *ir.AutoLayer, grid ir.Grid, result ir.SolveResult) error {
	if run.ID == "" {
		return fmt.Errorf("create run: id is required")
	}

	layerHash, err := ir.LayerHash(layer)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	layerJSON, err := marshalLayer(layer)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	resultHash, err := ir.ResultHash(result)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	run.LayerHash = layerHash
	run.ResultHash = resultHash
	run.Width = grid.Width()
	run.Height = grid.Height()
	run.EngineVersion = ir.EngineVersion
	run.IRVersion = ir.IRVersion
	if run.Layer == "" {
		run.Layer = layer.Name
	}

	return s.withTx(ctx, "create run", func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(created_seq), 0) + 1 FROM runs`).Scan(&run.CreatedSeq); err != nil {
			return fmt.Errorf("next created_seq: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs
			(id, layer, layer_hash, layer_json, level, width, height, edge, fill, seed, result_hash, engine_version, ir_version, created_seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			run.Layer,
			run.LayerHash,
			layerJSON,
			run.Level,
			run.Width,
			run.Height,
			string(run.Edge.Kind),
			run.Edge.Fill,
			formatSeed(run.Seed),
			run.ResultHash,
			run.EngineVersion,
			run.IRVersion,
			run.CreatedSeq,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for y := 0; y < grid.Height(); y++ {
			for x := 0; x < grid.Width(); x++ {
				v := grid.Get(x, y)
				if v == 0 {
					continue
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO grid_cells (run_id, x, y, value) VALUES (?, ?, ?, ?)`,
					run.ID, x, y, v,
				); err != nil {
					return fmt.Errorf("insert grid cell: %w", err)
				}
			}
		}

		for _, c := range result.SortedCoords() {
			tiles, err := marshalTiles(result[c])
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO result_cells (run_id, x, y, tiles) VALUES (?, ?, ?, ?)`,
				run.ID, c.X, c.Y, tiles,
			); err != nil {
				return fmt.Errorf("insert result cell: %w", err)
			}
		}
		return nil
	})
}

// WriteEdits records the edits of paint step seq, in order.
func (s *Store) WriteEdits(ctx context.Context, runID string, seq int64, edits []level.Edit) error {
	return s.withTx(ctx, "write edits", func(tx *sql.Tx) error {
		return writeEdits(ctx, tx, runID, seq, edits)
	})
}

// WriteDiff records the diff of paint step seq and the hash of the
// cumulative result after it. An empty diff still records the step.
func (s *Store) WriteDiff(ctx context.Context, runID string, seq int64, diff ir.Diff, resultHash string) error {
	return s.withTx(ctx, "write diff", func(tx *sql.Tx) error {
		return writeDiff(ctx, tx, runID, seq, diff, resultHash)
	})
}

// WriteStep records a whole paint step atomically.
func (s *Store) WriteStep(ctx context.Context, runID string, step Step) error {
	return s.withTx(ctx, "write step", func(tx *sql.Tx) error {
		if err := writeEdits(ctx, tx, runID, step.Seq, step.Edits); err != nil {
			return err
		}
		return writeDiff(ctx, tx, runID, step.Seq, step.Diff, step.ResultHash)
	})
}

func writeEdits(ctx context.Context, tx *sql.Tx, runID string, seq int64, edits []level.Edit) error {
	for i, e := range edits {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO edits (run_id, seq, idx, x, y, value)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, seq, i, e.X, e.Y, e.Value); err != nil {
			return fmt.Errorf("insert edit: %w", err)
		}
	}
	return nil
}

func writeDiff(ctx context.Context, tx *sql.Tx, runID string, seq int64, diff ir.Diff, resultHash string) error {
	// upsert: a retried WriteDiff rewrites the step hash
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO steps (run_id, seq, result_hash) VALUES (?, ?, ?)
		ON CONFLICT(run_id, seq) DO UPDATE SET result_hash = excluded.result_hash
	`, runID, seq, resultHash); err != nil {
		return fmt.Errorf("insert step: %w", err)
	}

	for _, ch := range diff {
		before, err := marshalTiles(ch.Before)
		if err != nil {
			return err
		}
		after, err := marshalTiles(ch.After)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO diffs (run_id, seq, x, y, kind, before, after)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, seq, ch.Coord.X, ch.Coord.Y, string(ch.Kind), before, after); err != nil {
			return fmt.Errorf("insert diff: %w", err)
		}
	}
	return nil
}

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
