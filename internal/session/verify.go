package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/autotile/internal/engine"
	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/store"
)

// Mismatch kinds reported by Verify.
const (
	MismatchSnapshot    = "snapshot"    // recorded snapshot differs from a fresh full solve
	MismatchRecorded    = "recorded"    // snapshot + diffs differs from the recorded step hash
	MismatchIncremental = "incremental" // snapshot + diffs differs from a fresh full solve
	MismatchRescheduled = "rescheduled" // edits re-run through a new scheduler differ from a fresh full solve
)

// Mismatch is one failed replay check.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	Kind     string `json:"kind"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("step %d: %s mismatch: expected %s, got %s", m.Seq, m.Kind, short(m.Expected), short(m.Actual))
}

// Report summarizes the replay of one run.
type Report struct {
	RunID      string     `json:"run_id"`
	Layer      string     `json:"layer"`
	Steps      int        `json:"steps"`
	ResultHash string     `json:"result_hash"`
	Mismatches []Mismatch `json:"mismatches"`

	// EngineVersion is the solver version that recorded the run. Runs from
	// another version may legitimately differ.
	EngineVersion string `json:"engine_version"`
}

// OK reports whether every check passed.
func (r Report) OK() bool { return len(r.Mismatches) == 0 }

// Verify replays a recorded run.
func Verify(ctx context.Context, st *store.Store, runID string, logger zerolog.Logger) (Report, error) {
	sess, err := st.LoadSession(ctx, runID)
	if err != nil {
		return Report{}, err
	}
	return VerifySession(sess, logger)
}

// VerifySession rebuilds the cumulative result from the recorded snapshot
// and diffs and checks it at every step against the recorded hash and a
// fresh full solve of the replayed grid.
func VerifySession(sess *store.Session, logger zerolog.Logger) (Report, error) {
	report := Report{
		RunID:         sess.Run.ID,
		Layer:         sess.Run.Layer,
		Steps:         len(sess.Steps),
		Mismatches:    []Mismatch{},
		EngineVersion: sess.Run.EngineVersion,
	}
	if sess.Run.EngineVersion != ir.EngineVersion {
		logger.Warn().
			Str("run", sess.Run.ID).
			Str("recorded", sess.Run.EngineVersion).
			Str("current", ir.EngineVersion).
			Msg("run recorded by another engine version")
	}

	solver, err := engine.New(sess.Layer, sess.Run.Edge, engine.WithSeed(sess.Run.Seed))
	if err != nil {
		return report, fmt.Errorf("replay %s: %w", sess.Run.ID, err)
	}

	grid := sess.Grid.Clone()
	cumulative := sess.Snapshot.Clone()
	schedGrid := sess.Grid.Clone()
	sched := engine.NewScheduler(solver, schedGrid)

	check := func(seq int64, kind, expected string, actual ir.SolveResult) error {
		hash, err := ir.ResultHash(actual)
		if err != nil {
			return err
		}
		if hash != expected {
			report.Mismatches = append(report.Mismatches, Mismatch{Seq: seq, Kind: kind, Expected: expected, Actual: hash})
		}
		return nil
	}
	fullHash := func() (string, error) {
		return ir.ResultHash(solver.SolveAll(grid))
	}

	expected, err := fullHash()
	if err != nil {
		return report, err
	}
	if err := check(0, MismatchSnapshot, expected, cumulative); err != nil {
		return report, err
	}

	for _, step := range sess.Steps {
		if _, err := grid.Apply(step.Edits); err != nil {
			return report, fmt.Errorf("replay %s step %d: %w", sess.Run.ID, step.Seq, err)
		}
		engine.ApplyDiff(cumulative, step.Diff)

		if err := check(step.Seq, MismatchRecorded, step.ResultHash, cumulative); err != nil {
			return report, err
		}
		expected, err := fullHash()
		if err != nil {
			return report, err
		}
		if err := check(step.Seq, MismatchIncremental, expected, cumulative); err != nil {
			return report, err
		}

		changed, err := schedGrid.Apply(step.Edits)
		if err != nil {
			return report, fmt.Errorf("replay %s step %d: %w", sess.Run.ID, step.Seq, err)
		}
		sched.MarkDirty(changed...)
		sched.Flush()
		if err := check(step.Seq, MismatchRescheduled, expected, sched.Result()); err != nil {
			return report, err
		}
	}

	if report.ResultHash, err = ir.ResultHash(cumulative); err != nil {
		return report, err
	}
	logger.Debug().
		Str("run", report.RunID).
		Int("steps", report.Steps).
		Int("mismatches", len(report.Mismatches)).
		Msg("replay verified")
	return report, nil
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
