// Package session drives painting sessions over a level and verifies
// recorded ones.
//
// A Painter owns a working copy of the level grid and an incremental
// scheduler. Each Paint call is one step: edits are applied, the affected
// neighborhood is re-solved and the resulting diff returned. With a store
// attached, the initial snapshot and every step are recorded.
//
// Verify replays a recorded run: starting from the stored snapshot it
// applies the stored diffs step by step and compares the cumulative result
// both with the recorded hash and with a fresh full solve of the replayed
// grid. The recorded edits are also re-run through a new scheduler and
// checked against the same full solve. A clean report shows the solver is
// deterministic and that incremental flushes matched full solves for the
// whole session.
package session
