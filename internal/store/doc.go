// Package store provides SQLite-backed durable storage for autotile solve
// logs.
//
// A run records everything needed to reproduce a painting session:
//   - Runs: the compiled layer (JSON plus content hash), edge policy, seed
//   - Grid cells: the initial IntGrid (non-empty cells only)
//   - Result cells: the initial full-solve snapshot
//   - Steps, edits, diffs: each flushed paint step with its edits, the
//     diff it produced and the hash of the cumulative result
//
// # Ordering
//
// All ordering uses logical sequence numbers, never timestamps. Reads are
// ordered seq ASC, y ASC, x ASC so replays see identical data every time.
// Runs are listed by created_seq, a per-database counter assigned on insert.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Tile stacks are stored as canonical JSON (internal/ir/canonical.go) so the
// same result always serializes to the same bytes.
package store
