// Package engine implements the autotile auto-layer rule solver.
//
// The solver derives tile placements for an Auto layer by matching rule
// patterns against an IntGrid.
//
// ARCHITECTURE:
//
// Components, leaves first:
//   - Sampler: reads grid values at any coordinate under the level's edge policy
//   - Matcher: tests one rule at one anchor across its enabled symmetry variants
//   - Solver: decides the winning rules per anchor, then paints their stamps
//   - Scheduler: tracks dirty cells and re-solves only the affected neighborhood
//
// Solve Flow:
//  1. Decide: every anchor in the region is evaluated independently. The
//     outcome (a list of Fires) depends only on cells within the largest
//     pattern radius of the anchor.
//  2. Paint: all fires are ordered by (group, priority, anchor row-major)
//     and write their stamps. Finalized cells reject later writes.
//
// Because decisions are local, the Scheduler caches them per anchor and
// repaints only cells whose contributing anchors were re-decided. The
// logical result always equals a full solve.
//
// CONCURRENCY:
// Solver is immutable after New and may be shared. Scheduler is not safe
// for concurrent use. Neither locks the grid: callers must not mutate the
// grid during Solve or Flush.
//
// DETERMINISM:
// Weighted tie-breaks draw from a splitmix64 stream seeded by
// (layer seed, anchor, group index). No global randomness, no wall clock.
package engine
