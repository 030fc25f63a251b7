// Package harness runs solver test scenarios.
//
// A scenario compiles a CUE rule file, solves a starting level, paints a
// sequence of edits through the incremental scheduler and asserts on the
// final auto-layer result. After every step the incremental result is
// compared against a fresh full solve of the edited grid; any difference
// fails the scenario.
//
// # Scenario Format
//
//	name: wall_shore
//	description: "Shore tiles follow the top edge of a wall"
//	rules: rules/walls.cue        # or rules_source: |  (inline CUE)
//	layer: walls                  # optional when the file has one layer
//	seed: 7                       # optional, overrides the layer seed
//	level:
//	  edge: empty
//	  rows:
//	    - [0, 0, 0]
//	    - [0, 1, 0]
//	steps:
//	  - set: [{x: 1, y: 0, value: 1}]
//	    expect_changes: 2
//	assertions:
//	  - type: cell_tiles
//	    cell: [1, 0]
//	    tiles: [1, 2]
//	  - type: cell_empty
//	    cell: [0, 0]
//	  - type: tile_count
//	    tile: 2
//	    count: 1
//	  - type: cell_count
//	    count: 2
//
// # Assertion Types
//
//   - cell_tiles: the stack at a cell holds exactly the listed tiles, bottom
//     first, optionally with their variants
//   - cell_empty: nothing is written at a cell
//   - tile_count: a tile id appears exactly N times across all stacks
//   - cell_count: exactly N cells are written
//
// # Golden Snapshots
//
// Snapshot renders the initial solve, each step's diff and the final result
// as canonical JSON. RunWithGolden compares it against
// testdata/golden/{name}.golden, so any change in solver output shows up as
// a golden diff.
package harness
