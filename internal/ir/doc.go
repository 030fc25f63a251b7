// Package ir provides the canonical intermediate representation for autotile.
//
// This package contains the rule data model (patterns, stamps, rules, rule
// groups, auto layers), the solve outputs (SolveResult, Diff) and the
// canonical hashing used to compare them. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Rules, groups and layers are immutable once compiled; the solver only reads them
//   - Coordinates are iterated in row-major order (Coord.Less) wherever order is observable
//   - No float types in rule data - weights are positive integers
//   - All JSON tags use snake_case
package ir
