package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/autotile/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func formatStack(tiles []ir.TileRef) string {
	if len(tiles) == 0 {
		return "empty"
	}
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		parts[i] = fmt.Sprintf("%d/%s", t.Tile, t.Variant)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func cellOf(a Assertion) ir.Coord {
	return ir.Coord{X: a.Cell[0], Y: a.Cell[1]}
}

// assertCellTiles checks the stack at one cell, bottom first.
func assertCellTiles(res ir.SolveResult, a Assertion) error {
	c := cellOf(a)
	got := res[c]

	ids := make([]int, len(got))
	variants := make([]string, len(got))
	for i, t := range got {
		ids[i] = t.Tile
		variants[i] = t.Variant.String()
	}

	if slices.Equal(ids, a.Tiles) && (len(a.Variants) == 0 || slices.Equal(variants, a.Variants)) {
		return nil
	}

	expected := fmt.Sprintf("cell %s tiles %v", c, a.Tiles)
	if len(a.Variants) > 0 {
		expected += fmt.Sprintf(" variants %v", a.Variants)
	}
	return &AssertionError{
		Type:     AssertCellTiles,
		Expected: expected,
		Actual:   formatStack(got),
	}
}

// assertCellEmpty checks that nothing is written at one cell.
func assertCellEmpty(res ir.SolveResult, a Assertion) error {
	c := cellOf(a)
	if got, ok := res[c]; ok {
		return &AssertionError{
			Type:     AssertCellEmpty,
			Expected: fmt.Sprintf("cell %s empty", c),
			Actual:   formatStack(got),
		}
	}
	return nil
}

// assertTileCount counts occurrences of a tile id across every stack.
func assertTileCount(res ir.SolveResult, a Assertion) error {
	n := 0
	for _, tiles := range res {
		for _, t := range tiles {
			if t.Tile == a.Tile {
				n++
			}
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertTileCount,
			Expected: fmt.Sprintf("tile %d placed %d times", a.Tile, a.Count),
			Actual:   fmt.Sprintf("%d times", n),
		}
	}
	return nil
}

// assertCellCount checks the number of written cells.
func assertCellCount(res ir.SolveResult, a Assertion) error {
	if len(res) != a.Count {
		return &AssertionError{
			Type:     AssertCellCount,
			Expected: fmt.Sprintf("%d written cells", a.Count),
			Actual:   fmt.Sprintf("%d", len(res)),
		}
	}
	return nil
}

// EvaluateAssertions runs all assertions against the final result.
// Returns one message per failed assertion.
func EvaluateAssertions(res ir.SolveResult, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCellTiles:
			err = assertCellTiles(res, a)
		case AssertCellEmpty:
			err = assertCellEmpty(res, a)
		case AssertTileCount:
			err = assertTileCount(res, a)
		case AssertCellCount:
			err = assertCellCount(res, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err))
		}
	}
	return errs
}
