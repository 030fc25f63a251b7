package level

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/autotile/internal/ir"
)

// Edit sets one cell of an IntGrid.
type Edit struct {
	X     int `yaml:"x" json:"x"`
	Y     int `yaml:"y" json:"y"`
	Value int `yaml:"value" json:"value"`
}

func (e Edit) String() string {
	return fmt.Sprintf("%d,%d=%d", e.X, e.Y, e.Value)
}

// ParseEdit parses the "x,y=value" form used on the command line.
func ParseEdit(s string) (Edit, error) {
	pos, val, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok {
		return Edit{}, fmt.Errorf("edit %q: want x,y=value", s)
	}
	xs, ys, ok := strings.Cut(pos, ",")
	if !ok {
		return Edit{}, fmt.Errorf("edit %q: want x,y=value", s)
	}

	var e Edit
	var err error
	if e.X, err = strconv.Atoi(strings.TrimSpace(xs)); err != nil {
		return Edit{}, fmt.Errorf("edit %q: bad x: %w", s, err)
	}
	if e.Y, err = strconv.Atoi(strings.TrimSpace(ys)); err != nil {
		return Edit{}, fmt.Errorf("edit %q: bad y: %w", s, err)
	}
	if e.Value, err = strconv.Atoi(strings.TrimSpace(val)); err != nil {
		return Edit{}, fmt.Errorf("edit %q: bad value: %w", s, err)
	}
	return e, nil
}

// Apply performs edits in order and returns the cells whose value changed.
// The grid is left untouched if any edit is rejected.
func (g *IntGrid) Apply(edits []Edit) ([]ir.Coord, error) {
	for _, e := range edits {
		if !g.inBounds(e.X, e.Y) {
			return nil, fmt.Errorf("edit %s on %dx%d grid: %w", e, g.width, g.height, ErrOutOfBounds)
		}
		if e.Value < 0 {
			return nil, fmt.Errorf("edit %s: %w", e, ErrNegativeValue)
		}
	}

	var changed []ir.Coord
	for _, e := range edits {
		if g.Get(e.X, e.Y) == e.Value {
			continue
		}
		g.cells[e.Y*g.width+e.X] = e.Value
		changed = append(changed, ir.Coord{X: e.X, Y: e.Y})
	}
	return changed, nil
}
