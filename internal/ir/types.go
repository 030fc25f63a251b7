package ir

import (
	"fmt"
	"slices"
)

// NoTile marks a hole in a multi-cell stamp. Holes never write to the result.
const NoTile = -1

// Coord addresses one grid cell.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns c translated by (dx, dy).
func (c Coord) Add(dx, dy int) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy}
}

// Less reports whether c precedes o in row-major order.
func (c Coord) Less(o Coord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// Compare orders coordinates row-major, for use with slices.SortFunc.
func (c Coord) Compare(o Coord) int {
	switch {
	case c == o:
		return 0
	case c.Less(o):
		return -1
	default:
		return 1
	}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid is the IntGrid data source consumed by the solver.
// Get is only called with in-bounds coordinates.
type Grid interface {
	Width() int
	Height() int
	Get(x, y int) int
}

// InBounds reports whether c lies inside g.
func InBounds(g Grid, c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width() && c.Y < g.Height()
}

// Region is a sorted, duplicate-free set of anchor cells.
type Region []Coord

// NewRegion sorts and deduplicates coords into a Region.
func NewRegion(coords []Coord) Region {
	r := slices.Clone(coords)
	slices.SortFunc(r, Coord.Compare)
	return Region(slices.Compact(r))
}

// FullRegion returns every cell of a width x height grid in row-major order.
func FullRegion(width, height int) Region {
	r := make(Region, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r = append(r, Coord{X: x, Y: y})
		}
	}
	return r
}

// EdgeKind selects how out-of-bounds samples are answered.
type EdgeKind string

const (
	// EdgeEmpty treats out-of-bounds cells as 0.
	EdgeEmpty EdgeKind = "empty"
	// EdgeValue treats out-of-bounds cells as EdgePolicy.Fill.
	EdgeValue EdgeKind = "value"
	// EdgeClamp answers with the nearest in-bounds cell.
	EdgeClamp EdgeKind = "clamp"
)

// ValidEdgeKinds defines allowed edge policy kinds.
var ValidEdgeKinds = map[EdgeKind]bool{
	EdgeEmpty: true,
	EdgeValue: true,
	EdgeClamp: true,
}

// EdgePolicy is the out-of-bounds sampling policy of one level.
type EdgePolicy struct {
	Kind EdgeKind `json:"kind"`
	Fill int      `json:"fill,omitempty"` // used by EdgeValue only
}

func (p EdgePolicy) String() string {
	if p.Kind == EdgeValue {
		return fmt.Sprintf("%s(%d)", p.Kind, p.Fill)
	}
	return string(p.Kind)
}

// Pattern is a square, odd-sized matrix of cell matchers, stored row-major.
// The center cell is the anchor.
type Pattern struct {
	Size  int           `json:"size"`
	Cells []CellMatcher `json:"cells"`
}

// Radius returns the pattern's half-width.
func (p Pattern) Radius() int {
	return p.Size / 2
}

// At returns the matcher at the centered offset (dx, dy).
func (p Pattern) At(dx, dy int) CellMatcher {
	r := p.Radius()
	return p.Cells[(dy+r)*p.Size+(dx+r)]
}

// Stamp is the block of tile ids a rule writes around its anchor.
// Tiles are row-major; the cell at (OriginX, OriginY) lands on the anchor.
type Stamp struct {
	Width   int   `json:"width"`
	Height  int   `json:"height"`
	OriginX int   `json:"origin_x"`
	OriginY int   `json:"origin_y"`
	Tiles   []int `json:"tiles"`
	Weight  int   `json:"weight"`
}

// SingleTile builds a 1x1 stamp.
func SingleTile(tile int) Stamp {
	return Stamp{Width: 1, Height: 1, Tiles: []int{tile}, Weight: 1}
}

// Reach returns the largest Chebyshev distance from the origin to any stamp cell.
func (s Stamp) Reach() int {
	return max(s.OriginX, s.Width-1-s.OriginX, s.OriginY, s.Height-1-s.OriginY)
}

// Rule is one compiled auto-layer rule.
type Rule struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Priority int     `json:"priority"`
	Pattern  Pattern `json:"pattern"`
	Stamps   []Stamp `json:"stamps"`

	// Weight is the rule's share in a same-priority tie set.
	Weight int `json:"weight"`

	AllowRotation bool `json:"allow_rotation"`
	AllowMirrorX  bool `json:"allow_mirror_x"`
	AllowMirrorY  bool `json:"allow_mirror_y"`

	// BreakOnMatch finalizes the anchor and every cell the rule writes.
	BreakOnMatch bool `json:"break_on_match"`
	// Additive appends to a cell's tiles instead of replacing them.
	Additive bool `json:"additive"`
	// OrientationInvariant writes stamps untransformed, whatever variant matched.
	OrientationInvariant bool `json:"orientation_invariant"`
	// TargetsEmpty lets the rule anchor on and write to empty cells.
	TargetsEmpty bool `json:"targets_empty"`

	// SourceValues, when non-empty, restricts the anchor's own value.
	SourceValues []int `json:"source_values,omitempty"`
}

// RuleGroup is an ordered sequence of rules that can be toggled as a whole.
type RuleGroup struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Rules  []Rule `json:"rules"`
}

// AutoLayer is the full rule set of one Auto layer. The edge policy is not
// part of it: it belongs to the level being solved.
type AutoLayer struct {
	Name   string      `json:"name"`
	Seed   uint64      `json:"seed"`
	Groups []RuleGroup `json:"groups"`
}

// RuleSet is a compiled rule file; it may declare several layers.
type RuleSet struct {
	Layers []AutoLayer `json:"layers"`
}

// Layer returns the layer with the given name.
func (rs *RuleSet) Layer(name string) (*AutoLayer, bool) {
	for i := range rs.Layers {
		if rs.Layers[i].Name == name {
			return &rs.Layers[i], true
		}
	}
	return nil, false
}

// TileRef is one placed tile and the symmetry transform it was written under.
type TileRef struct {
	Tile    int     `json:"tile"`
	Variant Variant `json:"variant"`
}

// SolveResult maps each written cell to its ordered tile stack.
// Cells without tiles are absent.
type SolveResult map[Coord][]TileRef

// Clone returns a deep copy of r.
func (r SolveResult) Clone() SolveResult {
	out := make(SolveResult, len(r))
	for c, tiles := range r {
		out[c] = slices.Clone(tiles)
	}
	return out
}

// SortedCoords returns the written cells in row-major order.
func (r SolveResult) SortedCoords() []Coord {
	coords := make([]Coord, 0, len(r))
	for c := range r {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, Coord.Compare)
	return coords
}

// Equal reports whether two results hold identical stacks.
func (r SolveResult) Equal(o SolveResult) bool {
	if len(r) != len(o) {
		return false
	}
	for c, tiles := range r {
		other, ok := o[c]
		if !ok || !slices.Equal(tiles, other) {
			return false
		}
	}
	return true
}

// ChangeKind classifies a cell change in a Diff.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// CellChange is one cell's before/after stacks.
type CellChange struct {
	Coord  Coord      `json:"coord"`
	Kind   ChangeKind `json:"kind"`
	Before []TileRef  `json:"before,omitempty"`
	After  []TileRef  `json:"after,omitempty"`
}

// Diff is the set of cell changes produced by one incremental flush,
// in row-major order.
type Diff []CellChange

// Empty reports whether the diff changes nothing.
func (d Diff) Empty() bool {
	return len(d) == 0
}
