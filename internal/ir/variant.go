package ir

// Variant is one of the eight symmetry transforms of the square.
// The numeric order is the fixed order in which variants are tried.
type Variant uint8

const (
	Identity Variant = iota
	Rot90
	Rot180
	Rot270
	MirrorX
	MirrorY
	Transpose
	AntiTranspose
)

// NumVariants is the size of the dihedral group of the square.
const NumVariants = 8

// transforms holds the 2x2 matrix {a, b, c, d} of each variant:
// x' = a*x + b*y, y' = c*x + d*y, with y pointing down.
var transforms = [NumVariants][4]int{
	Identity:      {1, 0, 0, 1},
	Rot90:         {0, -1, 1, 0},
	Rot180:        {-1, 0, 0, -1},
	Rot270:        {0, 1, -1, 0},
	MirrorX:       {-1, 0, 0, 1},
	MirrorY:       {1, 0, 0, -1},
	Transpose:     {0, 1, 1, 0},
	AntiTranspose: {0, -1, -1, 0},
}

var variantNames = [NumVariants]string{
	"identity", "rot90", "rot180", "rot270",
	"mirror_x", "mirror_y", "transpose", "anti_transpose",
}

// Apply maps the offset (dx, dy) through the transform.
func (v Variant) Apply(dx, dy int) (int, int) {
	m := transforms[v]
	return m[0]*dx + m[1]*dy, m[2]*dx + m[3]*dy
}

func (v Variant) String() string {
	if int(v) < NumVariants {
		return variantNames[v]
	}
	return "invalid"
}

// ParseVariant resolves a variant name produced by String.
func ParseVariant(s string) (Variant, bool) {
	for i, name := range variantNames {
		if name == s {
			return Variant(i), true
		}
	}
	return 0, false
}
