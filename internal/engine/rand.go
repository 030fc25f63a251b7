package engine

import "github.com/roach88/autotile/internal/ir"

// Rand is the random source used for weighted tie-breaks.
type Rand interface {
	Uint64() uint64
}

// RandFactory creates a Rand for one (anchor, group) stream.
type RandFactory func(seed uint64) Rand

// SplitMix64 is the default Rand. It is tiny, fast and fully specified, so
// solves reproduce bit-for-bit across runs and reimplementations.
type SplitMix64 struct {
	state uint64
}

// NewSplitMix64 seeds a SplitMix64 stream.
func NewSplitMix64(seed uint64) Rand {
	return &SplitMix64{state: seed}
}

const golden64 = 0x9e3779b97f4a7c15

// Uint64 returns the next value of the stream.
func (r *SplitMix64) Uint64() uint64 {
	r.state += golden64
	return mix64(r.state)
}

func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// DeriveSeed computes the stream seed of one anchor within one group.
// Coordinates are folded as 32-bit two's complement.
func DeriveSeed(base uint64, c ir.Coord, group int) uint64 {
	h := mix64(base + golden64)
	h = mix64(h ^ (uint64(uint32(int32(c.X))) | uint64(uint32(int32(c.Y)))<<32))
	return mix64(h ^ uint64(group))
}

// pickWeighted draws an index with probability weights[i]/sum(weights).
// Weights are validated positive at compile time.
func pickWeighted(r Rand, weights []int) int {
	total := uint64(0)
	for _, w := range weights {
		total += uint64(w)
	}
	n := r.Uint64() % total
	for i, w := range weights {
		if n < uint64(w) {
			return i
		}
		n -= uint64(w)
	}
	return len(weights) - 1
}
