package math

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// MipLevels is floor(log2(max(width, height))) + 1. A zero-sized image still
// has one level.
func MipLevels(width, height uint32) uint32 {
	m := max(width, height)
	if m == 0 {
		return 1
	}
	return uint32(bits.Len32(m))
}

// MipExtent halves a dimension once, never going below 1.
func MipExtent(d uint32) uint32 {
	if d > 1 {
		return d / 2
	}
	return 1
}

// MipChain returns the width and height of every level, level 0 first.
func MipChain(width, height uint32) [][2]uint32 {
	levels := MipLevels(width, height)
	chain := make([][2]uint32, levels)
	w, h := max(width, 1), max(height, 1)
	for i := range chain {
		chain[i] = [2]uint32{w, h}
		w, h = MipExtent(w), MipExtent(h)
	}
	return chain
}
