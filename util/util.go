package util

import (
	"golang.org/x/exp/constraints"
)

func Min[A constraints.Ordered](a, b A) A {
	if a > b {
		return b
	}
	return a
}

func Max[A constraints.Ordered](a, b A) A {
	if a < b {
		return b
	}
	return a
}

// Clamp pins v into [lo, hi]. lo wins if the bounds are inverted.
func Clamp[A constraints.Ordered](v, lo, hi A) A {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func Clamp01[A constraints.Float](v A) A {
	return Clamp(v, 0, 1)
}
