// Package shuffle produces uniformly random permutations of sequences.
package shuffle

import (
	"iter"
	"math/rand/v2"
	"slices"
	"time"
)

// New returns a PCG-backed generator. A zero seed picks one from the clock.
func New(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Shuffle drains seq into a new slice in uniformly random order.
//
// It uses the inside-out form of Fisher-Yates, so the sequence is consumed
// exactly once and its length need not be known up front.
func Shuffle[T any](seq iter.Seq[T], r *rand.Rand) []T {
	var result []T
	for s := range seq {
		j := r.IntN(len(result) + 1)
		if j == len(result) {
			result = append(result, s)
			continue
		}
		result = append(result, result[j])
		result[j] = s
	}
	return result
}

// Slice returns a shuffled copy of items. The input is left untouched.
func Slice[T any](items []T, r *rand.Rand) []T {
	return Shuffle(slices.Values(items), r)
}

// Take returns at most n leading items of s.
func Take[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
