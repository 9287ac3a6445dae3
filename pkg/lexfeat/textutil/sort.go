package textutil

import (
	"cmp"
	"slices"
)

// SortOn returns xs reordered by ascending keys. Equal keys keep their input
// order. keys and xs must have the same length.
func SortOn[X any, K cmp.Ordered](xs []X, keys []K) []X {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(keys[a], keys[b])
	})

	out := make([]X, len(order))
	for i, j := range order {
		out[i] = xs[j]
	}
	return out
}
