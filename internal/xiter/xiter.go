// Package xiter holds small deterministic iteration helpers for id-keyed maps.
package xiter

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

// SortedValues returns the values of m ordered by ascending key.
func SortedValues[K cmp.Ordered, V any](m map[K]V) []V {
	keys := SortedKeys(m)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// Filter yields the items for which keep returns true.
func Filter[T any](items []T, keep func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range items {
			if keep(item) && !yield(item) {
				return
			}
		}
	}
}
