// Package sets provides a generic hash set used for path and extension bookkeeping.
package sets

import (
	"cmp"
	"maps"
	"slices"
)

// Set is a hash set for comparable keys. The zero value is not usable; call New.
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with vals.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has reports whether v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v if present.
func (s Set[T]) Delete(v T) { delete(s, v) }

// DeleteFunc removes every element for which del returns true and reports how many were removed.
func (s Set[T]) DeleteFunc(del func(T) bool) int {
	n := 0
	for v := range s {
		if del(v) {
			delete(s, v)
			n++
		}
	}
	return n
}

// Len returns the number of elements.
func (s Set[T]) Len() int { return len(s) }

// Sorted returns the elements in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	return slices.Sorted(maps.Keys(s))
}
