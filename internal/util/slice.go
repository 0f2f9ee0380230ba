package util

/**
 * Generic shared utilities
 */

// SliceIncludes returns true if slice includes value
func SliceIncludes[T comparable](s []T, val T) bool {
	for _, v := range s {
		if v == val {
			return true
		}
	}
	return false
}

// SliceUnique returns the distinct non-zero values of s in first seen order
func SliceUnique[T comparable](s []T) []T {
	var zero T

	out := []T{}
	seen := map[T]bool{}

	for _, v := range s {
		if v == zero || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}

	return out
}
