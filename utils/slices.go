package utils

import "slices"

// Reverse returns a reversed copy of s.
func Reverse[S ~[]E, E any](s S) S {
	out := slices.Clone(s)
	slices.Reverse(out)

	return out
}
