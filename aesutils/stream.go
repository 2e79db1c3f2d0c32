package aesutils

// Map returns the results of f applied to every element of s, in order.
func Map[T1, T2 any](s []T1, f func(T1) T2) []T2 {
	out := make([]T2, 0, len(s))
	for _, v := range s {
		out = append(out, f(v))
	}

	return out
}

// Filter returns the elements of s for which keep returns true, in order. The
// input slice is left untouched.
func Filter[T any](s []T, keep func(T) bool) []T {
	var out []T
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}

	return out
}
