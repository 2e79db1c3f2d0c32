package aesutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLogClosureLazy makes sure the closure is only evaluated when the
// logger actually formats it.
func TestLogClosureLazy(t *testing.T) {
	t.Parallel()

	calls := 0
	c := NewLogClosure(func() string {
		calls++
		return "state"
	})
	require.Zero(t, calls)

	require.Equal(t, "state", c.String())
	require.Equal(t, 1, calls)
}

// TestSpewLogClosure checks that struct fields show up in the dump.
func TestSpewLogClosure(t *testing.T) {
	t.Parallel()

	type request struct {
		KeyLen uint16
		Reseed bool
	}

	out := SpewLogClosure(request{KeyLen: 192, Reseed: true}).String()
	require.Contains(t, out, "KeyLen: (uint16) 192")
	require.Contains(t, out, "Reseed: (bool) true")

	sep := NewSeparatorClosure().String()
	require.Len(t, sep, 80)
	require.Empty(t, strings.Trim(sep, "="))
}

// TestMap checks the slice mapping helper.
func TestMap(t *testing.T) {
	t.Parallel()

	out := Map([]int{1, 2, 3}, func(i int) int { return i * 10 })
	require.Equal(t, []int{10, 20, 30}, out)
	require.Empty(t, Map(nil, func(i int) int { return i }))
}

// TestFilter checks that filtering keeps order and leaves the input alone.
func TestFilter(t *testing.T) {
	t.Parallel()

	in := []int{1, 2, 3, 4, 5}
	even := Filter(in, func(i int) bool { return i%2 == 0 })
	require.Equal(t, []int{2, 4}, even)
	require.Equal(t, []int{1, 2, 3, 4, 5}, in)
	require.Empty(t, Filter(in, func(int) bool { return false }))
}
