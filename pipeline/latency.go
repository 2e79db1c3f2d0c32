package pipeline

import (
	"math/rand/v2"

	"github.com/lightninglabs/aesctrl/cipherctrl"
)

// LatencyFunc returns the number of ticks the next evaluation takes. Values
// below one are treated as one.
type LatencyFunc func() uint32

// Fixed returns a latency function that always takes n ticks.
func Fixed(n uint32) LatencyFunc {
	return func() uint32 {
		return n
	}
}

// Jitter returns a latency function that draws uniformly from [lo, hi]
// using src.
func Jitter(src *rand.Rand, lo, hi uint32) LatencyFunc {
	if hi < lo {
		lo, hi = hi, lo
	}
	span := hi - lo + 1

	return func() uint32 {
		return lo + src.Uint32N(span)
	}
}

// DefaultLatency returns the substitution latency of an S-box
// implementation. The domain-oriented masking S-box is pipelined over
// several ticks, every other variant produces its result after one tick.
func DefaultLatency(impl cipherctrl.SBoxImpl) uint32 {
	if impl.MultiTick() {
		return 5
	}

	return 1
}
