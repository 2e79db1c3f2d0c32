package sim

import (
	"math/rand/v2"

	"github.com/lightninglabs/aesctrl/cipherctrl"
)

// ReadyPolicy decides whether the downstream consumer is ready on a tick.
// waited is the number of earlier consecutive ticks a result has been
// offered without being taken.
type ReadyPolicy func(waited uint32) bool

// AlwaysReady returns a consumer that never applies backpressure.
func AlwaysReady() ReadyPolicy {
	return func(uint32) bool {
		return true
	}
}

// ReadyAfter returns a consumer that takes a result once it has been
// offered for n ticks.
func ReadyAfter(n uint32) ReadyPolicy {
	return func(waited uint32) bool {
		return waited >= n
	}
}

// RandomReady returns a consumer that is ready with probability p on every
// tick.
func RandomReady(src *rand.Rand, p float64) ReadyPolicy {
	return func(uint32) bool {
		return src.Float64() < p
	}
}

// Fault is a disturbance applied on a single tick.
type Fault struct {
	// Inputs are the fault indications presented to the controller.
	Inputs cipherctrl.Faults

	// Glitch, if set, upsets the controller registers before the tick is
	// evaluated.
	Glitch func(*cipherctrl.Registers)
}

// FaultPlan schedules faults by tick number.
type FaultPlan map[uint64]Fault

// at returns the fault scheduled for tick, if any.
func (f FaultPlan) at(tick uint64) (Fault, bool) {
	if f == nil {
		return Fault{}, false
	}

	fault, ok := f[tick]

	return fault, ok
}
