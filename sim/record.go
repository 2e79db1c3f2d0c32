package sim

import (
	"fmt"

	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/pipeline"
)

// TickRecord captures everything that happened on a single tick.
type TickRecord struct {
	// Tick is the tick number, starting at zero.
	Tick uint64

	// State is the state the tick was evaluated in and NextState the
	// state committed at its end.
	State     cipherctrl.State
	NextState cipherctrl.State

	// Inputs and Outputs are the controller signals of the tick.
	Inputs  cipherctrl.Inputs
	Outputs cipherctrl.Outputs
}

// String returns a one-line summary of the record.
func (r TickRecord) String() string {
	return fmt.Sprintf("tick=%d %v->%v in_valid=%v out_valid=%v "+
		"alert=%v", r.Tick, r.State, r.NextState, r.Inputs.InValid,
		r.Outputs.OutValid, r.Outputs.Alert)
}

// TraceSink receives every tick record as it is produced.
type TraceSink interface {
	WriteRecord(rec TickRecord) error
}

// Completion describes a request from its accept to the hand-off of its
// result.
type Completion struct {
	// Request is the request as presented.
	Request cipherctrl.Request

	// Kind is the classification of the request.
	Kind cipherctrl.RequestKind

	// AcceptTick and DoneTick are the ticks of the upstream and the
	// downstream handshake.
	AcceptTick uint64
	DoneTick   uint64

	// RoundKeys are the round keys produced by the key expansion. Only
	// cipher requests carry them.
	RoundKeys []pipeline.RoundKey

	// Reseeded is true if the masking PRNG was reseeded.
	Reseeded bool
}

// Latency returns the number of ticks from accept to hand-off, inclusive.
func (c Completion) Latency() uint64 {
	return c.DoneTick - c.AcceptTick + 1
}
