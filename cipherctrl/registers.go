package cipherctrl

import (
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// maxCycleCount is where the per-round cycle counter saturates.
const maxCycleCount = ^uint8(0)

// Registers is the complete controller-owned state. It is plain data so a
// tick can compute the next value from a copy and commit it in one
// assignment.
type Registers struct {
	// State is the current control state.
	State State

	// Desc is the latched operation. It is only set between the accept
	// of a cipher request and the return to Idle.
	Desc fn.Option[Descriptor]

	// TotalRounds is fixed at accept from the key length.
	TotalRounds uint8

	// RoundCounter increases and RoundsRemaining decreases on every round
	// advance. Their sum always equals TotalRounds.
	RoundCounter    uint8
	RoundsRemaining uint8

	// CycleCounter counts ticks spent in the current round. It is reset
	// on every round advance.
	CycleCounter uint8

	// ReseedRequested, KeyClearRequested and DataClearRequested are the
	// pending-action flags latched on accept.
	ReseedRequested    bool
	KeyClearRequested  bool
	DataClearRequested bool

	// ReseedDone is set once the reseed handshake completes.
	ReseedDone bool
}

// String returns a one-line summary used in log output.
func (r Registers) String() string {
	desc := fn.MapOptionZ(r.Desc, Descriptor.String)
	if desc == "" {
		desc = "-"
	}

	return fmt.Sprintf("state=%v desc=%v round=%d/%d rem=%d cyc=%d "+
		"reseed=%v/%v clear=%v/%v", r.State, desc, r.RoundCounter,
		r.TotalRounds, r.RoundsRemaining, r.CycleCounter,
		r.ReseedRequested, r.ReseedDone, r.KeyClearRequested,
		r.DataClearRequested)
}

// idleRegisters returns the register values after reset and on every return
// to Idle.
func idleRegisters() Registers {
	return Registers{State: StateIdle}
}

// descriptor returns the latched descriptor, or the zero descriptor if none
// is latched.
func (r Registers) descriptor() Descriptor {
	return r.Desc.UnwrapOr(Descriptor{})
}

// deriving reports whether a decryption key derivation is in flight.
func (r Registers) deriving() bool {
	return r.descriptor().Mode == ModeDeriveKey
}

// roundCountersConsistent is the redundant counter integrity check.
func (r Registers) roundCountersConsistent() bool {
	return int(r.RoundCounter)+int(r.RoundsRemaining) ==
		int(r.TotalRounds)
}

// lastRegularRound reports whether the round being executed is the last one
// before the final round.
func (r Registers) lastRegularRound() bool {
	return r.TotalRounds >= 2 && r.RoundCounter == r.TotalRounds-2
}

// reseedPending reports whether the reseed handshake is still outstanding.
func (r Registers) reseedPending() bool {
	return r.ReseedRequested && !r.ReseedDone
}

// reseedSatisfied reports whether completion may be signalled with respect
// to a piggy-backed reseed.
func (r Registers) reseedSatisfied() bool {
	return !r.ReseedRequested || r.ReseedDone
}

// advanceRound moves the redundant round counters by one round.
func (r *Registers) advanceRound() {
	r.RoundCounter++
	r.RoundsRemaining--
	r.CycleCounter = 0
}
