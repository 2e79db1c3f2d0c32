package cipherctrl

import "fmt"

// State is the control state of the cipher controller.
type State uint8

const (
	// StateIdle advertises ready and waits for a request.
	StateIdle State = iota

	// StateInit performs the initial key addition.
	StateInit

	// StateRound runs the regular rounds.
	StateRound

	// StateFinish runs the final round and waits for the downstream
	// handshake.
	StateFinish

	// StatePrngReseed runs a standalone masking PRNG reseed.
	StatePrngReseed

	// StateClearState overwrites the working state with pseudo-random
	// data.
	StateClearState

	// StateClearKeyData clears key registers and scrubs the output
	// registers.
	StateClearKeyData

	// StateError is terminal. Only a reset leaves it.
	StateError
)

// numStates is the number of defined states.
const numStates = 8

// AllStates returns every defined state in encoding order.
func AllStates() []State {
	states := make([]State, 0, numStates)
	for s := StateIdle; s <= StateError; s++ {
		states = append(states, s)
	}

	return states
}

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateInit:
		return "Init"
	case StateRound:
		return "Round"
	case StateFinish:
		return "Finish"
	case StatePrngReseed:
		return "PrngReseed"
	case StateClearState:
		return "ClearState"
	case StateClearKeyData:
		return "ClearKeyData"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// IsTerminal returns true if no transition leaves the state.
func (s State) IsTerminal() bool {
	return s == StateError
}

// valid reports whether s is a defined encoding.
func (s State) valid() bool {
	return s <= StateError
}

// inRound reports whether the state is one of the round states in which the
// per-round cycle counter is meaningful.
func (s State) inRound() bool {
	return s == StateInit || s == StateRound || s == StateFinish
}
