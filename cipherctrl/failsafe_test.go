package cipherctrl

import (
	"testing"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// registersIn returns a consistent register file for the given state.
func registersIn(s State) Registers {
	desc := fn.Some(Descriptor{
		Op: OpEncrypt, KeyLen: KeyLen128, Mode: ModeNormal,
	})

	switch s {
	case StateInit:
		return Registers{
			State: s, Desc: desc, TotalRounds: 10,
			RoundsRemaining: 10,
		}

	case StateRound:
		return Registers{
			State: s, Desc: desc, TotalRounds: 10,
			RoundCounter: 3, RoundsRemaining: 7,
		}

	case StateFinish:
		return Registers{
			State: s, Desc: desc, TotalRounds: 10,
			RoundCounter: 9, RoundsRemaining: 1,
		}

	case StatePrngReseed:
		return Registers{State: s, ReseedRequested: true}

	case StateClearState, StateClearKeyData:
		return Registers{
			State: s, KeyClearRequested: true,
			DataClearRequested: true,
		}

	default:
		return Registers{State: s}
	}
}

// requireQuiet asserts that no handshake or write enable is raised.
func requireQuiet(t *testing.T, out Outputs) {
	t.Helper()

	require.False(t, out.InReady)
	require.False(t, out.OutValid)
	require.False(t, out.StateWE)
	require.False(t, out.KeyFullWE)
	require.False(t, out.KeyDecWE)
	require.False(t, out.SubBytesEn)
	require.False(t, out.SubBytesAck)
	require.False(t, out.KeyExpandEn)
	require.False(t, out.KeyExpandAck)
	require.False(t, out.PrngUpdate)
	require.False(t, out.PrngReseedReq)
	require.Equal(t, KeyWordsZero, out.KeyWords)
}

// TestFaultInEveryState injects each external fault in every state and
// checks that Error is entered and never left.
func TestFaultInEveryState(t *testing.T) {
	t.Parallel()

	faults := map[string]Faults{
		"mux":    {MuxSelErr: true},
		"sparse": {SparseEncErr: true},
		"op":     {OpErr: true},
		"all": {
			MuxSelErr: true, SparseEncErr: true, OpErr: true,
		},
	}

	for _, state := range AllStates() {
		for name, fault := range faults {
			t.Run(state.String()+"/"+name, func(t *testing.T) {
				c := newTestController(t, maskedCfg)
				c.Glitch(func(r *Registers) {
					*r = registersIn(state)
				})

				in := idealInputs()
				in.InValid = true
				in.Request = Request{
					Op: OpEncrypt, KeyLen: KeyLen128,
					Crypt: true,
				}
				in.Faults = fault

				out := c.Step(in)
				requireQuiet(t, out)
				require.Equal(t, state == StateError, out.Alert)
				require.Equal(t, StateError, c.State())
				require.Equal(t,
					Registers{State: StateError},
					c.Registers(),
				)

				// Nothing but a reset leaves Error.
				in.Faults = Faults{}
				for i := 0; i < 5; i++ {
					out := c.Step(in)
					requireQuiet(t, out)
					require.True(t, out.Alert)
					require.Equal(t, StateError, c.State())
				}

				c.Reset()
				require.Equal(t, StateIdle, c.State())
				require.False(t, c.Step(Inputs{}).Alert)
			})
		}
	}
}

// TestRoundCounterGlitch checks that diverging redundant counters are
// detected.
func TestRoundCounterGlitch(t *testing.T) {
	t.Parallel()

	glitches := map[string]func(*Registers){
		"counter": func(r *Registers) {
			r.RoundCounter++
		},
		"remaining": func(r *Registers) {
			r.RoundsRemaining--
		},
		"total": func(r *Registers) {
			r.TotalRounds = 12
		},
	}

	for name, glitch := range glitches {
		t.Run(name, func(t *testing.T) {
			c := newTestController(t, unmaskedCfg)
			c.Glitch(func(r *Registers) {
				*r = registersIn(StateRound)
			})
			c.Step(idealInputs())
			require.Equal(t, StateRound, c.State())

			c.Glitch(glitch)

			out := c.Step(idealInputs())
			requireQuiet(t, out)
			require.Equal(t, StateError, c.State())
			require.True(t, c.Step(Inputs{}).Alert)
		})
	}
}

// TestInvalidStateEncoding checks that an undefined state encoding is
// treated as a fault.
func TestInvalidStateEncoding(t *testing.T) {
	t.Parallel()

	c := newTestController(t, unmaskedCfg)
	c.Glitch(func(r *Registers) {
		r.State = State(numStates + 3)
	})

	out := c.Step(idealInputs())
	requireQuiet(t, out)
	require.Equal(t, StateError, c.State())
}

// TestProtocolViolations checks that accepting a handshake without a usable
// request is a fault.
func TestProtocolViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  Request
	}{
		{"no request", Request{}},
		{"invalid key length", Request{
			Op: OpEncrypt, KeyLen: KeyLength(64), Crypt: true,
		}},
		{"invalid operation", Request{
			KeyLen: KeyLen128, Crypt: true,
		}},
		{"invalid derive", Request{
			Op: Operation(9), KeyLen: KeyLen256, DeriveKey: true,
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController(t, unmaskedCfg)

			out := c.Step(Inputs{InValid: true, Request: tc.req})
			require.False(t, out.InReady)
			require.Equal(t, StateError, c.State())
			require.True(t, c.Step(Inputs{}).Alert)
		})
	}
}

// TestFaultWithholdsResult checks that a result ready for hand-off is not
// released on the tick a fault is seen.
func TestFaultWithholdsResult(t *testing.T) {
	t.Parallel()

	for _, state := range []State{
		StateFinish, StatePrngReseed, StateClearKeyData,
	} {
		t.Run(state.String(), func(t *testing.T) {
			c := newTestController(t, unmaskedCfg)
			c.Glitch(func(r *Registers) {
				*r = registersIn(state)
				r.ReseedDone = true
			})

			in := idealInputs()
			in.Faults.SparseEncErr = true

			out := c.Step(in)
			require.False(t, out.OutValid)
			require.False(t, out.Delivered(in))
			require.Equal(t, StateError, c.State())
		})
	}
}
