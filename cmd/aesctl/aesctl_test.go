package main

import (
	"bytes"
	"testing"

	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/stretchr/testify/require"
)

// TestParseFault checks every named fault.
func TestParseFault(t *testing.T) {
	t.Parallel()

	fault, err := parseFault("mux")
	require.NoError(t, err)
	require.True(t, fault.Inputs.MuxSelErr)

	fault, err = parseFault("sparse")
	require.NoError(t, err)
	require.True(t, fault.Inputs.SparseEncErr)

	fault, err = parseFault("op")
	require.NoError(t, err)
	require.True(t, fault.Inputs.OpErr)

	fault, err = parseFault("counter")
	require.NoError(t, err)
	require.False(t, fault.Inputs.Any())

	var regs cipherctrl.Registers
	fault.Glitch(&regs)
	require.EqualValues(t, 1, regs.RoundsRemaining)

	_, err = parseFault("laser")
	require.Error(t, err)
}

// TestParseState checks that every state name round trips.
func TestParseState(t *testing.T) {
	t.Parallel()

	for _, s := range cipherctrl.AllStates() {
		got, err := parseState(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}

	_, err := parseState("Sleep")
	require.Error(t, err)
}

// TestRecordFilter checks the dump filters.
func TestRecordFilter(t *testing.T) {
	t.Parallel()

	records := []sim.TickRecord{
		{Tick: 0, State: cipherctrl.StateIdle,
			NextState: cipherctrl.StateInit},
		{Tick: 1, State: cipherctrl.StateInit,
			NextState: cipherctrl.StateRound},
		{Tick: 2, State: cipherctrl.StateRound,
			NextState: cipherctrl.StateRound},
		{Tick: 3, State: cipherctrl.StateRound,
			NextState: cipherctrl.StateFinish},
	}

	require.Len(t, recordFilter{}.apply(records), 4)
	require.Len(t, recordFilter{from: 1, to: 2}.apply(records), 2)
	require.Len(t, recordFilter{transitions: true}.apply(records), 3)

	round := cipherctrl.StateRound
	got := recordFilter{state: &round}.apply(records)
	require.Len(t, got, 2)
	require.EqualValues(t, 2, got[0].Tick)
}

// TestRender checks that the tables carry the expected content.
func TestRender(t *testing.T) {
	t.Parallel()

	states := renderStates()
	for _, s := range cipherctrl.AllStates() {
		require.Contains(t, states, s.String())
	}

	rows := renderRecords([]sim.TickRecord{{
		Tick:      7,
		State:     cipherctrl.StateFinish,
		NextState: cipherctrl.StateIdle,
		Inputs:    cipherctrl.Inputs{OutReady: true},
		Outputs: cipherctrl.Outputs{
			OutValid: true,
			Crypt:    true,
		},
	}})
	require.Contains(t, rows, "Finish")
	require.Contains(t, rows, "xfer")
	require.Contains(t, rows, "crypt")

	summary := renderCompletion(sim.Completion{
		Request: cipherctrl.Request{
			Op:     cipherctrl.OpEncrypt,
			KeyLen: cipherctrl.KeyLen128,
			Crypt:  true,
		},
		Kind:       cipherctrl.KindCipher,
		AcceptTick: 0,
		DoneTick:   11,
	})
	require.Contains(t, summary, "encrypt/AES-128")
	require.Contains(t, summary, "12")
}

// TestRunScenarioPrintsTraceOnBudget checks that the trace of a request that
// runs out of ticks is still printed.
func TestRunScenarioPrintsTraceOnBudget(t *testing.T) {
	t.Parallel()

	h, err := sim.New(sim.Config{})
	require.NoError(t, err)

	req := cipherctrl.Request{
		Op:     cipherctrl.OpEncrypt,
		KeyLen: cipherctrl.KeyLen128,
		Crypt:  true,
	}

	var buf bytes.Buffer
	err = runScenario(&buf, h, req, 4, false)
	require.ErrorIs(t, err, sim.ErrTickBudgetExhausted)
	require.Contains(t, buf.String(), cipherctrl.StateInit.String())
	require.NotContains(t, buf.String(), "Handed off")

	// A quiet run prints nothing but still reports the failure.
	h, err = sim.New(sim.Config{})
	require.NoError(t, err)

	buf.Reset()
	err = runScenario(&buf, h, req, 4, true)
	require.ErrorIs(t, err, sim.ErrTickBudgetExhausted)
	require.Empty(t, buf.String())
}

// TestRunScenarioAlert checks that an alert is reported as an outcome.
func TestRunScenarioAlert(t *testing.T) {
	t.Parallel()

	h, err := sim.New(sim.Config{
		Faults: sim.FaultPlan{
			2: {Inputs: cipherctrl.Faults{OpErr: true}},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = runScenario(&buf, h, cipherctrl.Request{
		Op:     cipherctrl.OpEncrypt,
		KeyLen: cipherctrl.KeyLen128,
		Crypt:  true,
	}, 100, false)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Controller alert")
	require.Contains(t, buf.String(), cipherctrl.StateError.String())
}
