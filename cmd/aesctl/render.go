package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lightninglabs/aesctrl/aesutils"
	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/sim"
)

// renderRecords renders one table row per tick.
func renderRecords(records []sim.TickRecord) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{
		"Tick", "State", "Next", "In", "Out", "Pipelines", "PRNG",
		"Flags",
	})

	t.AppendRows(aesutils.Map(records, recordRow))

	return t.Render()
}

// recordRow converts a single tick record into a table row.
func recordRow(rec sim.TickRecord) table.Row {
	in, out := rec.Inputs, rec.Outputs

	return table.Row{
		rec.Tick,
		rec.State,
		rec.NextState,
		handshake(in.InValid, out.InReady),
		handshake(out.OutValid, in.OutReady),
		pipelines(in, out),
		prngSignals(in, out),
		flags(out),
	}
}

// handshake renders a valid/ready pair.
func handshake(valid, ready bool) string {
	switch {
	case valid && ready:
		return "xfer"
	case valid:
		return "valid"
	case ready:
		return "ready"
	default:
		return ""
	}
}

// pipelines renders the enable, request and acknowledge signals of both
// pipelines.
func pipelines(in cipherctrl.Inputs, out cipherctrl.Outputs) string {
	var parts []string
	if out.SubBytesEn {
		parts = append(parts, "sb:en")
	}
	if in.SubBytesReq {
		parts = append(parts, "sb:req")
	}
	if out.SubBytesAck {
		parts = append(parts, "sb:ack")
	}
	if out.KeyExpandEn {
		parts = append(parts, fmt.Sprintf("ke:en(%d)",
			out.KeyExpandRound))
	}
	if in.KeyExpandReq {
		parts = append(parts, "ke:req")
	}
	if out.KeyExpandAck {
		parts = append(parts, "ke:ack")
	}
	if out.KeyExpandClear {
		parts = append(parts, "ke:clr")
	}

	return strings.Join(parts, " ")
}

// prngSignals renders the masking PRNG signals.
func prngSignals(in cipherctrl.Inputs, out cipherctrl.Outputs) string {
	var parts []string
	if out.PrngUpdate {
		parts = append(parts, "upd")
	}
	if out.PrngReseedReq {
		parts = append(parts, "req")
	}
	if in.ReseedAck {
		parts = append(parts, "ack")
	}

	return strings.Join(parts, " ")
}

// flags renders the status outputs.
func flags(out cipherctrl.Outputs) string {
	var parts []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"crypt", out.Crypt},
		{"derive", out.DeriveKey},
		{"reseed", out.Reseed},
		{"keyclr", out.KeyClear},
		{"dataclr", out.DataClear},
		{"ALERT", out.Alert},
	} {
		if f.set {
			parts = append(parts, f.name)
		}
	}

	return strings.Join(parts, " ")
}

// renderCompletion renders the summary of a completed request.
func renderCompletion(c sim.Completion) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Kind", c.Kind},
		{"Accepted at tick", c.AcceptTick},
		{"Handed off at tick", c.DoneTick},
		{"Latency (ticks)", c.Latency()},
		{"Round keys", len(c.RoundKeys)},
		{"PRNG reseeded", c.Reseeded},
	})

	if c.Kind == cipherctrl.KindCipher {
		t.AppendRow(table.Row{"Descriptor", c.Request.Descriptor()})
	}

	return t.Render()
}

// renderStates renders the state encodings.
func renderStates() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"State", "Encoding", "Terminal"})

	for _, s := range cipherctrl.AllStates() {
		t.AppendRow(table.Row{
			s, fmt.Sprintf("%#x", uint8(s)), s.IsTerminal(),
		})
	}

	return t.Render()
}
