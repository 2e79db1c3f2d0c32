package tracefile

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightningnetwork/lnd/tlv"
	"github.com/stretchr/testify/require"
)

// runTrace runs a few requests through a harness writing to sink and
// returns the in-memory history.
func runTrace(t *testing.T, sink sim.TraceSink) []sim.TickRecord {
	t.Helper()

	h, err := sim.New(sim.Config{
		Controller: cipherctrl.Config{
			Masking:  true,
			SBoxImpl: cipherctrl.SBoxDOM,
		},
		Ready:       sim.ReadyAfter(2),
		HistorySize: 1024,
		Sink:        sink,
		Faults: sim.FaultPlan{
			150: {Inputs: cipherctrl.Faults{MuxSelErr: true}},
		},
	})
	require.NoError(t, err)

	reqs := []cipherctrl.Request{
		{
			Op: cipherctrl.OpDecrypt, KeyLen: cipherctrl.KeyLen192,
			Crypt: true, Reseed: true,
		},
		{KeyClear: true, DataClear: true},
		{
			Op: cipherctrl.OpEncrypt, KeyLen: cipherctrl.KeyLen256,
			DeriveKey: true,
		},
	}
	for _, req := range reqs {
		_, err := h.Run(req, 200)
		require.NoError(t, err)
	}

	// Run into the scheduled fault so the trace ends in Error.
	_, err = h.RunUntil(func(rec sim.TickRecord) bool {
		return rec.Outputs.Alert
	}, 200)
	require.NoError(t, err)

	return h.History()
}

// TestTraceMatchesHistory checks that a trace read back from a buffer is
// identical to what the harness saw.
func TestTraceMatchesHistory(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	history := runTrace(t, w)
	require.EqualValues(t, len(history), w.Count())

	records, err := NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, history, records)

	last := records[len(records)-1]
	require.Equal(t, cipherctrl.StateError, last.State)
	require.True(t, last.Outputs.Alert)
}

// TestTraceFiles checks plain and compressed trace files.
func TestTraceFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"run.trace", "nested/run.trace.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)

			f, err := Create(path)
			require.NoError(t, err)
			history := runTrace(t, f)
			require.NoError(t, f.Close())

			records, err := ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, history, records)
		})
	}
}

// TestReaderErrors checks the handling of damaged traces.
func TestReaderErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecord(sim.TickRecord{Tick: 9}))
	encoded := buf.Bytes()

	t.Run("empty", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader(nil)).Next()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("truncated", func(t *testing.T) {
		r := NewReader(bytes.NewReader(encoded[:len(encoded)-3]))
		_, err := r.Next()
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)

		_, err = NewReader(
			bytes.NewReader(encoded[:len(encoded)-3]),
		).ReadAll()
		require.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		var b bytes.Buffer
		var scratch [8]byte
		err := tlv.WriteVarInt(&b, MaxRecordSize+1, &scratch)
		require.NoError(t, err)

		_, err = NewReader(&b).Next()
		require.ErrorIs(t, err, ErrRecordTooLarge)
	})

	t.Run("missing selectors", func(t *testing.T) {
		enc := encode(sim.TickRecord{Tick: 1})
		enc.selectors = enc.selectors[:3]
		stream, err := enc.stream()
		require.NoError(t, err)

		var payload bytes.Buffer
		require.NoError(t, stream.Encode(&payload))

		var b bytes.Buffer
		var scratch [8]byte
		err = tlv.WriteVarInt(&b, uint64(payload.Len()), &scratch)
		require.NoError(t, err)
		b.Write(payload.Bytes())

		_, err = NewReader(&b).Next()
		require.ErrorIs(t, err, ErrMalformedRecord)
	})
}
