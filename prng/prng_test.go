package prng

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockEntropy is an entropy source double.
type mockEntropy struct {
	mock.Mock
}

func (m *mockEntropy) Read(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func seededEntropy(b byte) *bytes.Reader {
	return bytes.NewReader(bytes.Repeat([]byte{b}, 1024))
}

func newTestPRNG(t *testing.T, latency uint32, seed byte) *PRNG {
	t.Helper()

	p, err := New(Config{
		ReseedLatency: latency,
		Entropy:       seededEntropy(seed),
	})
	require.NoError(t, err)

	return p
}

var update = cipherctrl.Outputs{PrngUpdate: true}

// TestDataChangesOnlyOnUpdate checks that the data is stable between update
// pulses.
func TestDataChangesOnlyOnUpdate(t *testing.T) {
	t.Parallel()

	p := newTestPRNG(t, 0, 1)
	require.Zero(t, p.Data())

	require.NoError(t, p.Tick(update))
	first := p.Data()
	require.NotZero(t, first)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Tick(cipherctrl.Outputs{}))
		require.Equal(t, first, p.Data())
	}

	require.NoError(t, p.Tick(update))
	require.NotEqual(t, first, p.Data())
	require.EqualValues(t, 2, p.Updates())
}

// TestDeterministicSeed checks that equal seeds give equal streams.
func TestDeterministicSeed(t *testing.T) {
	t.Parallel()

	a, b := newTestPRNG(t, 0, 7), newTestPRNG(t, 0, 7)
	c := newTestPRNG(t, 0, 8)

	for i := 0; i < 4; i++ {
		require.NoError(t, a.Tick(update))
		require.NoError(t, b.Tick(update))
		require.NoError(t, c.Tick(update))

		require.Equal(t, a.Data(), b.Data())
		require.NotEqual(t, a.Data(), c.Data())
	}
}

// TestReseedHandshake checks the acknowledge timing and that the stream
// changes after a reseed.
func TestReseedHandshake(t *testing.T) {
	t.Parallel()

	entropy := bytes.NewReader(append(
		bytes.Repeat([]byte{3}, 44), bytes.Repeat([]byte{4}, 44)...,
	))
	p, err := New(Config{ReseedLatency: 3, Entropy: entropy})
	require.NoError(t, err)

	ref := newTestPRNG(t, 0, 3)

	req := cipherctrl.Outputs{PrngReseedReq: true}
	for i := 0; i < 2; i++ {
		require.NoError(t, p.Tick(req))
		require.False(t, p.ReseedAck())
	}
	require.NoError(t, p.Tick(req))
	require.True(t, p.ReseedAck())

	// Held until consumed.
	require.True(t, p.ReseedAck())
	require.Zero(t, p.Reseeds())

	req.PrngUpdate = true
	require.NoError(t, p.Tick(req))
	require.NoError(t, ref.Tick(update))
	require.False(t, p.ReseedAck())
	require.EqualValues(t, 1, p.Reseeds())

	// The update on the consuming tick still used the old key, the next
	// one uses the new key.
	require.Equal(t, ref.Data(), p.Data())
	require.NoError(t, p.Tick(update))
	require.NoError(t, ref.Tick(update))
	require.NotEqual(t, ref.Data(), p.Data())
}

// TestReseedWithdrawn checks that a withdrawn request drops the
// acknowledge.
func TestReseedWithdrawn(t *testing.T) {
	t.Parallel()

	p := newTestPRNG(t, 0, 1)
	require.NoError(t, p.Tick(cipherctrl.Outputs{PrngReseedReq: true}))
	require.True(t, p.ReseedAck())

	require.NoError(t, p.Tick(cipherctrl.Outputs{}))
	require.False(t, p.ReseedAck())
	require.Zero(t, p.Reseeds())
}

// TestEntropyFailure checks that entropy errors surface on construction and
// on reseed.
func TestEntropyFailure(t *testing.T) {
	t.Parallel()

	errDrained := errors.New("drained")

	src := &mockEntropy{}
	src.On("Read", mock.Anything).Return(0, errDrained).Once()

	_, err := New(Config{Entropy: src})
	require.ErrorIs(t, err, ErrEntropy)
	require.ErrorIs(t, err, errDrained)
	src.AssertExpectations(t)

	src = &mockEntropy{}
	src.On("Read", mock.Anything).Return(44, nil).Once()
	src.On("Read", mock.Anything).Return(0, errDrained).Once()

	p, err := New(Config{Entropy: src})
	require.NoError(t, err)

	req := cipherctrl.Outputs{PrngReseedReq: true}
	require.NoError(t, p.Tick(req))
	require.ErrorIs(t, p.Tick(req), ErrEntropy)
	src.AssertExpectations(t)
}
