package subscribe_test

import (
	"context"
	"testing"
	"time"

	"github.com/lightninglabs/aesctrl/subscribe"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// TestSubscribe checks that every client sees every update in order and
// that canceled clients stop receiving.
func TestSubscribe(t *testing.T) {
	t.Parallel()

	s := subscribe.NewServer[int]()
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		require.NoError(t, s.Stop())
	})

	a, err := s.Subscribe()
	require.NoError(t, err)
	b, err := s.Subscribe()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SendUpdate(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	for _, c := range []*subscribe.Client[int]{a, b} {
		for i := 0; i < 5; i++ {
			got, err := c.Next(ctx)
			require.NoError(t, err)
			require.Equal(t, i, got)
		}
	}

	a.Cancel()
	select {
	case <-a.Quit():
	case <-time.After(testTimeout):
		t.Fatal("client not canceled")
	}

	_, err = a.Next(ctx)
	require.ErrorIs(t, err, subscribe.ErrClientCanceled)

	// The remaining client still gets updates.
	require.NoError(t, s.SendUpdate(7))
	got, err := b.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, got)
}

// TestServerStop checks that stopping the server releases its clients.
func TestServerStop(t *testing.T) {
	t.Parallel()

	s := subscribe.NewServer[string]()
	require.NoError(t, s.Start())

	c, err := s.Subscribe()
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	select {
	case <-c.Quit():
	case <-time.After(testTimeout):
		t.Fatal("client not released")
	}

	_, err = s.Subscribe()
	require.ErrorIs(t, err, subscribe.ErrServerShuttingDown)
	require.ErrorIs(t, s.SendUpdate("x"), subscribe.ErrServerShuttingDown)
}
