package aesctrl

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/prng"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testTimeout = 5 * time.Second

	testMaxTicks = 1000
)

var (
	testTime = time.Unix(1, 0)

	encrypt128 = cipherctrl.Request{
		Op:     cipherctrl.OpEncrypt,
		KeyLen: cipherctrl.KeyLen128,
		Crypt:  true,
	}
)

// engineHarness bundles an engine with the ticker driving it.
type engineHarness struct {
	t       *testing.T
	engine  *Engine
	force   *ticker.Force
	metrics *Metrics
}

// newEngineHarness creates an engine driven by a forced ticker. The engine is
// started if start is set.
func newEngineHarness(t *testing.T, cfg EngineConfig,
	start bool) *engineHarness {

	t.Helper()

	force := ticker.NewForce(time.Hour)
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	cfg.Ticker = force
	cfg.Clock = clock.NewTestClock(testTime)
	cfg.Metrics = metrics
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 8
	}
	cfg.Harness.PRNG = prng.Config{
		ReseedLatency: 2,
		Entropy:       bytes.NewReader(bytes.Repeat([]byte{7}, 4096)),
	}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	if start {
		require.NoError(t, engine.Start())
	}

	t.Cleanup(func() {
		require.NoError(t, engine.Stop())

		// A started engine stops its ticker itself.
		if !start {
			force.Stop()
		}
	})

	return &engineHarness{
		t:       t,
		engine:  engine,
		force:   force,
		metrics: metrics,
	}
}

// tickUntil forces ticks until done is closed.
func (h *engineHarness) tickUntil(done <-chan struct{}) {
	h.t.Helper()

	for i := 0; i < testMaxTicks; i++ {
		select {
		case <-done:
			return

		case h.force.Force <- testTime:

		case <-time.After(testTimeout):
			h.t.Fatal("unable to tick engine")
		}
	}

	h.t.Fatalf("not done after %d ticks", testMaxTicks)
}

// submit submits req and fails the test on error.
func (h *engineHarness) submit(req cipherctrl.Request) *Job {
	h.t.Helper()

	job, err := h.engine.Submit(context.Background(), req)
	require.NoError(h.t, err)

	return job
}

// wait returns the result of a resolved job.
func (h *engineHarness) wait(job *Job) (sim.Completion, error) {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	return job.Wait(ctx).Unpack()
}

// TestEngineServesJob runs a single encryption through the engine.
func TestEngineServesJob(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t, EngineConfig{}, true)

	job := h.submit(encrypt128)
	h.tickUntil(job.Done())

	c, err := h.wait(job)
	require.NoError(t, err)
	require.Equal(t, cipherctrl.KindCipher, c.Kind)
	require.Len(t, c.RoundKeys, 10)
	require.False(t, h.engine.Alerted())
	require.Greater(t, h.engine.Ticks(), c.Latency())

	kind := cipherctrl.KindCipher.String()
	require.Equal(t, 1.0, testutil.ToFloat64(
		h.metrics.submittedJobs.WithLabelValues(kind),
	))
	require.Equal(t, 1.0, testutil.ToFloat64(
		h.metrics.completedJobs.WithLabelValues(kind),
	))
}

// TestEngineSerializesJobs checks that queued jobs are served one after the
// other in submission order.
func TestEngineSerializesJobs(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t, EngineConfig{}, true)

	reqs := []cipherctrl.Request{
		encrypt128,
		{Reseed: true},
		{KeyClear: true, DataClear: true},
		{
			Op:        cipherctrl.OpDecrypt,
			KeyLen:    cipherctrl.KeyLen256,
			DeriveKey: true,
		},
	}

	jobs := make([]*Job, 0, len(reqs))
	for _, req := range reqs {
		jobs = append(jobs, h.submit(req))
	}
	h.tickUntil(jobs[len(jobs)-1].Done())

	var prev sim.Completion
	for i, job := range jobs {
		c, err := h.wait(job)
		require.NoError(t, err)
		require.Equal(t, reqs[i].Classify(), c.Kind)

		if i > 0 {
			require.Greater(t, c.AcceptTick, prev.DoneTick)
		}
		prev = c
	}
}

// TestEngineStateSubscription checks that subscribers see every transition.
func TestEngineStateSubscription(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t, EngineConfig{}, true)

	sub, err := h.engine.SubscribeStates()
	require.NoError(t, err)
	defer sub.Cancel()

	job := h.submit(cipherctrl.Request{Reseed: true})
	h.tickUntil(job.Done())

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	first, err := sub.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, cipherctrl.StateIdle, first.From)
	require.Equal(t, cipherctrl.StatePrngReseed, first.To)

	second, err := sub.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, cipherctrl.StatePrngReseed, second.From)
	require.Equal(t, cipherctrl.StateIdle, second.To)
	require.Greater(t, second.Tick, first.Tick)
}

// TestEngineAlert checks that a fault fails the job in flight and every
// later submission.
func TestEngineAlert(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t, EngineConfig{
		Harness: sim.Config{
			Faults: sim.FaultPlan{
				3: {Inputs: cipherctrl.Faults{OpErr: true}},
			},
		},
	}, true)

	job := h.submit(encrypt128)
	h.tickUntil(job.Done())

	_, err := h.wait(job)
	require.ErrorIs(t, err, ErrControllerAlert)
	require.True(t, h.engine.Alerted())
	require.Equal(t, 1.0, testutil.ToFloat64(h.metrics.alerts))

	_, err = h.engine.Submit(context.Background(), encrypt128)
	require.ErrorIs(t, err, ErrControllerAlert)
}

// TestEngineStopFailsPending checks that jobs still waiting at shutdown are
// resolved.
func TestEngineStopFailsPending(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t, EngineConfig{}, true)

	jobs := []*Job{h.submit(encrypt128), h.submit(encrypt128)}

	require.NoError(t, h.engine.Stop())

	for _, job := range jobs {
		_, err := h.wait(job)
		require.ErrorIs(t, err, ErrEngineStopped)
	}

	_, err := h.engine.Submit(context.Background(), encrypt128)
	require.ErrorIs(t, err, ErrEngineStopped)
}

// TestEngineDropsEarly checks that the queue sheds load once the drop
// threshold is reached.
func TestEngineDropsEarly(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t, EngineConfig{
		QueueSize: 4,
		DropMin:   1,
		DropMax:   2,
		DropRand: func() float64 {
			return 0
		},
	}, false)

	// The first job fits below the minimum threshold.
	h.submit(encrypt128)

	// Between the thresholds the drop probability is 0 and our source
	// never draws below it.
	h.submit(encrypt128)

	// At the maximum threshold every job is dropped.
	_, err := h.engine.Submit(context.Background(), encrypt128)
	require.ErrorIs(t, err, queue.ErrQueueFullAndDropped)

	require.Equal(t, 1.0, testutil.ToFloat64(
		h.metrics.droppedJobs.WithLabelValues(
			cipherctrl.KindCipher.String(),
		),
	))
}

// TestEngineJobTickBudget checks that a job stuck on downstream
// backpressure is abandoned.
func TestEngineJobTickBudget(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t, EngineConfig{
		Harness: sim.Config{
			Ready: func(uint32) bool {
				return false
			},
		},
		MaxJobTicks: 30,
	}, true)

	job := h.submit(encrypt128)
	h.tickUntil(job.Done())

	_, err := h.wait(job)
	require.ErrorIs(t, err, sim.ErrTickBudgetExhausted)
	require.False(t, h.engine.Alerted())
}
