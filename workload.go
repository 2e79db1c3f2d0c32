package aesctrl

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"

	"github.com/lightninglabs/aesctrl/aescfg"
	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightningnetwork/lnd/queue"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Submitter accepts requests for the controller.
type Submitter interface {
	// Submit queues req and returns a job that resolves once its result
	// has been handed off.
	Submit(ctx context.Context, req cipherctrl.Request) (*Job, error)
}

// WorkloadStats counts the outcome of generated requests.
type WorkloadStats struct {
	Submitted uint64
	Dropped   uint64
	Completed uint64
	Failed    uint64
}

// Workload generates a random mix of requests at a limited rate.
type Workload struct {
	cfg       *aescfg.Workload
	submitter Submitter
	limiter   *rate.Limiter
	src       *rand.Rand

	submitted atomic.Uint64
	dropped   atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewWorkload creates a generator that submits to submitter. src must not be
// shared with other goroutines.
func NewWorkload(cfg *aescfg.Workload, submitter Submitter,
	src *rand.Rand) *Workload {

	return &Workload{
		cfg:       cfg,
		submitter: submitter,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		src:       src,
	}
}

// Stats returns a snapshot of the counters.
func (w *Workload) Stats() WorkloadStats {
	return WorkloadStats{
		Submitted: w.submitted.Load(),
		Dropped:   w.dropped.Load(),
		Completed: w.completed.Load(),
		Failed:    w.failed.Load(),
	}
}

// Run generates requests until ctx is canceled or the controller raises its
// alert. Shutting down through ctx is not an error.
func (w *Workload) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.QueueSize)

	genErr := w.generate(gctx, g)
	waitErr := g.Wait()

	if ctx.Err() != nil {
		return nil
	}
	if waitErr != nil {
		return waitErr
	}

	return genErr
}

// generate submits requests and hands every accepted job to a waiter in g.
func (w *Workload) generate(ctx context.Context, g *errgroup.Group) error {
	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}

		req := w.Next()
		job, err := w.submitter.Submit(ctx, req)
		switch {
		case errors.Is(err, queue.ErrQueueFullAndDropped):
			w.dropped.Add(1)
			continue

		case err != nil:
			return err
		}
		w.submitted.Add(1)

		g.Go(func() error {
			return w.await(ctx, job)
		})
	}
}

// await waits for a job and records its outcome. Only an alert is returned
// as an error so that the generator stops.
func (w *Workload) await(ctx context.Context, job *Job) error {
	waitCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	c, err := job.Wait(waitCtx).Unpack()
	if err != nil {
		w.failed.Add(1)
		aesdLog.Debugf("Generated job %d failed: %v", job.ID, err)

		if errors.Is(err, ErrControllerAlert) {
			return err
		}

		return nil
	}

	w.completed.Add(1)
	aesdLog.Tracef("Generated job %d done in %d ticks", job.ID,
		c.Latency())

	return nil
}

// Next draws the next request from the configured mix.
func (w *Workload) Next() cipherctrl.Request {
	keyLens := []cipherctrl.KeyLength{
		cipherctrl.KeyLen128, cipherctrl.KeyLen192,
		cipherctrl.KeyLen256,
	}
	keyLen := keyLens[w.src.IntN(len(keyLens))]

	reseed := w.src.Uint32N(100) < w.cfg.PiggyReseed

	pick := w.src.Uint64N(w.cfg.TotalWeight())
	switch {
	case pick < uint64(w.cfg.Encrypt):
		return cipherctrl.Request{
			Op:     cipherctrl.OpEncrypt,
			KeyLen: keyLen,
			Crypt:  true,
			Reseed: reseed,
		}

	case pick < uint64(w.cfg.Encrypt)+uint64(w.cfg.Decrypt):
		return cipherctrl.Request{
			Op:     cipherctrl.OpDecrypt,
			KeyLen: keyLen,
			Crypt:  true,
			Reseed: reseed,
		}

	case pick < uint64(w.cfg.Encrypt)+uint64(w.cfg.Decrypt)+
		uint64(w.cfg.Derive):

		return cipherctrl.Request{
			Op:        cipherctrl.OpDecrypt,
			KeyLen:    keyLen,
			DeriveKey: true,
			Reseed:    reseed,
		}

	case pick < w.cfg.TotalWeight()-uint64(w.cfg.Clear):
		return cipherctrl.Request{
			Reseed: true,
		}

	default:
		// Sanitize keys, data or both.
		which := w.src.IntN(3)

		return cipherctrl.Request{
			KeyClear:  which != 1,
			DataClear: which != 0,
		}
	}
}

// Compile time check.
var _ Submitter = (*Engine)(nil)
