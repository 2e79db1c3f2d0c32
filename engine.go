package aesctrl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightninglabs/aesctrl/aesutils"
	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightninglabs/aesctrl/subscribe"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/lightningnetwork/lnd/ticker"
)

const (
	// DefaultTickInterval is the default wall clock time between two
	// controller ticks.
	DefaultTickInterval = time.Millisecond

	// DefaultMaxJobTicks is the default number of ticks a job may take
	// from its presentation to the hand-off of its result.
	DefaultMaxJobTicks = 10_000
)

var (
	// ErrEngineStopped is returned for jobs that cannot complete because
	// the engine is shutting down.
	ErrEngineStopped = errors.New("engine stopped")

	// ErrControllerAlert is returned for every job once the controller
	// has raised its alert. Only a restart leaves the Error state.
	ErrControllerAlert = errors.New("controller alert raised")
)

// StateChange is sent to state subscribers on every committed transition.
type StateChange struct {
	// Tick is the tick that caused the transition.
	Tick uint64

	// From and To are the states before and after the tick.
	From cipherctrl.State
	To   cipherctrl.State
}

// EngineConfig holds the dependencies of an Engine.
type EngineConfig struct {
	// Harness configures the controller and its simulated peers.
	Harness sim.Config

	// Ticker paces the controller clock.
	Ticker ticker.Ticker

	// Clock is used to time jobs.
	Clock clock.Clock

	// QueueSize is the capacity of the job queue.
	QueueSize int

	// DropMin and DropMax are the random early drop thresholds of the
	// job queue. A DropMax of zero disables early drops.
	DropMin int
	DropMax int

	// DropRand optionally replaces the random source of the early drop
	// predicate.
	DropRand func() float64

	// MaxJobTicks bounds the number of ticks a single job may take.
	MaxJobTicks uint64

	// Metrics, if set, records engine activity.
	Metrics *Metrics
}

// Engine drives a controller from a ticker and serves cipher requests
// submitted by concurrent callers one at a time.
type Engine struct {
	started sync.Once
	stopped sync.Once

	cfg EngineConfig

	harness *sim.Harness
	jobs    *queue.BackpressureQueue[*Job]
	ready   chan *Job
	states  *subscribe.Server[StateChange]
	gm      *fn.GoroutineManager

	nextID  atomic.Uint64
	alerted atomic.Bool
	ticks   atomic.Uint64

	// current and tracker are only accessed by the tick loop.
	current *Job
	tracker *sim.Tracker
}

// NewEngine creates an engine. Start must be called before jobs are served.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Ticker == nil {
		return nil, errors.New("engine requires a ticker")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.QueueSize <= 0 {
		return nil, fmt.Errorf("invalid queue size %d", cfg.QueueSize)
	}
	if cfg.MaxJobTicks == 0 {
		cfg.MaxJobTicks = DefaultMaxJobTicks
	}

	harness, err := sim.New(cfg.Harness)
	if err != nil {
		return nil, err
	}

	drop := func(int, *Job) bool {
		return false
	}
	if cfg.DropMax > 0 {
		var opts []queue.REDOption
		if cfg.DropRand != nil {
			opts = append(opts, queue.WithRandSource(cfg.DropRand))
		}
		drop = queue.RandomEarlyDrop[*Job](
			cfg.DropMin, cfg.DropMax, opts...,
		)
	}

	return &Engine{
		cfg:     cfg,
		harness: harness,
		jobs:    queue.NewBackpressureQueue[*Job](cfg.QueueSize, drop),
		ready:   make(chan *Job),
		states:  subscribe.NewServer[StateChange](),
		gm:      fn.NewGoroutineManager(),
	}, nil
}

// Start launches the tick loop and the job feeder.
func (e *Engine) Start() error {
	var startErr error
	e.started.Do(func() {
		engnLog.Info("Engine starting")

		if err := e.states.Start(); err != nil {
			startErr = err
			return
		}

		ctx := context.Background()
		ok := e.gm.Go(ctx, e.feedJobs)
		ok = ok && e.gm.Go(ctx, e.tickLoop)
		if !ok {
			startErr = ErrEngineStopped
		}
	})

	return startErr
}

// Stop halts the tick loop. Jobs that have not completed fail with
// ErrEngineStopped.
func (e *Engine) Stop() error {
	var stopErr error
	e.stopped.Do(func() {
		engnLog.Info("Engine shutting down...")
		defer engnLog.Debug("Engine shutdown complete")

		e.gm.Stop()
		e.drainJobs()

		stopErr = e.states.Stop()
	})

	return stopErr
}

// Submit queues req. The returned job resolves once the result has been
// handed off downstream. queue.ErrQueueFullAndDropped is returned if the
// queue shed the request.
func (e *Engine) Submit(ctx context.Context,
	req cipherctrl.Request) (*Job, error) {

	if e.alerted.Load() {
		return nil, ErrControllerAlert
	}

	select {
	case <-e.gm.Done():
		return nil, ErrEngineStopped
	default:
	}

	job := newJob(e.nextID.Add(1), req, e.cfg.Clock.Now())
	err := e.jobs.Enqueue(ctx, job)
	switch {
	case errors.Is(err, queue.ErrQueueFullAndDropped):
		e.cfg.Metrics.dropped(req.Classify())
		engnLog.Debugf("Dropped job %d (%v)", job.ID, req.Classify())

		return nil, err

	case err != nil:
		return nil, err
	}

	e.cfg.Metrics.submitted(req.Classify())

	return job, nil
}

// SubscribeStates returns a client that receives a StateChange for every
// transition of the controller.
func (e *Engine) SubscribeStates() (*subscribe.Client[StateChange], error) {
	return e.states.Subscribe()
}

// Alerted reports whether the controller has raised its alert.
func (e *Engine) Alerted() bool {
	return e.alerted.Load()
}

// Ticks returns the number of ticks evaluated so far.
func (e *Engine) Ticks() uint64 {
	return e.ticks.Load()
}

// feedJobs moves queued jobs to the tick loop one at a time.
//
// NOTE: This MUST be run as a goroutine.
func (e *Engine) feedJobs(ctx context.Context) {
	for {
		job, err := e.jobs.Dequeue(ctx).Unpack()
		if err != nil {
			return
		}

		select {
		case e.ready <- job:
		case <-ctx.Done():
			job.resolve(fn.Err[sim.Completion](ErrEngineStopped))
			return
		}
	}
}

// tickLoop evaluates one controller tick per ticker event.
//
// NOTE: This MUST be run as a goroutine.
func (e *Engine) tickLoop(ctx context.Context) {
	e.cfg.Ticker.Resume()
	defer e.cfg.Ticker.Stop()

	for {
		select {
		case <-e.cfg.Ticker.Ticks():
			if err := e.tick(); err != nil {
				engnLog.Errorf("Tick failed: %v", err)
				e.failCurrent(err)
			}

		case <-ctx.Done():
			e.failCurrent(ErrEngineStopped)
			return
		}
	}
}

// tick evaluates a single controller tick and advances the current job.
func (e *Engine) tick() error {
	if e.current == nil {
		select {
		case job := <-e.ready:
			e.startJob(job)
		default:
		}
	}

	rec, err := e.harness.Step()
	if err != nil {
		return err
	}
	e.ticks.Add(1)
	e.cfg.Metrics.ticked(rec.NextState)

	if rec.State != rec.NextState {
		engnLog.Tracef("Tick %d: %v -> %v", rec.Tick, rec.State,
			rec.NextState)

		err := e.states.SendUpdate(StateChange{
			Tick: rec.Tick,
			From: rec.State,
			To:   rec.NextState,
		})
		if err != nil {
			return err
		}
	}

	if rec.NextState == cipherctrl.StateError && !e.alerted.Load() {
		e.alerted.Store(true)
		e.cfg.Metrics.alert()

		engnLog.Criticalf("Controller alert raised at tick %d in "+
			"state %v", rec.Tick, rec.State)
		engnLog.Debugf("%v\nTick record at alert: %v",
			aesutils.NewSeparatorClosure(),
			aesutils.NewLogClosure(func() string {
				return fmt.Sprintf("%+v", rec)
			}))
	}

	if e.current == nil {
		return nil
	}

	done, err := e.tracker.Observe(rec)
	switch {
	case err != nil:
		e.failCurrent(fmt.Errorf("%w: %v", ErrControllerAlert, err))

	case done:
		e.completeCurrent()

	case e.harness.Tick()-e.current.startTick > e.cfg.MaxJobTicks:
		e.failCurrent(fmt.Errorf("job %d: %w", e.current.ID,
			sim.ErrTickBudgetExhausted))

		// The controller may still hold the request. A reset returns
		// it to Idle unless it has raised its alert.
		if !e.alerted.Load() {
			e.harness.Reset()
		}
	}

	return nil
}

// startJob presents job to the controller.
func (e *Engine) startJob(job *Job) {
	if e.alerted.Load() {
		job.resolve(fn.Err[sim.Completion](ErrControllerAlert))
		return
	}

	tracker, err := e.harness.Start(job.Request)
	if err != nil {
		job.resolve(fn.Err[sim.Completion](err))
		return
	}

	job.startTick = e.harness.Tick()
	e.current = job
	e.tracker = tracker

	engnLog.Debugf("Presenting job %d: %v", job.ID, job.Request.Classify())
}

// completeCurrent resolves the current job with its completion.
func (e *Engine) completeCurrent() {
	job := e.current
	c := e.tracker.Completion()

	e.cfg.Metrics.completed(c, e.cfg.Clock.Now().Sub(job.Submitted))
	engnLog.Debugf("Job %d completed in %d ticks", job.ID, c.Latency())

	job.resolve(fn.Ok(c))
	e.current, e.tracker = nil, nil
}

// failCurrent resolves the current job, if any, with err.
func (e *Engine) failCurrent(err error) {
	if e.current == nil {
		return
	}

	e.cfg.Metrics.failed(e.current.Request.Classify())
	engnLog.Warnf("Job %d failed: %v", e.current.ID, err)

	e.current.resolve(fn.Err[sim.Completion](err))
	e.current, e.tracker = nil, nil
}

// drainJobs fails every job still waiting in the queue. It must only be
// called once the feeder has exited.
func (e *Engine) drainJobs() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for {
		job, err := e.jobs.Dequeue(ctx).Unpack()
		if err != nil {
			return
		}

		job.resolve(fn.Err[sim.Completion](ErrEngineStopped))
	}
}

// Job is a request submitted to the engine.
type Job struct {
	// ID is the process-unique ID of the job.
	ID uint64

	// Request is the submitted request.
	Request cipherctrl.Request

	// Submitted is the time the job was queued.
	Submitted time.Time

	startTick uint64

	once   sync.Once
	done   chan struct{}
	result fn.Result[sim.Completion]
}

// newJob creates an unresolved job.
func newJob(id uint64, req cipherctrl.Request, now time.Time) *Job {
	return &Job{
		ID:        id,
		Request:   req,
		Submitted: now,
		done:      make(chan struct{}),
	}
}

// resolve sets the result of the job. Only the first call has an effect.
func (j *Job) resolve(r fn.Result[sim.Completion]) {
	j.once.Do(func() {
		j.result = r
		close(j.done)
	})
}

// Done returns a channel that is closed once the job is resolved.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job is resolved or ctx is done.
func (j *Job) Wait(ctx context.Context) fn.Result[sim.Completion] {
	// A resolved job wins over an expired context.
	select {
	case <-j.done:
		return j.result
	default:
	}

	select {
	case <-j.done:
		return j.result

	case <-ctx.Done():
		return fn.Err[sim.Completion](ctx.Err())
	}
}
