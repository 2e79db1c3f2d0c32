package sim

import (
	"errors"
	"fmt"

	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/pipeline"
	"github.com/lightninglabs/aesctrl/prng"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/lightningnetwork/lnd/queue"
)

// DefaultHistorySize is the number of tick records kept in memory.
const DefaultHistorySize = 256

var (
	// ErrTickBudgetExhausted is returned when a run does not finish within
	// its tick budget.
	ErrTickBudgetExhausted = errors.New("tick budget exhausted")

	// ErrAlert is returned when the controller raises its alert during a
	// run.
	ErrAlert = errors.New("controller alert raised")

	// ErrRequestPending is returned when a request is presented while an
	// earlier one has not been accepted yet.
	ErrRequestPending = errors.New("request already pending")
)

// Config configures a Harness.
type Config struct {
	// Controller is the controller configuration.
	Controller cipherctrl.Config

	// SubBytesLatency and KeyExpandLatency drive the pipeline models.
	// They default to the S-box default latency and one tick.
	SubBytesLatency  pipeline.LatencyFunc
	KeyExpandLatency pipeline.LatencyFunc

	// PRNG configures the masking PRNG model.
	PRNG prng.Config

	// Ready is the downstream consumer. It defaults to AlwaysReady.
	Ready ReadyPolicy

	// Faults schedules fault injection.
	Faults FaultPlan

	// HistorySize bounds the in-memory history. It defaults to
	// DefaultHistorySize.
	HistorySize int

	// Sink, if set, receives every tick record.
	Sink TraceSink
}

// Harness connects a controller to its upstream producer, downstream
// consumer, pipelines and PRNG, and evaluates one tick per call to Step.
type Harness struct {
	cfg Config

	ctrl *cipherctrl.Controller
	sub  *pipeline.SubBytes
	key  *pipeline.KeyExpand
	prng *prng.PRNG

	tick    uint64
	pending fn.Option[cipherctrl.Request]
	waited  uint32

	history *queue.CircularBuffer
}

// New creates a harness with an idle controller.
func New(cfg Config) (*Harness, error) {
	ctrl, err := cipherctrl.NewController(cfg.Controller)
	if err != nil {
		return nil, err
	}

	if cfg.SubBytesLatency == nil {
		cfg.SubBytesLatency = pipeline.Fixed(
			pipeline.DefaultLatency(cfg.Controller.SBoxImpl),
		)
	}
	if cfg.KeyExpandLatency == nil {
		cfg.KeyExpandLatency = pipeline.Fixed(1)
	}
	if cfg.Ready == nil {
		cfg.Ready = AlwaysReady()
	}
	if cfg.HistorySize == 0 {
		cfg.HistorySize = DefaultHistorySize
	}

	history, err := queue.NewCircularBuffer(cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("unable to create history: %w", err)
	}

	rng, err := prng.New(cfg.PRNG)
	if err != nil {
		return nil, err
	}

	return &Harness{
		cfg:     cfg,
		ctrl:    ctrl,
		sub:     pipeline.NewSubBytes(cfg.SubBytesLatency),
		key:     pipeline.NewKeyExpand(cfg.KeyExpandLatency),
		prng:    rng,
		history: history,
	}, nil
}

// Controller returns the controller under test.
func (h *Harness) Controller() *cipherctrl.Controller {
	return h.ctrl
}

// PRNG returns the masking PRNG model.
func (h *Harness) PRNG() *prng.PRNG {
	return h.prng
}

// Tick returns the number of the next tick to be evaluated.
func (h *Harness) Tick() uint64 {
	return h.tick
}

// Pending reports whether a presented request is still waiting to be
// accepted.
func (h *Harness) Pending() bool {
	return h.pending.IsSome()
}

// Present asserts in_valid with req from the next tick on until the
// controller accepts it.
func (h *Harness) Present(req cipherctrl.Request) error {
	if h.pending.IsSome() {
		return ErrRequestPending
	}

	h.pending = fn.Some(req)

	return nil
}

// Step evaluates one tick.
func (h *Harness) Step() (TickRecord, error) {
	in := cipherctrl.Inputs{
		OutReady:     h.cfg.Ready(h.waited),
		SubBytesReq:  h.sub.Request(),
		KeyExpandReq: h.key.Request(),
		ReseedAck:    h.prng.ReseedAck(),
	}
	h.pending.WhenSome(func(req cipherctrl.Request) {
		in.InValid = true
		in.Request = req
	})

	if fault, ok := h.cfg.Faults.at(h.tick); ok {
		if fault.Glitch != nil {
			h.ctrl.Glitch(fault.Glitch)
		}
		in.Faults = fault.Inputs
	}

	state := h.ctrl.State()
	out := h.ctrl.Step(in)

	if out.Accepted(in) {
		h.pending = fn.None[cipherctrl.Request]()
	}
	if out.OutValid && !out.Delivered(in) {
		h.waited++
	} else {
		h.waited = 0
	}

	h.sub.Tick(out)
	h.key.Tick(out)
	if err := h.prng.Tick(out); err != nil {
		return TickRecord{}, err
	}

	rec := TickRecord{
		Tick:      h.tick,
		State:     state,
		NextState: h.ctrl.State(),
		Inputs:    in,
		Outputs:   out,
	}
	h.history.Add(rec)
	h.tick++

	if h.cfg.Sink != nil {
		if err := h.cfg.Sink.WriteRecord(rec); err != nil {
			return rec, fmt.Errorf("unable to write trace: %w", err)
		}
	}

	return rec, nil
}

// RunUntil steps until pred returns true for a record, and returns that
// record.
func (h *Harness) RunUntil(pred func(TickRecord) bool,
	maxTicks uint64) (TickRecord, error) {

	for i := uint64(0); i < maxTicks; i++ {
		rec, err := h.Step()
		if err != nil {
			return rec, err
		}

		if pred(rec) {
			return rec, nil
		}
	}

	return TickRecord{}, fmt.Errorf("%w: %d ticks",
		ErrTickBudgetExhausted, maxTicks)
}

// Run presents req and steps until its result has been handed off. It fails
// with ErrAlert as soon as the controller enters Error.
func (h *Harness) Run(req cipherctrl.Request,
	maxTicks uint64) (Completion, error) {

	tr, err := h.Start(req)
	if err != nil {
		return Completion{}, err
	}

	var alertErr error
	_, err = h.RunUntil(func(rec TickRecord) bool {
		done, err := tr.Observe(rec)
		if err != nil {
			alertErr = err
			return true
		}

		return done
	}, maxTicks)
	switch {
	case err != nil:
		return tr.Completion(), err

	case alertErr != nil:
		return tr.Completion(), alertErr
	}

	c := tr.Completion()
	log.Debugf("Completed %v request in %d ticks", c.Kind, c.Latency())

	return c, nil
}

// Start presents req and returns a tracker that follows it through the
// handshakes. The caller feeds it the records produced by Step.
func (h *Harness) Start(req cipherctrl.Request) (*Tracker, error) {
	if err := h.Present(req); err != nil {
		return nil, err
	}

	return &Tracker{
		h: h,
		c: Completion{
			Request: req,
			Kind:    req.Classify(),
		},
		reseeds: h.prng.Reseeds(),
	}, nil
}

// Tracker follows a single request from its presentation to the hand-off of
// its result.
type Tracker struct {
	h *Harness
	c Completion

	accepted bool
	done     bool
	reseeds  uint64
}

// Observe consumes the record of a tick and reports whether the result has
// been handed off. It returns ErrAlert once the controller enters Error.
func (t *Tracker) Observe(rec TickRecord) (bool, error) {
	if t.done {
		return true, nil
	}

	if rec.NextState == cipherctrl.StateError {
		return false, fmt.Errorf("%w at tick %d in state %v", ErrAlert,
			rec.Tick, rec.State)
	}

	if !t.accepted && rec.Outputs.Accepted(rec.Inputs) {
		t.accepted = true
		t.c.AcceptTick = rec.Tick
	}

	if !t.accepted || !rec.Outputs.Delivered(rec.Inputs) {
		return false, nil
	}

	t.done = true
	t.c.DoneTick = rec.Tick
	if t.c.Kind == cipherctrl.KindCipher {
		t.c.RoundKeys = t.h.key.RoundKeys()
	}
	t.c.Reseeded = t.h.prng.Reseeds() > t.reseeds

	return true, nil
}

// Accepted reports whether the controller has taken the request.
func (t *Tracker) Accepted() bool {
	return t.accepted
}

// Completion returns what is known about the request so far.
func (t *Tracker) Completion() Completion {
	return t.c
}

// History returns the most recent tick records, oldest first.
func (h *Harness) History() []TickRecord {
	items := h.history.List()

	records := make([]TickRecord, 0, len(items))
	for _, item := range items {
		records = append(records, item.(TickRecord))
	}

	return records
}

// Reset returns the controller to Idle and drops any pending request. The
// tick count and history are kept.
func (h *Harness) Reset() {
	h.ctrl.Reset()
	h.pending = fn.None[cipherctrl.Request]()
	h.waited = 0
}
