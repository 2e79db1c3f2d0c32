package pipeline

// Rendezvous is implemented by every handshake partner of the controller.
// Request reports whether the partner has a result to hand over on the
// current tick.
type Rendezvous interface {
	Request() bool
}

// Unit is a Moore-style model of a pipeline that takes a variable number of
// ticks per evaluation. Its request output only depends on its own state,
// so it can be sampled before the controller evaluates a tick.
//
// An evaluation starts on a tick with the enable asserted and runs while the
// enable stays asserted. The result is held until acknowledged. An
// acknowledge together with the enable starts the next evaluation on the
// same tick. Dropping the enable discards any evaluation in flight.
type Unit struct {
	name    string
	latency LatencyFunc

	busy      bool
	remaining uint32
	done      bool

	evaluations uint64
	acks        uint64
	strayAcks   uint64
}

// NewUnit creates an idle unit.
func NewUnit(name string, latency LatencyFunc) *Unit {
	return &Unit{
		name:    name,
		latency: latency,
	}
}

// Request reports whether a result is waiting to be acknowledged.
func (u *Unit) Request() bool {
	return u.done
}

// Busy reports whether an evaluation is in flight.
func (u *Unit) Busy() bool {
	return u.busy
}

// Tick advances the unit by one tick given the signals driven by the
// controller on that tick.
func (u *Unit) Tick(en, ack, clear bool) {
	if ack && !u.done {
		u.strayAcks++
		log.Warnf("%s: acknowledge without pending result", u.name)
	}

	if clear || !en {
		u.reset()
		return
	}

	if u.done {
		if !ack {
			return
		}

		u.done = false
		u.acks++
	}

	if !u.busy {
		u.busy = true
		u.remaining = max(u.latency(), 1)
		u.evaluations++

		log.Tracef("%s: evaluation %d started, latency=%d", u.name,
			u.evaluations, u.remaining)
	}

	u.remaining--
	if u.remaining == 0 {
		u.busy = false
		u.done = true
	}
}

// Evaluations returns the number of evaluations started.
func (u *Unit) Evaluations() uint64 {
	return u.evaluations
}

// Acks returns the number of results that were acknowledged.
func (u *Unit) Acks() uint64 {
	return u.acks
}

// StrayAcks returns the number of acknowledges seen without a pending
// result.
func (u *Unit) StrayAcks() uint64 {
	return u.strayAcks
}

func (u *Unit) reset() {
	u.busy = false
	u.done = false
	u.remaining = 0
}

// ideal is a partner that always has a result.
type ideal struct{}

// Request always returns true.
func (ideal) Request() bool {
	return true
}

// Ideal returns a partner that is always ready. It is used to check exact
// per-tick sequences of the controller.
func Ideal() Rendezvous {
	return ideal{}
}
