package cipherctrl

import "github.com/lightningnetwork/lnd/fn/v2"

// faultCause names the reason the controller entered Error. It is only used
// for log output.
type faultCause uint8

const (
	faultNone faultCause = iota
	faultMuxSel
	faultSparseEnc
	faultOperation
	faultRoundCounter
	faultStateEncoding
	faultProtocol
	faultDescriptor
)

// String returns a human readable description of the fault cause.
func (f faultCause) String() string {
	switch f {
	case faultNone:
		return "none"
	case faultMuxSel:
		return "mux select error"
	case faultSparseEnc:
		return "sparse encoding error"
	case faultOperation:
		return "operation mismatch"
	case faultRoundCounter:
		return "round counter inconsistency"
	case faultStateEncoding:
		return "invalid state encoding"
	case faultProtocol:
		return "handshake without request"
	case faultDescriptor:
		return "invalid operation descriptor"
	default:
		return "unknown"
	}
}

// tick is the evaluation context of a single controller tick. cur is the
// committed register state and is never written. next starts as a copy of
// cur and holds the values committed at the end of the tick.
type tick struct {
	cfg   Config
	in    Inputs
	cur   Registers
	next  Registers
	out   Outputs
	cause faultCause
}

// evaluate computes the outputs of the current tick and the register values
// to commit. It is a pure function of the configuration, the committed
// registers and the inputs.
func evaluate(cfg Config, cur Registers, in Inputs) (Outputs, Registers,
	faultCause) {

	t := &tick{
		cfg:  cfg,
		in:   in,
		cur:  cur,
		next: cur,
		out:  Outputs{KeyWords: KeyWordsZero},
	}

	t.driveStatus()
	t.driveReseed()
	t.countCycles()

	switch cur.State {
	case StateIdle:
		t.idle()
	case StateInit:
		t.initial()
	case StateRound:
		t.round()
	case StateFinish:
		t.finish()
	case StatePrngReseed:
		t.prngReseed()
	case StateClearState:
		t.clearState()
	case StateClearKeyData:
		t.clearKeyData()
	case StateError:
		t.out.Alert = true
	default:
		t.cause = faultStateEncoding
	}

	return t.out, t.next, t.cause
}

// driveStatus echoes the latched request flags.
func (t *tick) driveStatus() {
	t.cur.Desc.WhenSome(func(d Descriptor) {
		t.out.Crypt = d.Mode == ModeNormal
		t.out.DeriveKey = d.Mode == ModeDeriveKey
	})
	t.out.Reseed = t.cur.ReseedRequested
	t.out.KeyClear = t.cur.KeyClearRequested
	t.out.DataClear = t.cur.DataClearRequested
}

// driveReseed runs the reseed request/acknowledge handshake. The request is
// held from the start of the operation until the acknowledge arrives.
func (t *tick) driveReseed() {
	switch t.cur.State {
	case StateInit, StateRound, StateFinish, StatePrngReseed:
	default:
		return
	}

	t.out.PrngReseedReq = t.cur.reseedPending()
	if t.out.PrngReseedReq && t.in.ReseedAck {
		t.next.ReseedDone = true
	}
}

// countCycles advances the per-round cycle counter. A round advance resets it
// again.
func (t *tick) countCycles() {
	if !t.cur.State.inRound() {
		t.next.CycleCounter = 0
		return
	}

	if t.cur.CycleCounter < maxCycleCount {
		t.next.CycleCounter = t.cur.CycleCounter + 1
	}
}

// prngUpdate reports whether fresh masking randomness is requested during a
// round state.
func (t *tick) prngUpdate() bool {
	switch {
	case !t.cfg.Masking:
		return false

	case t.cfg.domRandomness():
		return t.cur.CycleCounter == 0

	default:
		return true
	}
}

// keyExpandOp is the direction the key schedule runs in. Key derivation
// always runs it forward.
func keyExpandOp(d Descriptor) Operation {
	if d.Mode == ModeDeriveKey {
		return OpEncrypt
	}

	return d.Op
}

// toIdle returns the registers to their idle values at the end of the tick.
func (t *tick) toIdle() {
	t.next = idleRegisters()
}

func (t *tick) idle() {
	t.out.InReady = true
	if !t.in.InValid {
		return
	}

	req := t.in.Request
	switch req.Classify() {
	case KindReseed:
		t.next = Registers{
			State:           StatePrngReseed,
			ReseedRequested: true,
		}

	case KindClear:
		t.next = Registers{
			State:              StateClearKeyData,
			KeyClearRequested:  req.KeyClear,
			DataClearRequested: req.DataClear,
		}
		if req.DataClear {
			t.next.State = StateClearState
		}

	case KindCipher:
		t.acceptCipher(req)

	default:
		t.cause = faultProtocol
	}
}

// acceptCipher latches a cipher request and loads the key and input data.
func (t *tick) acceptCipher(req Request) {
	desc := req.Descriptor()
	if err := desc.Validate(); err != nil {
		log.Errorf("Rejecting cipher request: %v", err)
		t.cause = faultDescriptor

		return
	}
	total, _ := NumRounds(desc.KeyLen)

	derive := desc.Mode == ModeDeriveKey

	t.out.StateWE = true
	t.out.StateSel = StateSelInit
	if derive {
		t.out.StateSel = StateSelClear
	}

	t.out.KeyFullWE = true
	t.out.KeyFullSel = KeyFullSelEncInit
	if !derive && desc.Op == OpDecrypt {
		t.out.KeyFullSel = KeyFullSelDecInit
	}
	t.out.KeyExpandClear = true

	// The input data is masked on load.
	t.out.PrngUpdate = t.cfg.Masking && !derive

	t.next = Registers{
		State:           StateInit,
		Desc:            fn.Some(desc),
		TotalRounds:     total,
		RoundsRemaining: total,
		ReseedRequested: req.Reseed && t.cfg.Masking,
	}
}

func (t *tick) initial() {
	desc := t.cur.descriptor()
	derive := desc.Mode == ModeDeriveKey

	t.out.AddRKSel = AddRKSelInit
	t.out.KeyWords = SelectKeyWords(
		desc.Mode, desc.KeyLen, desc.Op, PositionInit,
	)
	t.out.RoundKeySel = RoundKeyDirect
	t.out.KeyExpandOp = keyExpandOp(desc)
	t.out.KeyExpandRound = t.cur.RoundCounter + 1
	t.out.PrngUpdate = t.prngUpdate()

	// With a 256-bit key the first two round keys are the key itself, so
	// no expansion is needed before the first round.
	if desc.KeyLen != KeyLen256 {
		t.out.KeyExpandEn = true
		if !t.in.KeyExpandReq {
			return
		}

		t.out.KeyExpandAck = true
		t.out.KeyFullWE = true
	}

	t.out.StateWE = !derive
	t.next.State = StateRound
	t.next.CycleCounter = 0
}

func (t *tick) round() {
	desc := t.cur.descriptor()
	derive := desc.Mode == ModeDeriveKey

	t.out.AddRKSel = AddRKSelRound
	t.out.KeyWords = SelectKeyWords(
		desc.Mode, desc.KeyLen, desc.Op, PositionRound,
	)
	t.out.RoundKeySel = RoundKeyDirect
	if desc.Op == OpDecrypt && !derive {
		t.out.RoundKeySel = RoundKeyMixed
	}
	t.out.SubBytesEn = !derive
	t.out.KeyExpandEn = true
	t.out.KeyExpandOp = keyExpandOp(desc)
	t.out.KeyExpandRound = t.cur.RoundCounter + 2
	t.out.PrngUpdate = t.prngUpdate()

	// Both pipelines must be done in the same tick.
	if !t.in.KeyExpandReq || !(derive || t.in.SubBytesReq) {
		return
	}

	t.out.SubBytesAck = !derive
	t.out.KeyExpandAck = true
	t.out.StateWE = !derive
	t.out.KeyFullWE = true

	last := t.cur.lastRegularRound()
	t.next.advanceRound()
	if !last {
		return
	}

	t.next.State = StateFinish
	if !derive {
		return
	}

	// The derived key is complete once the last expansion is done. Store
	// it and try to hand off right away.
	t.out.KeyDecWE = true
	t.out.OutValid = !t.in.Faults.Any() && t.cur.reseedSatisfied()
	if t.out.OutValid && t.in.OutReady {
		t.toIdle()
	}
}

func (t *tick) finish() {
	desc := t.cur.descriptor()
	derive := desc.Mode == ModeDeriveKey

	t.out.AddRKSel = AddRKSelFinal
	t.out.KeyWords = SelectKeyWords(
		desc.Mode, desc.KeyLen, desc.Op, PositionRound,
	)
	t.out.RoundKeySel = RoundKeyDirect
	t.out.SubBytesEn = !derive
	t.out.KeyExpandOp = keyExpandOp(desc)
	t.out.PrngUpdate = t.prngUpdate()

	ready := derive || t.in.SubBytesReq
	t.out.OutValid = ready && t.cur.reseedSatisfied() &&
		!t.in.Faults.Any()
	if !t.out.OutValid || !t.in.OutReady {
		return
	}

	t.out.SubBytesAck = !derive
	t.out.StateWE = true
	t.out.StateSel = StateSelClear
	t.toIdle()
}

func (t *tick) prngReseed() {
	t.out.OutValid = t.cur.ReseedDone && !t.in.Faults.Any()
	if t.out.OutValid && t.in.OutReady {
		t.toIdle()
	}
}

func (t *tick) clearState() {
	t.out.StateWE = true
	t.out.StateSel = StateSelClear
	t.out.PrngUpdate = t.cfg.Masking
	t.next.State = StateClearKeyData
}

func (t *tick) clearKeyData() {
	if t.cur.KeyClearRequested {
		t.out.KeyFullWE = true
		t.out.KeyFullSel = KeyFullSelClear
		t.out.KeyDecWE = true
		t.out.KeyDecSel = KeyDecSelClear
		t.out.KeyExpandClear = true
	}

	// Adding the zero key to the pseudo-random state scrubs the output
	// registers.
	if t.cur.DataClearRequested {
		t.out.AddRKSel = AddRKSelInit
		t.out.KeyWords = KeyWordsZero
		t.out.RoundKeySel = RoundKeyDirect
	}

	t.out.OutValid = !t.in.Faults.Any()
	if t.out.OutValid && t.in.OutReady {
		t.toIdle()
	}
}
