package cipherctrl

// detectFault checks the external fault indications and the integrity of the
// committed registers. It returns faultNone if the tick may proceed
// normally.
func detectFault(cur Registers, in Inputs) faultCause {
	switch {
	case in.Faults.MuxSelErr:
		return faultMuxSel

	case in.Faults.SparseEncErr:
		return faultSparseEnc

	case in.Faults.OpErr:
		return faultOperation

	case !cur.State.valid():
		return faultStateEncoding

	case !cur.roundCountersConsistent():
		return faultRoundCounter

	default:
		return faultNone
	}
}

// guard is applied after the nominal next state has been computed. On any
// fault it overrides the next state with Error and withdraws every handshake
// and write enable of the current tick. The latched descriptor, counters and
// pending flags are discarded.
func guard(cur Registers, in Inputs, out Outputs, next Registers,
	cause faultCause) (Outputs, Registers, faultCause) {

	if cause == faultNone {
		cause = detectFault(cur, in)
	}
	if cause == faultNone {
		return out, next, faultNone
	}

	safe := Outputs{
		KeyWords: KeyWordsZero,
		Alert:    cur.State == StateError,
	}

	return safe, Registers{State: StateError}, cause
}
