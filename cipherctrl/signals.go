package cipherctrl

// StateSel drives the state input multiplexer.
type StateSel uint8

const (
	// StateSelRound feeds the round output back into the state.
	StateSelRound StateSel = iota

	// StateSelInit loads the input data.
	StateSelInit

	// StateSelClear loads pseudo-random data.
	StateSelClear
)

// AddRKSel selects the add-round-key input.
type AddRKSel uint8

const (
	// AddRKSelRound adds the key to the mix-columns output.
	AddRKSelRound AddRKSel = iota

	// AddRKSelInit adds the key to the state directly.
	AddRKSelInit

	// AddRKSelFinal adds the key to the shift-rows output, skipping the
	// mix step.
	AddRKSelFinal
)

// KeyWords selects which four words of the full key register form the
// round key.
type KeyWords uint8

const (
	// KeyWords0123 selects words 0 to 3.
	KeyWords0123 KeyWords = iota

	// KeyWords2345 selects words 2 to 5.
	KeyWords2345

	// KeyWords4567 selects words 4 to 7.
	KeyWords4567

	// KeyWordsZero selects the all-zero word set.
	KeyWordsZero
)

// String returns the key word selection name.
func (k KeyWords) String() string {
	switch k {
	case KeyWords0123:
		return "0123"
	case KeyWords2345:
		return "2345"
	case KeyWords4567:
		return "4567"
	case KeyWordsZero:
		return "zero"
	default:
		return "invalid"
	}
}

// RoundKeySel chooses between the round key and its mix-columns transformed
// version used by the equivalent inverse cipher.
type RoundKeySel uint8

const (
	// RoundKeyDirect uses the round key as is.
	RoundKeyDirect RoundKeySel = iota

	// RoundKeyMixed uses the inverse mix-columns transformed round key.
	RoundKeyMixed
)

// KeyFullSel drives the full key register input multiplexer.
type KeyFullSel uint8

const (
	// KeyFullSelRound loads the next round key from key expansion.
	KeyFullSelRound KeyFullSel = iota

	// KeyFullSelEncInit loads the initial key for encryption.
	KeyFullSelEncInit

	// KeyFullSelDecInit loads the decryption start key.
	KeyFullSelDecInit

	// KeyFullSelClear loads pseudo-random data.
	KeyFullSelClear
)

// KeyDecSel drives the decryption key register input multiplexer.
type KeyDecSel uint8

const (
	// KeyDecSelRound captures the last round key.
	KeyDecSelRound KeyDecSel = iota

	// KeyDecSelClear loads pseudo-random data.
	KeyDecSelClear
)

// Faults holds the externally supplied consistency checks. Each field is the
// negation of a validity signal, so the zero value is healthy.
type Faults struct {
	// MuxSelErr flags an invalid multiplexer selector.
	MuxSelErr bool

	// SparseEncErr flags an invalid sparsely encoded signal.
	SparseEncErr bool

	// OpErr flags an invalid operation encoding seen by the datapath.
	OpErr bool
}

// Any reports whether any external fault is flagged.
func (f Faults) Any() bool {
	return f.MuxSelErr || f.SparseEncErr || f.OpErr
}

// Inputs are the signals sampled by the controller on a tick.
type Inputs struct {
	// InValid and Request form the upstream handshake.
	InValid bool
	Request Request

	// OutReady is the downstream consumer's ready.
	OutReady bool

	// SubBytesReq is the substitution pipeline's completion request.
	SubBytesReq bool

	// KeyExpandReq is the key expansion pipeline's completion request.
	KeyExpandReq bool

	// ReseedAck acknowledges a masking PRNG reseed request.
	ReseedAck bool

	// Faults are the external consistency checks.
	Faults Faults
}

// Outputs are the signals driven by the controller on a tick.
type Outputs struct {
	// Upstream and downstream handshakes.
	InReady  bool
	OutValid bool

	// Datapath control.
	StateWE     bool
	StateSel    StateSel
	AddRKSel    AddRKSel
	KeyWords    KeyWords
	RoundKeySel RoundKeySel
	KeyFullWE   bool
	KeyFullSel  KeyFullSel
	KeyDecWE    bool
	KeyDecSel   KeyDecSel

	// Substitution pipeline handshake.
	SubBytesEn  bool
	SubBytesAck bool

	// Key expansion pipeline handshake.
	KeyExpandEn    bool
	KeyExpandAck   bool
	KeyExpandClear bool
	KeyExpandOp    Operation
	KeyExpandRound uint8

	// Masking PRNG.
	PrngUpdate    bool
	PrngReseedReq bool

	// Status of the operation in flight.
	Crypt     bool
	DeriveKey bool
	Reseed    bool
	KeyClear  bool
	DataClear bool

	// Alert is raised in the terminal error state.
	Alert bool
}

// Accepted reports whether the upstream handshake completed given the
// inputs sampled on the same tick.
func (o Outputs) Accepted(in Inputs) bool {
	return o.InReady && in.InValid
}

// Delivered reports whether the downstream handshake completed given the
// inputs sampled on the same tick.
func (o Outputs) Delivered(in Inputs) bool {
	return o.OutValid && in.OutReady
}
