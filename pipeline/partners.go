package pipeline

import (
	"github.com/lightninglabs/aesctrl/cipherctrl"
)

// Partner is a pipeline that exchanges a handshake with the controller. It
// is ticked with the controller outputs of the same tick.
type Partner interface {
	Rendezvous

	// Tick advances the partner given the controller outputs.
	Tick(out cipherctrl.Outputs)
}

// SubBytes models the substitution pipeline.
type SubBytes struct {
	*Unit
}

// NewSubBytes creates a substitution pipeline model.
func NewSubBytes(latency LatencyFunc) *SubBytes {
	return &SubBytes{
		Unit: NewUnit("sub_bytes", latency),
	}
}

// Tick advances the substitution pipeline.
func (s *SubBytes) Tick(out cipherctrl.Outputs) {
	s.Unit.Tick(out.SubBytesEn, out.SubBytesAck, false)
}

// RoundKey describes one round key produced by the key expansion as seen on
// the acknowledge tick.
type RoundKey struct {
	// Round is the index of the round key.
	Round uint8

	// Op is the direction the key schedule ran in.
	Op cipherctrl.Operation

	// KeyWords is the key word selection driven on the same tick.
	KeyWords cipherctrl.KeyWords
}

// KeyExpand models the key expansion pipeline.
type KeyExpand struct {
	*Unit

	keys []RoundKey
}

// NewKeyExpand creates a key expansion pipeline model.
func NewKeyExpand(latency LatencyFunc) *KeyExpand {
	return &KeyExpand{
		Unit: NewUnit("key_expand", latency),
	}
}

// Tick advances the key expansion pipeline. A clear also forgets the round
// keys produced so far.
func (k *KeyExpand) Tick(out cipherctrl.Outputs) {
	if out.KeyExpandClear {
		k.keys = k.keys[:0]
	}

	if out.KeyExpandAck && k.Request() {
		k.keys = append(k.keys, RoundKey{
			Round:    out.KeyExpandRound,
			Op:       out.KeyExpandOp,
			KeyWords: out.KeyWords,
		})
	}

	k.Unit.Tick(out.KeyExpandEn, out.KeyExpandAck, out.KeyExpandClear)
}

// RoundKeys returns the round keys produced since the last clear.
func (k *KeyExpand) RoundKeys() []RoundKey {
	keys := make([]RoundKey, len(k.keys))
	copy(keys, k.keys)

	return keys
}

// Compile time checks.
var (
	_ Partner = (*SubBytes)(nil)
	_ Partner = (*KeyExpand)(nil)
)
