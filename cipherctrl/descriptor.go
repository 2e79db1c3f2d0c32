package cipherctrl

import "fmt"

// Operation is the cipher direction.
type Operation uint8

const (
	// OpEncrypt runs the forward cipher.
	OpEncrypt Operation = iota + 1

	// OpDecrypt runs the inverse cipher.
	OpDecrypt
)

// String returns a human readable name for the operation.
func (o Operation) String() string {
	switch o {
	case OpEncrypt:
		return "encrypt"
	case OpDecrypt:
		return "decrypt"
	default:
		return fmt.Sprintf("Operation(%d)", uint8(o))
	}
}

// Valid reports whether the operation is a recognized encoding.
func (o Operation) Valid() bool {
	return o == OpEncrypt || o == OpDecrypt
}

// KeyLength is the AES key size. The zero value is not a valid key length.
type KeyLength uint16

const (
	// KeyLen128 selects AES-128.
	KeyLen128 KeyLength = 128

	// KeyLen192 selects AES-192.
	KeyLen192 KeyLength = 192

	// KeyLen256 selects AES-256.
	KeyLen256 KeyLength = 256
)

// String returns the key length as e.g. "AES-128".
func (k KeyLength) String() string {
	return fmt.Sprintf("AES-%d", uint16(k))
}

// Valid reports whether the key length is a recognized encoding.
func (k KeyLength) Valid() bool {
	_, err := NumRounds(k)
	return err == nil
}

// NumRounds returns the total number of rounds for a key length.
func NumRounds(k KeyLength) (uint8, error) {
	switch k {
	case KeyLen128:
		return 10, nil
	case KeyLen192:
		return 12, nil
	case KeyLen256:
		return 14, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidKeyLength, uint16(k))
	}
}

// Mode selects between a normal cipher pass and the derivation of the start
// key for decryption.
type Mode uint8

const (
	// ModeNormal processes data through the full round function.
	ModeNormal Mode = iota

	// ModeDeriveKey runs only the key schedule forward to obtain the
	// decryption start key.
	ModeDeriveKey
)

// String returns a human readable name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDeriveKey:
		return "derive-key"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Descriptor is the operation latched on accept. It is immutable until the
// next accept.
type Descriptor struct {
	Op     Operation
	KeyLen KeyLength
	Mode   Mode
}

// String returns a compact description like "encrypt/AES-128/normal".
func (d Descriptor) String() string {
	return fmt.Sprintf("%v/%v/%v", d.Op, d.KeyLen, d.Mode)
}

// Request is what the upstream producer presents along with in_valid.
type Request struct {
	// Op and KeyLen are only latched for crypt and derive-key requests.
	Op     Operation
	KeyLen KeyLength

	// Crypt requests an encryption or decryption.
	Crypt bool

	// DeriveKey requests generation of the decryption start key.
	DeriveKey bool

	// Reseed requests a reseed of the masking PRNG, either standalone or
	// together with a crypt/derive-key operation.
	Reseed bool

	// KeyClear requests erasure of the key registers.
	KeyClear bool

	// DataClear requests erasure of the output data registers.
	DataClear bool
}

// RequestKind is the classification of an accepted request.
type RequestKind uint8

const (
	// KindNone is a handshake carrying no recognized request.
	KindNone RequestKind = iota

	// KindReseed is a standalone PRNG reseed.
	KindReseed

	// KindClear is a key and/or data clear.
	KindClear

	// KindCipher is an encryption, decryption or decryption-key
	// derivation.
	KindCipher
)

// String returns a human readable name for the request kind.
func (k RequestKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindReseed:
		return "reseed"
	case KindClear:
		return "clear"
	case KindCipher:
		return "cipher"
	default:
		return fmt.Sprintf("RequestKind(%d)", uint8(k))
	}
}

// Classify maps the request flags to the path taken out of Idle. A reseed is
// standalone only if no other flag is set. A clear takes precedence over
// crypt and derive-key, and any reseed flag is then dropped.
func (r Request) Classify() RequestKind {
	switch {
	case r.Reseed && !r.Crypt && !r.DeriveKey && !r.KeyClear &&
		!r.DataClear:

		return KindReseed

	case r.KeyClear || r.DataClear:
		return KindClear

	case r.Crypt || r.DeriveKey:
		return KindCipher

	default:
		return KindNone
	}
}

// Descriptor returns the descriptor latched for a cipher request. Derive-key
// wins over crypt when both are set.
func (r Request) Descriptor() Descriptor {
	mode := ModeNormal
	if r.DeriveKey {
		mode = ModeDeriveKey
	}

	return Descriptor{
		Op:     r.Op,
		KeyLen: r.KeyLen,
		Mode:   mode,
	}
}

// Validate returns an error if the operation or key length is not a
// recognized encoding.
func (d Descriptor) Validate() error {
	if !d.Op.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidOperation, uint8(d.Op))
	}

	_, err := NumRounds(d.KeyLen)

	return err
}
