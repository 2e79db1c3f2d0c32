package cipherctrl

import "errors"

var (
	// ErrInvalidOperation is returned when an operation encoding is
	// neither encrypt nor decrypt.
	ErrInvalidOperation = errors.New("invalid cipher operation")

	// ErrInvalidKeyLength is returned when a key length encoding is not
	// one of 128, 192 or 256 bits.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrInvalidSBoxImpl is returned for an unknown S-box implementation.
	ErrInvalidSBoxImpl = errors.New("invalid s-box implementation")

	// ErrMaskingRequired is returned when a masked S-box implementation is
	// configured without masking.
	ErrMaskingRequired = errors.New("masked s-box requires masking")

	// ErrMaskedSBoxRequired is returned when masking is enabled with an
	// unmasked S-box implementation.
	ErrMaskedSBoxRequired = errors.New("masking requires a masked s-box")
)
