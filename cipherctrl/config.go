package cipherctrl

import "fmt"

// SBoxImpl selects the substitution pipeline implementation. It decides
// whether masking is in play and how the PRNG update is timed.
type SBoxImpl uint8

const (
	// SBoxLUT is the unmasked lookup table S-box.
	SBoxLUT SBoxImpl = iota

	// SBoxCanright is the unmasked Canright S-box.
	SBoxCanright

	// SBoxCanrightMasked is the masked Canright S-box.
	SBoxCanrightMasked

	// SBoxCanrightMaskedNoReuse is the masked Canright S-box without mask
	// re-use.
	SBoxCanrightMaskedNoReuse

	// SBoxDOM is the domain-oriented masking S-box. It takes several
	// ticks per evaluation and consumes fresh randomness only on the first
	// tick of a round.
	SBoxDOM
)

// String returns the name of the S-box implementation.
func (s SBoxImpl) String() string {
	switch s {
	case SBoxLUT:
		return "lut"
	case SBoxCanright:
		return "canright"
	case SBoxCanrightMasked:
		return "canright-masked"
	case SBoxCanrightMaskedNoReuse:
		return "canright-masked-noreuse"
	case SBoxDOM:
		return "dom"
	default:
		return fmt.Sprintf("SBoxImpl(%d)", uint8(s))
	}
}

// ParseSBoxImpl parses the name produced by SBoxImpl.String.
func ParseSBoxImpl(name string) (SBoxImpl, error) {
	for s := SBoxLUT; s <= SBoxDOM; s++ {
		if s.String() == name {
			return s, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidSBoxImpl, name)
}

// Masked reports whether the implementation consumes masking randomness.
func (s SBoxImpl) Masked() bool {
	switch s {
	case SBoxCanrightMasked, SBoxCanrightMaskedNoReuse, SBoxDOM:
		return true
	default:
		return false
	}
}

// MultiTick reports whether the implementation needs the first-tick
// randomness rule.
func (s SBoxImpl) MultiTick() bool {
	return s == SBoxDOM
}

// Config holds the static configuration of the controller.
type Config struct {
	// Masking enables the side-channel masking countermeasure.
	Masking bool

	// SBoxImpl is the substitution pipeline variant.
	SBoxImpl SBoxImpl
}

// Validate returns an error if the configuration is inconsistent.
func (c Config) Validate() error {
	if c.SBoxImpl > SBoxDOM {
		return fmt.Errorf("%w: %d", ErrInvalidSBoxImpl,
			uint8(c.SBoxImpl))
	}

	if c.SBoxImpl.Masked() && !c.Masking {
		return fmt.Errorf("%w: %v", ErrMaskingRequired, c.SBoxImpl)
	}

	if c.Masking && !c.SBoxImpl.Masked() {
		return fmt.Errorf("%w: %v", ErrMaskedSBoxRequired, c.SBoxImpl)
	}

	return nil
}

// domRandomness reports whether PRNG updates follow the first-tick rule.
func (c Config) domRandomness() bool {
	return c.Masking && c.SBoxImpl.MultiTick()
}
