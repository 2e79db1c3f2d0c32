package aescfg

import (
	"github.com/lightninglabs/aesctrl/cipherctrl"
)

const (
	// DefaultSBox is the S-box implementation used when none is
	// configured.
	DefaultSBox = "lut"
)

// Cipher holds the static configuration of the simulated cipher core.
type Cipher struct {
	// Masking enables the side-channel masking countermeasure.
	Masking bool `long:"masking" description:"Enable the masking countermeasure. Requires a masked S-box."`

	// SBox names the substitution pipeline implementation.
	SBox string `long:"sbox" description:"The S-box implementation." choice:"lut" choice:"canright" choice:"canright-masked" choice:"canright-masked-noreuse" choice:"dom"`
}

// DefaultCipher returns an unmasked lookup table configuration.
func DefaultCipher() *Cipher {
	return &Cipher{
		SBox: DefaultSBox,
	}
}

// Controller converts the options into a controller configuration.
func (c *Cipher) Controller() (cipherctrl.Config, error) {
	impl, err := cipherctrl.ParseSBoxImpl(c.SBox)
	if err != nil {
		return cipherctrl.Config{}, err
	}

	cfg := cipherctrl.Config{
		Masking:  c.Masking,
		SBoxImpl: impl,
	}

	return cfg, cfg.Validate()
}

// Namespace returns the flag namespace of the cipher options.
//
// NOTE: Part of the Namespaced interface.
func (*Cipher) Namespace() string {
	return "cipher"
}

// Validate checks that the S-box is known and consistent with the masking
// option.
//
// NOTE: Part of the Validator interface.
func (c *Cipher) Validate() error {
	_, err := c.Controller()

	return err
}

// Compile-time constraints to ensure Cipher implements the Validator and
// Namespaced interfaces.
var (
	_ Validator  = (*Cipher)(nil)
	_ Namespaced = (*Cipher)(nil)
)
