package prng

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/lightninglabs/aesctrl/aesutils"
	"github.com/lightninglabs/aesctrl/cipherctrl"
	"golang.org/x/crypto/chacha20"
)

// BlockSize is the number of pseudo-random bytes produced per update.
const BlockSize = 16

var (
	// ErrEntropy is returned when the entropy source fails to provide a
	// fresh seed.
	ErrEntropy = errors.New("unable to read entropy")
)

// Config holds the parameters of the masking PRNG model.
type Config struct {
	// ReseedLatency is the number of ticks between the first reseed
	// request and the acknowledge.
	ReseedLatency uint32

	// Entropy is the seed source. It defaults to crypto/rand.
	Entropy io.Reader
}

// PRNG models the masking PRNG. The pseudo-random data only changes on an
// update pulse. Reseeding follows a request/acknowledge handshake: the
// acknowledge is raised after ReseedLatency ticks and held until the
// request and the acknowledge meet on the same tick.
type PRNG struct {
	cfg Config

	stream *chacha20.Cipher
	data   [BlockSize]byte

	waiting   bool
	countdown uint32
	ack       bool

	updates uint64
	reseeds uint64
}

// New seeds a PRNG from the configured entropy source.
func New(cfg Config) (*PRNG, error) {
	if cfg.Entropy == nil {
		cfg.Entropy = rand.Reader
	}

	p := &PRNG{cfg: cfg}
	if err := p.rekey(); err != nil {
		return nil, err
	}

	return p, nil
}

// rekey draws a new key and nonce from the entropy source.
func (p *PRNG) rekey() error {
	var seed [chacha20.KeySize + chacha20.NonceSize]byte
	if _, err := io.ReadFull(p.cfg.Entropy, seed[:]); err != nil {
		return fmt.Errorf("%w: %w", ErrEntropy, err)
	}

	stream, err := chacha20.NewUnauthenticatedCipher(
		seed[:chacha20.KeySize], seed[chacha20.KeySize:],
	)
	if err != nil {
		return err
	}
	p.stream = stream

	return nil
}

// Data returns the current pseudo-random data.
func (p *PRNG) Data() [BlockSize]byte {
	return p.data
}

// ReseedAck reports whether the reseed acknowledge is raised.
func (p *PRNG) ReseedAck() bool {
	return p.ack
}

// Updates returns the number of update pulses seen.
func (p *PRNG) Updates() uint64 {
	return p.updates
}

// Reseeds returns the number of completed reseeds.
func (p *PRNG) Reseeds() uint64 {
	return p.reseeds
}

// Tick advances the PRNG given the controller outputs of the same tick.
func (p *PRNG) Tick(out cipherctrl.Outputs) error {
	if out.PrngUpdate {
		p.update()
	}

	switch {
	case !out.PrngReseedReq:
		p.waiting = false
		p.ack = false

	case p.ack:
		if err := p.rekey(); err != nil {
			return err
		}

		p.waiting = false
		p.ack = false
		p.reseeds++

		log.Debugf("Reseed %d complete", p.reseeds)

	default:
		if !p.waiting {
			p.waiting = true
			p.countdown = p.cfg.ReseedLatency
		}

		if p.countdown > 0 {
			p.countdown--
		}
		p.ack = p.countdown == 0
	}

	return nil
}

// update replaces the data with the next keystream block.
func (p *PRNG) update() {
	var zero [BlockSize]byte
	p.stream.XORKeyStream(p.data[:], zero[:])
	p.updates++

	log.TraceS(context.Background(), "PRNG update",
		aesutils.LogBlock("data", p.data[:]))
}
