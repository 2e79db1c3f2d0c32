package sim

import (
	"bytes"

	"github.com/lightninglabs/aesctrl/prng"
)

// prngConfig returns a PRNG configuration with a deterministic entropy
// source.
func prngConfig(latency uint32) prng.Config {
	return prng.Config{
		ReseedLatency: latency,
		Entropy:       bytes.NewReader(bytes.Repeat([]byte{5}, 4096)),
	}
}
