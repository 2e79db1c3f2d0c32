package aescfg

import (
	"fmt"
	"math/rand/v2"

	"github.com/lightninglabs/aesctrl/pipeline"
)

const (
	// DefaultKeyExpandLatency is the default key expansion latency in
	// ticks.
	DefaultKeyExpandLatency = 1

	// DefaultReseedLatency is the default PRNG reseed latency in ticks.
	DefaultReseedLatency = 4

	// MaxLatency bounds every configured latency.
	MaxLatency = 1024
)

// Pipeline configures the timing of the units the controller rendezvouses
// with.
type Pipeline struct {
	// SubBytesLatency is the substitution latency in ticks. Zero selects
	// the default of the configured S-box.
	SubBytesLatency uint32 `long:"sblatency" description:"Substitution latency in ticks. 0 selects the S-box default."`

	// KeyExpandLatency is the key expansion latency in ticks.
	KeyExpandLatency uint32 `long:"kelatency" description:"Key expansion latency in ticks."`

	// ReseedLatency is the PRNG reseed latency in ticks.
	ReseedLatency uint32 `long:"reseedlatency" description:"PRNG reseed latency in ticks."`

	// Jitter adds a uniformly drawn number of extra ticks to every
	// pipeline evaluation.
	Jitter uint32 `long:"jitter" description:"Maximum number of extra ticks added to every pipeline evaluation."`

	// Seed seeds the jitter source. Runs with the same seed see the same
	// timing.
	Seed uint64 `long:"seed" description:"Seed of the timing jitter source."`
}

// DefaultPipeline returns the default pipeline timing.
func DefaultPipeline() *Pipeline {
	return &Pipeline{
		KeyExpandLatency: DefaultKeyExpandLatency,
		ReseedLatency:    DefaultReseedLatency,
	}
}

// Namespace returns the flag namespace of the pipeline options.
//
// NOTE: Part of the Namespaced interface.
func (*Pipeline) Namespace() string {
	return "pipeline"
}

// Validate checks that every latency is within bounds.
//
// NOTE: Part of the Validator interface.
func (p *Pipeline) Validate() error {
	latencies := []struct {
		name  string
		value uint32
	}{
		{"sblatency", p.SubBytesLatency},
		{"kelatency", p.KeyExpandLatency},
		{"reseedlatency", p.ReseedLatency},
		{"jitter", p.Jitter},
	}
	for _, l := range latencies {
		if l.value > MaxLatency {
			return fmt.Errorf("pipeline.%s: %d above maximum: %d",
				l.name, l.value, MaxLatency)
		}
	}

	if p.KeyExpandLatency == 0 {
		return fmt.Errorf("pipeline.kelatency must be positive")
	}

	return nil
}

// LatencyFuncs returns the substitution and key expansion latency models.
// sboxDefault is used when no substitution latency is configured.
func (p *Pipeline) LatencyFuncs(
	sboxDefault uint32) (pipeline.LatencyFunc, pipeline.LatencyFunc) {

	sb := p.SubBytesLatency
	if sb == 0 {
		sb = sboxDefault
	}

	if p.Jitter == 0 {
		return pipeline.Fixed(sb), pipeline.Fixed(p.KeyExpandLatency)
	}

	src := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))

	return pipeline.Jitter(src, sb, sb+p.Jitter),
		pipeline.Jitter(src, p.KeyExpandLatency,
			p.KeyExpandLatency+p.Jitter)
}

// Compile-time constraints to ensure Pipeline implements the Validator and
// Namespaced interfaces.
var (
	_ Validator  = (*Pipeline)(nil)
	_ Namespaced = (*Pipeline)(nil)
)
