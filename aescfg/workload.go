package aescfg

import (
	"fmt"
	"time"
)

const (
	// DefaultWorkloadRate is the default number of requests generated per
	// second.
	DefaultWorkloadRate = 50

	// DefaultQueueSize is the default capacity of the request queue.
	DefaultQueueSize = 64

	// DefaultDropMin and DefaultDropMax are the default queue lengths
	// between which requests are dropped with increasing probability.
	DefaultDropMin = 48
	DefaultDropMax = 64
)

// Workload configures the request generator of the simulation daemon.
type Workload struct {
	// Disable turns the generator off. The engine still runs and serves
	// requests submitted by other means.
	Disable bool `long:"disable" description:"Disable the request generator."`

	// Rate is the average number of requests per second.
	Rate float64 `long:"rate" description:"Average number of generated requests per second."`

	// Burst is the largest number of requests generated at once.
	Burst int `long:"burst" description:"Maximum number of requests generated at once."`

	// QueueSize is the capacity of the request queue in front of the
	// controller.
	QueueSize int `long:"queuesize" description:"Capacity of the request queue."`

	// DropMin is the queue length from which requests start to be
	// dropped early.
	DropMin int `long:"dropmin" description:"Queue length at which random early drop starts."`

	// DropMax is the queue length from which every request is dropped.
	DropMax int `long:"dropmax" description:"Queue length at which every request is dropped."`

	// The weights decide the mix of generated requests.
	Encrypt uint32 `long:"encrypt" description:"Relative weight of encryption requests."`
	Decrypt uint32 `long:"decrypt" description:"Relative weight of decryption requests."`
	Derive  uint32 `long:"derive" description:"Relative weight of decryption key derivations."`
	Reseed  uint32 `long:"reseed" description:"Relative weight of standalone PRNG reseeds."`
	Clear   uint32 `long:"clear" description:"Relative weight of sanitization requests."`

	// PiggyReseed is the percentage of cipher requests that carry a
	// reseed request.
	PiggyReseed uint32 `long:"piggyreseed" description:"Percentage of cipher requests that also request a reseed."`

	// Seed seeds the request mix. Runs with the same seed generate the
	// same requests.
	Seed uint64 `long:"seed" description:"Seed of the request generator."`

	// JobTimeout bounds how long the generator waits for a single result.
	JobTimeout time.Duration `long:"jobtimeout" description:"How long to wait for the result of a generated request."`
}

// DefaultWorkload returns a mix dominated by cipher operations.
func DefaultWorkload() *Workload {
	return &Workload{
		Rate:       DefaultWorkloadRate,
		Burst:      1,
		QueueSize:  DefaultQueueSize,
		DropMin:    DefaultDropMin,
		DropMax:    DefaultDropMax,
		Encrypt:    8,
		Decrypt:    8,
		Derive:     2,
		Reseed:     1,
		Clear:      1,
		JobTimeout: 10 * time.Second,
	}
}

// TotalWeight returns the sum of all request weights.
func (w *Workload) TotalWeight() uint64 {
	return uint64(w.Encrypt) + uint64(w.Decrypt) + uint64(w.Derive) +
		uint64(w.Reseed) + uint64(w.Clear)
}

// Namespace returns the flag namespace of the workload options.
//
// NOTE: Part of the Namespaced interface.
func (*Workload) Namespace() string {
	return "workload"
}

// Validate checks the rate limits, queue thresholds and request mix.
//
// NOTE: Part of the Validator interface.
func (w *Workload) Validate() error {
	if w.QueueSize <= 0 {
		return fmt.Errorf("workload.queuesize must be positive, got %d",
			w.QueueSize)
	}

	if w.DropMin < 0 || w.DropMin > w.DropMax {
		return fmt.Errorf("workload.dropmin (%d) must be between 0 "+
			"and workload.dropmax (%d)", w.DropMin, w.DropMax)
	}

	if w.DropMax > w.QueueSize {
		return fmt.Errorf("workload.dropmax (%d) above "+
			"workload.queuesize (%d)", w.DropMax, w.QueueSize)
	}

	if w.PiggyReseed > 100 {
		return fmt.Errorf("workload.piggyreseed is a percentage, "+
			"got %d", w.PiggyReseed)
	}

	// A disabled generator needs no rate or mix.
	if w.Disable {
		return nil
	}

	if w.Rate <= 0 {
		return fmt.Errorf("workload.rate must be positive, got %v",
			w.Rate)
	}

	if w.Burst < 1 {
		return fmt.Errorf("workload.burst must be at least 1, got %d",
			w.Burst)
	}

	if w.TotalWeight() == 0 {
		return fmt.Errorf("workload needs at least one request kind " +
			"with a positive weight")
	}

	if w.JobTimeout <= 0 {
		return fmt.Errorf("workload.jobtimeout must be positive")
	}

	return nil
}

// Compile-time constraints to ensure Workload implements the Validator and
// Namespaced interfaces.
var (
	_ Validator  = (*Workload)(nil)
	_ Namespaced = (*Workload)(nil)
)
