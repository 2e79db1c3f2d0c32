package cipherctrl

import (
	"sync"

	"github.com/lightninglabs/aesctrl/aesutils"
)

// Controller sequences a single AES cipher core. It owns the registers
// described by Registers and advances them once per call to Step.
//
// A Controller is safe for concurrent use, although Step is meant to be
// driven from a single clock.
type Controller struct {
	cfg Config

	mu    sync.Mutex
	regs  Registers
	ticks uint64
}

// NewController validates the configuration and returns a controller in
// Idle.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Controller{
		cfg:  cfg,
		regs: idleRegisters(),
	}, nil
}

// Config returns the static configuration of the controller.
func (c *Controller) Config() Config {
	return c.cfg
}

// Step evaluates one tick. The outputs are a function of the registers
// committed by the previous tick and of in. The new register values take
// effect when Step returns.
func (c *Controller) Step(in Inputs) Outputs {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.regs
	out, next, cause := evaluate(c.cfg, cur, in)
	out, next, cause = guard(cur, in, out, next, cause)

	if cause != faultNone && cur.State != StateError {
		log.Errorf("Cipher controller fault in state %v at tick %d: "+
			"%v", cur.State, c.ticks, cause)
	}

	if out.Accepted(in) {
		log.Tracef("Accepted request: %v",
			aesutils.SpewLogClosure(in.Request))
	}

	if next.State != cur.State {
		log.Debugf("Tick %d: %v -> %v", c.ticks, cur.State,
			next.State)
	}

	c.regs = next
	c.ticks++

	return out
}

// State returns the committed control state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.regs.State
}

// Registers returns a copy of the committed registers.
func (c *Controller) Registers() Registers {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.regs
}

// Ticks returns the number of ticks evaluated since creation or the last
// reset.
func (c *Controller) Ticks() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ticks
}

// Reset returns the controller to Idle. This is the only way out of Error.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	log.Debugf("Reset from %v after %d ticks", c.regs.State, c.ticks)

	c.regs = idleRegisters()
	c.ticks = 0
}

// Glitch applies f to the committed registers. It models a fault injected
// into the register file and is used by fault injection tests and the
// simulation harness.
func (c *Controller) Glitch(f func(*Registers)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f(&c.regs)

	log.Warnf("Registers glitched: %v", c.regs)
}
