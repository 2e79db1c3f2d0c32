package aescfg

import (
	"errors"
	"fmt"
	"time"
)

// errNegativeAttempts is returned for a check with a negative attempt
// count.
var errNegativeAttempts = errors.New("attempts must not be negative")

var (
	// MinHealthCheckInterval is the minimum interval we allow between
	// health checks.
	MinHealthCheckInterval = 100 * time.Millisecond

	// MinHealthCheckTimeout is the minimum timeout we allow for health
	// check calls.
	MinHealthCheckTimeout = 10 * time.Millisecond

	// MinHealthCheckBackoff is the minimum back off we allow between
	// health check retries.
	MinHealthCheckBackoff = 10 * time.Millisecond
)

// HealthCheckConfig contains the configuration for the different health
// checks the daemon runs.
type HealthCheckConfig struct {
	Alert *CheckConfig `group:"alert" namespace:"alert"`

	Progress *CheckConfig `group:"progress" namespace:"progress"`
}

// DefaultHealthChecks returns checks that run every few seconds and shut the
// daemon down on the first failure.
func DefaultHealthChecks() *HealthCheckConfig {
	return &HealthCheckConfig{
		Alert: &CheckConfig{
			Interval: 5 * time.Second,
			Attempts: 1,
			Timeout:  time.Second,
			Backoff:  time.Second,
		},
		Progress: &CheckConfig{
			Interval: 30 * time.Second,
			Attempts: 3,
			Timeout:  time.Second,
			Backoff:  5 * time.Second,
		},
	}
}

// Namespace returns the flag namespace of the healthcheck options.
//
// NOTE: Part of the Namespaced interface.
func (*HealthCheckConfig) Namespace() string {
	return "healthcheck"
}

// Validate checks the values configured for our health checks.
//
// NOTE: Part of the Validator interface.
func (h *HealthCheckConfig) Validate() error {
	if err := h.Alert.validate("alert"); err != nil {
		return err
	}

	return h.Progress.validate("progress")
}

// CheckConfig is the configuration of a single health check.
type CheckConfig struct {
	Interval time.Duration `long:"interval" description:"How often to run a health check."`

	Attempts int `long:"attempts" description:"The number of calls we will make for the check before failing. Set this value to 0 to disable a check."`

	Timeout time.Duration `long:"timeout" description:"The amount of time we allow the health check to take before failing due to timeout."`

	Backoff time.Duration `long:"backoff" description:"The amount of time to back-off between failed health checks."`
}

// Enabled reports whether the check runs at all.
func (c *CheckConfig) Enabled() bool {
	return c != nil && c.Attempts > 0
}

// validate checks the values in a health check config entry if it is enabled.
func (c *CheckConfig) validate(name string) error {
	if c == nil {
		return nil
	}

	if c.Attempts < 0 {
		return fmt.Errorf("%v: %w", name, errNegativeAttempts)
	}

	// If the check is disabled, we do not need to validate it.
	if c.Attempts == 0 {
		return nil
	}

	if c.Backoff < MinHealthCheckBackoff {
		return fmt.Errorf("%v backoff: %v below minimum: %v", name,
			c.Backoff, MinHealthCheckBackoff)
	}

	if c.Timeout < MinHealthCheckTimeout {
		return fmt.Errorf("%v timeout: %v below minimum: %v", name,
			c.Timeout, MinHealthCheckTimeout)
	}

	if c.Interval < MinHealthCheckInterval {
		return fmt.Errorf("%v interval: %v below minimum: %v", name,
			c.Interval, MinHealthCheckInterval)
	}

	return nil
}

// Compile-time constraints to ensure HealthCheckConfig implements the
// Validator and Namespaced interfaces.
var (
	_ Validator  = (*HealthCheckConfig)(nil)
	_ Namespaced = (*HealthCheckConfig)(nil)
)
