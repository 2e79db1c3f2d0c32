package aesctrl

import (
	"errors"

	"github.com/lightninglabs/aesctrl/aescfg"
	"github.com/lightningnetwork/lnd/healthcheck"
)

// errStalled is returned by the progress check if the engine did not tick
// since the previous check.
var errStalled = errors.New("engine did not advance")

// engineStatus is the part of the engine observed by the health checks.
type engineStatus interface {
	// Alerted reports whether the controller raised its alert.
	Alerted() bool

	// Ticks returns the number of evaluated ticks.
	Ticks() uint64
}

// alertCheck fails once the controller has entered Error.
func alertCheck(engine engineStatus) func() error {
	return func() error {
		if engine.Alerted() {
			return ErrControllerAlert
		}

		return nil
	}
}

// progressCheck fails if the tick count did not move between two calls.
func progressCheck(engine engineStatus) func() error {
	var last uint64
	return func() error {
		cur := engine.Ticks()
		if cur == last {
			return errStalled
		}
		last = cur

		return nil
	}
}

// newHealthChecks returns the enabled health checks of the engine.
func newHealthChecks(cfg *aescfg.HealthCheckConfig,
	engine engineStatus) []*healthcheck.Observation {

	var checks []*healthcheck.Observation
	if cfg.Alert.Enabled() {
		checks = append(checks, healthcheck.NewObservation(
			"controller alert", alertCheck(engine),
			cfg.Alert.Interval, cfg.Alert.Timeout,
			cfg.Alert.Backoff, cfg.Alert.Attempts,
		))
	}

	if cfg.Progress.Enabled() {
		checks = append(checks, healthcheck.NewObservation(
			"engine progress", progressCheck(engine),
			cfg.Progress.Interval, cfg.Progress.Timeout,
			cfg.Progress.Backoff, cfg.Progress.Attempts,
		))
	}

	return checks
}
