package aesctrl

import (
	"github.com/btcsuite/btclog/v2"
	"github.com/lightninglabs/aesctrl/build"
	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/monitoring"
	"github.com/lightninglabs/aesctrl/pipeline"
	"github.com/lightninglabs/aesctrl/prng"
	"github.com/lightninglabs/aesctrl/signal"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightninglabs/aesctrl/tracefile"
)

// Loggers per subsystem. A single root handler is created and all subsystem
// loggers created from it write to it. When adding new subsystems, add the
// subsystem logger variable here and register it in SetupLoggers.
//
// Loggers should not be used before SetupLoggers has been called, until
// then they discard their output.
var (
	aesdLog btclog.Logger = btclog.Disabled
	engnLog btclog.Logger = btclog.Disabled
)

const (
	// daemonSubsystem is the logging code of the daemon itself.
	daemonSubsystem = "AESD"

	// engineSubsystem is the logging code of the tick engine.
	engineSubsystem = "ENGN"

	// signalSubsystem is the logging code of the interrupt handler.
	signalSubsystem = "SGNL"
)

// SetupLoggers initializes all package-global logger variables. Every
// critical log line requests a shutdown through interceptor.
func SetupLoggers(root *build.SubLoggerManager,
	interceptor signal.Interceptor) {

	genLogger := genSubLogger(root, interceptor)

	aesdLog = build.NewSubLogger(daemonSubsystem, genLogger)
	engnLog = build.NewSubLogger(engineSubsystem, genLogger)

	AddSubLogger(root, cipherctrl.Subsystem, interceptor,
		cipherctrl.UseLogger)
	AddSubLogger(root, pipeline.Subsystem, interceptor, pipeline.UseLogger)
	AddSubLogger(root, prng.Subsystem, interceptor, prng.UseLogger)
	AddSubLogger(root, sim.Subsystem, interceptor, sim.UseLogger)
	AddSubLogger(root, tracefile.Subsystem, interceptor,
		tracefile.UseLogger)
	AddSubLogger(root, monitoring.Subsystem, interceptor,
		monitoring.UseLogger)
	AddSubLogger(root, signalSubsystem, interceptor, signal.UseLogger)
}

// AddSubLogger is a helper method to conveniently create and register the
// logger of one or more sub systems.
func AddSubLogger(root *build.SubLoggerManager, subsystem string,
	interceptor signal.Interceptor, useLoggers ...func(btclog.Logger)) {

	logger := build.NewSubLogger(
		subsystem, genSubLogger(root, interceptor),
	)

	for _, useLogger := range useLoggers {
		useLogger(logger)
	}
}

// genSubLogger creates a logger for a subsystem. We provide an instance of
// a signal.Interceptor to be able to shutdown in the case of a critical
// error.
func genSubLogger(root *build.SubLoggerManager,
	interceptor signal.Interceptor) func(string) btclog.Logger {

	return func(tag string) btclog.Logger {
		return root.GenSubLogger(tag, interceptor.RequestShutdown)
	}
}
