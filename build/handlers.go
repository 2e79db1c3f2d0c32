package build

import (
	"os"

	"github.com/btcsuite/btclog/v2"
)

// NewDefaultLogHandler returns the root handler shared by all subsystem
// loggers. Lines go to stdout and to the rotating log file unless the
// respective logger is disabled in the config.
func NewDefaultLogHandler(cfg *LogConfig,
	rotator *RotatingLogWriter) btclog.Handler {

	writer := &LogWriter{}
	if !cfg.Console.Disable {
		writer.Console = os.Stdout
	}
	if !cfg.File.Disable && rotator != nil {
		writer.File = rotator
	}

	return btclog.NewDefaultHandler(writer, cfg.HandlerOptions()...)
}
