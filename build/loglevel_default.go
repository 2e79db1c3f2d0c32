//go:build !dev

package build

// LogLevel specifies the default log level for stdout sub loggers.
const LogLevel = "info"
