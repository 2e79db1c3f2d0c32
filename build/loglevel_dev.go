//go:build dev

package build

// LogLevel specifies the default log level for stdout sub loggers. Dev builds
// run the unit tests, where tick level detail is useful.
const LogLevel = "debug"
