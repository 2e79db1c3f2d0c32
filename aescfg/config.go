package aescfg

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

const (
	// DefaultConfigFilename is the default configuration file name aessimd
	// tries to load.
	DefaultConfigFilename = "aessimd.conf"

	// DefaultLogDirname is the default directory name where aessimd writes
	// its log files.
	DefaultLogDirname = "logs"

	// DefaultLogFilename is the default name of the daemon log file.
	DefaultLogFilename = "aessimd.log"

	// DefaultTraceDirname is the default directory for tick traces.
	DefaultTraceDirname = "traces"
)

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
