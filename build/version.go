package build

import "fmt"

// Commit stores the current commit hash of this build, this should be set
// using the -ldflags during compilation.
var Commit string

const (
	// AppMajor defines the major version of this binary.
	AppMajor uint = 0

	// AppMinor defines the minor version of this binary.
	AppMinor uint = 3

	// AppPatch defines the application patch for this binary.
	AppPatch uint = 0

	// AppPreRelease MUST only contain characters from semanticAlphabet per
	// the semantic versioning spec.
	AppPreRelease = "beta"
)

// DeploymentType selects which hooks and logging defaults are compiled in.
// It is fixed by the dev build tag.
type DeploymentType byte

const (
	// Development builds may route sub loggers to stdout.
	Development DeploymentType = iota

	// Production builds always log through the daemon's handlers.
	Production
)

// String returns the name of the deployment type.
func (b DeploymentType) String() string {
	switch b {
	case Development:
		return "development"
	case Production:
		return "production"
	default:
		return "unknown"
	}
}

// Version returns the application version as a properly formed string per the
// semantic versioning 2.0.0 spec (http://semver.org/).
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", AppMajor, AppMinor, AppPatch)
	if AppPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, AppPreRelease)
	}

	return version
}

// Info describes the binary: its version, the commit it was built from and
// the compiled in deployment and logging types.
type Info struct {
	Version    string
	Commit     string
	Deployment DeploymentType
	Logging    LogType
}

// BuildInfo returns the metadata of the running binary.
func BuildInfo() Info {
	return Info{
		Version:    Version(),
		Commit:     Commit,
		Deployment: Deployment,
		Logging:    LoggingType,
	}
}

// String renders the metadata on a single line.
func (i Info) String() string {
	commit := i.Commit
	if commit == "" {
		commit = "unknown"
	}

	return fmt.Sprintf("%s commit=%s build=%s logging=%s", i.Version,
		commit, i.Deployment, i.Logging)
}
