package aesctrl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/lightninglabs/aesctrl/aescfg"
	"github.com/lightninglabs/aesctrl/aesutils"
	"github.com/lightninglabs/aesctrl/build"
	"github.com/lightninglabs/aesctrl/signal"
)

const (
	defaultDebugLevel = "info"

	// minTickInterval is the fastest clock the daemon is willing to run.
	minTickInterval = time.Microsecond
)

var (
	// DefaultAppDir is the default directory holding the configuration,
	// logs and traces.
	DefaultAppDir = btcutil.AppDataDir("aessimd", false)

	// DefaultConfigFile is the default full path of the config file.
	DefaultConfigFile = filepath.Join(
		DefaultAppDir, aescfg.DefaultConfigFilename,
	)

	defaultLogDir = filepath.Join(DefaultAppDir, aescfg.DefaultLogDirname)
)

// Config defines the configuration options for aessimd.
//
// See LoadConfig for further details regarding the configuration loading and
// parsing process.
//
//nolint:lll
type Config struct {
	ShowVersion bool `short:"V" long:"version" description:"Display version information and exit"`

	AppDir     string `long:"appdir" description:"The base directory that contains the config file, logs and traces."`
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir     string `long:"logdir" description:"Directory to log output."`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <global-level>,<subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	TraceFile string `long:"tracefile" description:"Record every tick to this file. A .zst suffix compresses the trace."`

	TickInterval time.Duration `long:"tickinterval" description:"Wall clock time between two controller ticks."`
	MaxJobTicks  uint64        `long:"maxjobticks" description:"Number of ticks after which a request is abandoned."`

	Cipher *aescfg.Cipher `group:"cipher" namespace:"cipher"`

	Pipeline *aescfg.Pipeline `group:"pipeline" namespace:"pipeline"`

	Workload *aescfg.Workload `group:"workload" namespace:"workload"`

	Prometheus aescfg.Prometheus `group:"prometheus" namespace:"prometheus"`

	HealthChecks *aescfg.HealthCheckConfig `group:"healthcheck" namespace:"healthcheck"`

	LogConfig *build.LogConfig `group:"logging" namespace:"logging"`

	// logRotator is the rotating file writer all sub loggers write to.
	logRotator *build.RotatingLogWriter

	// logMgr keeps track of the sub loggers and their levels.
	logMgr *build.SubLoggerManager
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		AppDir:       DefaultAppDir,
		ConfigFile:   DefaultConfigFile,
		LogDir:       defaultLogDir,
		DebugLevel:   defaultDebugLevel,
		TickInterval: DefaultTickInterval,
		MaxJobTicks:  DefaultMaxJobTicks,
		Cipher:       aescfg.DefaultCipher(),
		Pipeline:     aescfg.DefaultPipeline(),
		Workload:     aescfg.DefaultWorkload(),
		Prometheus:   aescfg.DefaultPrometheus(),
		HealthChecks: aescfg.DefaultHealthChecks(),
		LogConfig:    build.DefaultLogConfig(),
		logRotator:   build.NewRotatingLogWriter(),
	}
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func LoadConfig(interceptor signal.Interceptor) (*Config, error) {
	// Pre-parse the command line options to pick up an alternative config
	// file.
	preCfg := DefaultConfig()
	if _, err := flags.Parse(&preCfg); err != nil {
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", build.BuildInfo())
		os.Exit(0)
	}

	// If the config file path has not been modified by the user, then
	// we'll use the default config file path. However, if the user has
	// modified their appdir, then we should assume they intend to use the
	// config file within it.
	configFileDir := aescfg.CleanAndExpandPath(preCfg.AppDir)
	configFilePath := aescfg.CleanAndExpandPath(preCfg.ConfigFile)
	if configFileDir != DefaultAppDir && configFilePath == DefaultConfigFile {
		configFilePath = filepath.Join(
			configFileDir, aescfg.DefaultConfigFilename,
		)
	}

	// Next, load any additional configuration options from the file.
	var configFileError error
	cfg := preCfg
	if err := flags.IniParse(configFilePath, &cfg); err != nil {
		// If it's a parsing related error, then we'll return
		// immediately, otherwise we can proceed as possibly the config
		// file doesn't exist which is OK.
		var iniErr *flags.IniError
		if errors.As(err, &iniErr) {
			return nil, err
		}

		configFileError = err
	}

	// Finally, parse the remaining command line options again to ensure
	// they take precedence.
	if _, err := flags.Parse(&cfg); err != nil {
		return nil, err
	}

	// Make sure everything we just loaded makes sense.
	cleanCfg, err := ValidateConfig(cfg, usageMessage, interceptor)
	if err != nil {
		return nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done. This prevents the warning on help messages and invalid
	// options. Note this should go directly before the return.
	if configFileError != nil {
		aesdLog.Warnf("%v", configFileError)
	}

	return cleanCfg, nil
}

// ValidateConfig check the given configuration to be sane. This makes sure no
// illegal values or combination of values are set. All file system paths are
// normalized. The cleaned up config is returned on success.
func ValidateConfig(cfg Config, usageMessage string,
	interceptor signal.Interceptor) (*Config, error) {

	// If the provided app directory is not the default, we'll modify the
	// path to the log directory that lives within it.
	appDir := aescfg.CleanAndExpandPath(cfg.AppDir)
	if appDir != DefaultAppDir && cfg.LogDir == defaultLogDir {
		cfg.LogDir = filepath.Join(appDir, aescfg.DefaultLogDirname)
	}

	funcName := "ValidateConfig"
	makeDirectory := func(dir string) error {
		err := aesutils.CreateDir(dir, 0700)
		if err != nil {
			str := "%s: Failed to create aessimd directory: %v"
			err := fmt.Errorf(str, funcName, err)
			_, _ = fmt.Fprintln(os.Stderr, err)

			return err
		}

		return nil
	}

	// As soon as we're done parsing configuration options, ensure all
	// paths to directories and files are cleaned and expanded before
	// attempting to use them later on.
	cfg.AppDir = appDir
	cfg.LogDir = aescfg.CleanAndExpandPath(cfg.LogDir)
	cfg.TraceFile = aescfg.CleanAndExpandPath(cfg.TraceFile)

	// A relative trace file is placed in the traces directory of the app
	// directory.
	if cfg.TraceFile != "" && !filepath.IsAbs(cfg.TraceFile) {
		cfg.TraceFile = filepath.Join(
			cfg.AppDir, aescfg.DefaultTraceDirname, cfg.TraceFile,
		)
	}

	if err := makeDirectory(cfg.AppDir); err != nil {
		return nil, err
	}

	if cfg.TickInterval < minTickInterval {
		return nil, mkErr("tickinterval: %v below minimum: %v",
			cfg.TickInterval, minTickInterval)
	}

	if cfg.MaxJobTicks == 0 {
		return nil, mkErr("maxjobticks must be positive")
	}

	err := aescfg.Validate(
		cfg.Cipher, cfg.Pipeline, cfg.Workload, cfg.HealthChecks,
		cfg.LogConfig,
	)
	if err != nil {
		return nil, mkErr("error validating config: %v", err)
	}

	if cfg.Prometheus.Enabled() && cfg.Prometheus.Listen == "" {
		return nil, mkErr("prometheus.listen must be set when " +
			"prometheus.enable is set")
	}

	// Create the sub logger manager that writes to the console and the
	// rotating log file.
	if cfg.logRotator == nil {
		cfg.logRotator = build.NewRotatingLogWriter()
	}
	cfg.logMgr = build.NewSubLoggerManager(build.NewDefaultLogHandler(
		cfg.LogConfig, cfg.logRotator,
	))

	// Initialize logging at the default logging level.
	SetupLoggers(cfg.logMgr, interceptor)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems",
			cfg.logMgr.SupportedSubsystems())
		os.Exit(0)
	}

	if !cfg.LogConfig.File.Disable {
		err = cfg.logRotator.InitLogRotator(
			cfg.LogConfig.File,
			filepath.Join(cfg.LogDir, aescfg.DefaultLogFilename),
		)
		if err != nil {
			str := "%s: log rotation setup failed: %v"
			err = fmt.Errorf(str, funcName, err)
			_, _ = fmt.Fprintln(os.Stderr, err)

			return nil, err
		}
	}

	// Parse, validate, and set debug log level(s).
	err = build.ParseAndSetDebugLevels(cfg.DebugLevel, cfg.logMgr)
	if err != nil {
		err = fmt.Errorf("%s: %w", funcName, err)
		_, _ = fmt.Fprintln(os.Stderr, err)
		_, _ = fmt.Fprintln(os.Stderr, usageMessage)

		return nil, err
	}

	return &cfg, nil
}

// mkErr creates a new error from a format string and prints it to stderr.
func mkErr(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	_, _ = fmt.Fprintln(os.Stderr, "ValidateConfig: "+err.Error())

	return err
}
