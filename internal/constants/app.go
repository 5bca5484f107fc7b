package constants

import (
	"time"
)

// Application identity
const (
	// AppName is the short tool name used in banners and paths.
	AppName = "caa-launch"
)

// Server defaults. These are the literal values the legacy launch scripts
// hard-coded in each copy; here the port lives in exactly one place and the
// browser URL is always derived from it.
const (
	// DefaultPort is the Streamlit server port.
	DefaultPort = 8501

	// DefaultEntryFile is the Streamlit application entry point, expected in
	// the base directory.
	DefaultEntryFile = "streamlit_app.py"

	// DefaultPythonExecutable is the interpreter used to run the server module.
	DefaultPythonExecutable = "python"

	// ServerModule is the Python module invoked with `-m`.
	ServerModule = "streamlit"

	// ServerRunCommand is the streamlit subcommand.
	ServerRunCommand = "run"
)

// Streamlit flag names passed on the server command line.
const (
	FlagHeadless   = "--server.headless"
	FlagUsageStats = "--browser.gatherUsageStats"
	FlagPort       = "--server.port"
)

// Browser defaults
const (
	// DefaultBrowserName is the browser the legacy scripts targeted.
	DefaultBrowserName = "opera-gx"
)

// Readiness gate timings
const (
	// LegacyReadyDelay reproduces the longest fixed sleep the legacy scripts
	// used between server spawn and browser open (5-6s across variants).
	LegacyReadyDelay = 6 * time.Second

	// ProbeTimeout bounds the readiness polling loop. A cold interpreter
	// start can take well over the legacy delay, so the budget is generous;
	// on expiry the browser is opened anyway and the timeout is reported.
	ProbeTimeout = 30 * time.Second

	// ProbeInitialInterval is the base delay for probe backoff.
	ProbeInitialInterval = 250 * time.Millisecond

	// ProbeMaxInterval caps the backoff between probe attempts.
	ProbeMaxInterval = 2 * time.Second

	// ProbeRequestTimeout bounds a single TCP dial or HTTP GET attempt.
	ProbeRequestTimeout = 2 * time.Second
)

// Launcher log rotation (--log-file)
const (
	// LogMaxSizeMB is the rotation threshold for the launcher log file.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated launcher logs to keep.
	LogMaxBackups = 3

	// LogMaxAgeDays is the retention period for rotated launcher logs.
	LogMaxAgeDays = 14
)
