// Package launcher sequences the local web-app startup: resolve the base
// directory, pre-flight the entry file, spawn the detached server, gate on
// readiness, and open the browser. The spawned server outlives the launcher;
// stopping it is an explicit separate operation.
package launcher

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caa-tools/caa-launch/internal/config"
	"github.com/caa-tools/caa-launch/internal/constants"
)

// Options are the fully resolved parameters for one launch run. They replace
// the per-script literals of the legacy launchers: every variant difference
// (delay length, pre-flight, console mode) is a field here.
type Options struct {
	// BaseDir is the working directory containing the entry file.
	// Empty means the launcher executable's own directory.
	BaseDir string

	// Python is the interpreter executable.
	Python string

	// EntryFile is the Streamlit entry point, relative to BaseDir.
	EntryFile string

	// Port is the loopback port the server binds; the browser URL is always
	// derived from this same value.
	Port int

	// Headless and GatherUsageStats are passed through to Streamlit.
	Headless         bool
	GatherUsageStats bool

	// NewConsole spawns the server in its own console window (Windows only).
	NewConsole bool

	// Preflight verifies the entry file exists before spawning anything.
	Preflight bool

	// ReadyMode is config.ReadyModeProbe or config.ReadyModeDelay.
	ReadyMode string

	// ReadyDelay is the fixed sleep in delay mode.
	ReadyDelay time.Duration

	// ReadyTimeout bounds the polling loop in probe mode.
	ReadyTimeout time.Duration

	// BrowserName targets a specific browser; empty means system default.
	BrowserName string

	// OpenBrowser controls whether any browser is opened.
	OpenBrowser bool

	// CaptureServerLog pipes server output to ServerLogPath.
	CaptureServerLog bool

	// ServerLogPath is where server stdout/stderr goes when captured.
	ServerLogPath string

	// StateFile records the spawned server process for stop/status.
	StateFile string
}

// OptionsFromConfig builds Options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseDir:          cfg.Server.BaseDir,
		Python:           cfg.Server.Python,
		EntryFile:        cfg.Server.EntryFile,
		Port:             cfg.Server.Port,
		Headless:         cfg.Server.Headless,
		GatherUsageStats: cfg.Server.GatherUsageStats,
		NewConsole:       cfg.Server.NewConsole,
		Preflight:        true,
		ReadyMode:        cfg.Readiness.Mode,
		ReadyDelay:       cfg.ReadyDelay(),
		ReadyTimeout:     cfg.ReadyTimeout(),
		BrowserName:      cfg.Browser.Name,
		OpenBrowser:      cfg.Browser.Open,
		CaptureServerLog: cfg.Logging.CaptureServerLog,
		ServerLogPath:    cfg.ServerLogPath(),
		StateFile:        config.DefaultStateFilePath(),
	}
}

// URL returns the local URL derived from the configured port.
func (o Options) URL() string {
	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// Addr returns the host:port probed for readiness.
func (o Options) Addr() string {
	return fmt.Sprintf("localhost:%d", o.Port)
}

// ServerArgs builds the interpreter argument list for the server spawn.
// The port literal comes from the same Options field the browser URL is
// derived from, so the two can never disagree.
func (o Options) ServerArgs() []string {
	return []string{
		"-m", constants.ServerModule, constants.ServerRunCommand,
		o.EntryFile,
		constants.FlagHeadless, strconv.FormatBool(o.Headless),
		constants.FlagUsageStats, strconv.FormatBool(o.GatherUsageStats),
		constants.FlagPort, strconv.Itoa(o.Port),
	}
}
