package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caa-tools/caa-launch/internal/browser"
	"github.com/caa-tools/caa-launch/internal/config"
	"github.com/caa-tools/caa-launch/internal/constants"
	"github.com/caa-tools/caa-launch/internal/logging"
	"github.com/caa-tools/caa-launch/internal/readiness"
)

// ErrEntryFileMissing is returned when the pre-flight check fails.
// Callers map it to exit status 1 without spawning anything.
var ErrEntryFileMissing = errors.New("entry file not found")

// ProbeFunc matches readiness.Probe; injectable for tests.
type ProbeFunc func(ctx context.Context, cfg readiness.Config) (bool, error)

// DelayFunc matches readiness.WaitFixed; injectable for tests.
type DelayFunc func(ctx context.Context, d time.Duration, onTick func(remaining time.Duration)) error

// Result reports what a run did. Readiness and browser failures are carried
// here rather than aborting the run: after the server spawn the launcher is
// best-effort by contract, and the user gets the report instead of a stall.
type Result struct {
	// PID of the spawned server process.
	PID int

	// URL the browser was (or should be) pointed at.
	URL string

	// Ready is true when the readiness gate confirmed the server;
	// in delay mode it is always true (the legacy mode never knew).
	Ready bool

	// ReadyErr is the probe failure when Ready is false.
	ReadyErr error

	// BrowserOpened is true when a browser launch was attempted and accepted.
	BrowserOpened bool

	// BrowserErr is the browser-open failure, if any.
	BrowserErr error

	// LogFile is where server output is captured, empty if not captured.
	LogFile string
}

// Launcher runs the startup sequence. The process runner, browser opener and
// readiness functions are injectable so the sequencing contract is testable
// without real processes.
type Launcher struct {
	opts    Options
	runner  CommandRunner
	browser browser.Launcher
	probe   ProbeFunc
	delay   DelayFunc
	logger  *logging.Logger

	// OnDelayTick is called once per second during delay mode with the
	// remaining wait, for countdown rendering.
	OnDelayTick func(remaining time.Duration)
}

// New creates a launcher with production dependencies.
func New(opts Options, logger *logging.Logger) *Launcher {
	return &Launcher{
		opts:    opts,
		runner:  ExecRunner{},
		browser: &browser.NamedBrowser{Name: opts.BrowserName},
		probe:   readiness.Probe,
		delay:   readiness.WaitFixed,
		logger:  logger,
	}
}

// NewWithDeps creates a launcher with explicit dependencies (tests).
func NewWithDeps(opts Options, runner CommandRunner, b browser.Launcher, probe ProbeFunc, delay DelayFunc, logger *logging.Logger) *Launcher {
	return &Launcher{
		opts:    opts,
		runner:  runner,
		browser: b,
		probe:   probe,
		delay:   delay,
		logger:  logger,
	}
}

// Run executes the launch sequence:
//
//	resolve dir -> pre-flight -> spawn server -> readiness gate -> open browser
//
// The server spawn is fire-and-forget by contract; only the pre-flight check
// and the spawn call itself can fail the run. Everything after the spawn is
// reported through Result, never retried and never fatal.
func (l *Launcher) Run(ctx context.Context) (*Result, error) {
	baseDir, err := l.resolveBaseDir()
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(baseDir); err != nil {
		return nil, fmt.Errorf("failed to change to base directory %s: %w", baseDir, err)
	}
	l.logger.Debug().Str("dir", baseDir).Msg("Resolved base directory")

	if l.opts.Preflight {
		entry := filepath.Join(baseDir, l.opts.EntryFile)
		if _, err := os.Stat(entry); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrEntryFileMissing, entry)
		}
		l.logger.Debug().Str("entry", entry).Msg("Pre-flight check passed")
	}

	result := &Result{URL: l.opts.URL()}

	spec := CommandSpec{
		Dir:        baseDir,
		Name:       l.opts.Python,
		Args:       l.opts.ServerArgs(),
		NewConsole: l.opts.NewConsole,
	}
	if l.opts.CaptureServerLog {
		spec.LogPath = l.opts.ServerLogPath
		result.LogFile = l.opts.ServerLogPath
	}

	l.logger.Info().
		Str("python", spec.Name).
		Int("port", l.opts.Port).
		Msg("Starting Streamlit server")

	pid, err := l.runner.Start(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn server: %w", err)
	}
	result.PID = pid
	l.logger.Info().Int("pid", pid).Msg("Server process started")

	l.recordState(baseDir, pid)

	result.Ready, result.ReadyErr = l.awaitReady(ctx)
	if result.ReadyErr != nil && !errors.Is(result.ReadyErr, context.Canceled) {
		l.logger.Warn().Err(result.ReadyErr).Msg("Server readiness not confirmed, continuing anyway")
	}

	if l.opts.OpenBrowser {
		l.logger.Info().Str("url", result.URL).Msg("Opening browser")
		if err := l.browser.OpenURL(result.URL); err != nil {
			result.BrowserErr = err
			l.logger.Warn().Err(err).Str("url", result.URL).Msg("Could not open browser")
		} else {
			result.BrowserOpened = true
		}
	}

	return result, nil
}

// resolveBaseDir returns the configured base directory, defaulting to the
// directory containing the launcher executable - the legacy scripts' "cd to
// the script's own folder" behavior, independent of the caller's cwd.
func (l *Launcher) resolveBaseDir() (string, error) {
	if l.opts.BaseDir != "" {
		abs, err := filepath.Abs(l.opts.BaseDir)
		if err != nil {
			return "", fmt.Errorf("invalid base directory: %w", err)
		}
		return abs, nil
	}

	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(executable)
	if err != nil {
		resolved = executable
	}
	return filepath.Dir(resolved), nil
}

// awaitReady runs the configured readiness gate between spawn and browser open.
func (l *Launcher) awaitReady(ctx context.Context) (bool, error) {
	if l.opts.ReadyMode == config.ReadyModeDelay {
		l.logger.Info().Dur("delay", l.opts.ReadyDelay).Msg("Waiting fixed delay for server startup")
		if err := l.delay(ctx, l.opts.ReadyDelay, l.OnDelayTick); err != nil {
			return false, err
		}
		// The legacy mode assumes readiness; it has no way to know.
		return true, nil
	}

	l.logger.Info().
		Str("addr", l.opts.Addr()).
		Dur("timeout", l.opts.ReadyTimeout).
		Msg("Probing server readiness")

	return l.probe(ctx, readiness.Config{
		Addr:            l.opts.Addr(),
		URL:             l.opts.URL(),
		Timeout:         l.opts.ReadyTimeout,
		InitialInterval: constants.ProbeInitialInterval,
		MaxInterval:     constants.ProbeMaxInterval,
		RequestTimeout:  constants.ProbeRequestTimeout,
		OnAttempt: func(attempt int, err error) {
			l.logger.Debug().Int("attempt", attempt).Err(err).Msg("Server not ready yet")
		},
	})
}

// recordState saves the spawned process identity for stop/status.
// Failure to record is reported but never fails the launch.
func (l *Launcher) recordState(baseDir string, pid int) {
	if l.opts.StateFile == "" {
		return
	}

	st := &ServerState{
		PID:       pid,
		Port:      l.opts.Port,
		URL:       l.opts.URL(),
		Python:    l.opts.Python,
		EntryFile: l.opts.EntryFile,
		BaseDir:   baseDir,
		LogFile:   l.opts.ServerLogPath,
		StartedAt: time.Now(),
	}
	if !l.opts.CaptureServerLog {
		st.LogFile = ""
	}

	if err := NewStateFile(l.opts.StateFile).Save(st); err != nil {
		l.logger.Warn().Err(err).Msg("Could not record server state; stop/status will not see this process")
	}
}
