// Package config provides configuration management for the launcher.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/ini.v1"

	"github.com/caa-tools/caa-launch/internal/constants"
)

// Readiness gate modes.
const (
	// ReadyModeProbe polls the server port/URL until it accepts connections.
	ReadyModeProbe = "probe"

	// ReadyModeDelay reproduces the legacy fixed sleep between server spawn
	// and browser open.
	ReadyModeDelay = "delay"
)

// Config represents the launcher configuration.
//
// Config file location:
//   - Windows: %LOCALAPPDATA%\ContentAI\Launcher\launcher.conf
//   - Unix: ~/.config/content-ai/launcher.conf
//
// INI format:
//
//	[server]
//	python = python
//	entry_file = streamlit_app.py
//	base_dir =
//	port = 8501
//	headless = true
//	gather_usage_stats = false
//	new_console = false
//
//	[readiness]
//	mode = probe
//	delay_seconds = 6
//	timeout_seconds = 30
//
//	[browser]
//	name = opera-gx
//	open = true
//
//	[logging]
//	capture_server_log = true
//	server_log =
type Config struct {
	// Server process settings
	Server ServerConfig

	// Readiness gate settings
	Readiness ReadinessConfig

	// Browser settings
	Browser BrowserConfig

	// Log capture settings
	Logging LoggingConfig
}

// ServerConfig contains the server spawn settings.
type ServerConfig struct {
	// Python is the interpreter executable used to run the server module.
	// Default: "python"
	Python string `ini:"python"`

	// EntryFile is the Streamlit entry point, relative to BaseDir.
	// Default: "streamlit_app.py"
	EntryFile string `ini:"entry_file"`

	// BaseDir is the directory containing the entry file. Empty means the
	// directory of the launcher executable itself, matching the legacy
	// scripts' "cd to the script's own folder" behavior.
	BaseDir string `ini:"base_dir"`

	// Port is the loopback TCP port the server binds.
	// Minimum: 1, Maximum: 65535, Default: 8501
	Port int `ini:"port"`

	// Headless passes --server.headless so Streamlit doesn't open its own UI.
	// Default: true
	Headless bool `ini:"headless"`

	// GatherUsageStats controls --browser.gatherUsageStats (telemetry).
	// Default: false
	GatherUsageStats bool `ini:"gather_usage_stats"`

	// NewConsole opens the server in its own console window on Windows
	// instead of a fully hidden background process. One legacy variant
	// spawned the server this way so its output stayed visible.
	NewConsole bool `ini:"new_console"`
}

// ReadinessConfig controls how the launcher decides the server is reachable
// before opening the browser.
type ReadinessConfig struct {
	// Mode is either "probe" (poll the port/URL) or "delay" (legacy fixed sleep).
	// Default: "probe"
	Mode string `ini:"mode"`

	// DelaySeconds is the fixed sleep used in delay mode.
	// Minimum: 1, Maximum: 300, Default: 6
	DelaySeconds int `ini:"delay_seconds"`

	// TimeoutSeconds bounds the polling loop in probe mode.
	// Minimum: 1, Maximum: 600, Default: 30
	TimeoutSeconds int `ini:"timeout_seconds"`
}

// BrowserConfig contains the browser-open settings.
type BrowserConfig struct {
	// Name is the browser executable to target. Empty means the system
	// default browser. Default: "opera-gx"
	Name string `ini:"name"`

	// Open controls whether a browser is opened at all.
	// Default: true
	Open bool `ini:"open"`
}

// LoggingConfig controls capture of the spawned server's output.
type LoggingConfig struct {
	// CaptureServerLog pipes the server's stdout/stderr to a rotating log
	// file. The legacy scripts discarded this output, which made spawn
	// failures invisible. Default: true
	CaptureServerLog bool `ini:"capture_server_log"`

	// ServerLog overrides the captured log path. Empty uses the default
	// location under the launcher log directory.
	ServerLog string `ini:"server_log"`
}

// Config validation errors
var (
	ErrInvalidPort         = errors.New("port must be between 1 and 65535")
	ErrInvalidReadyMode    = errors.New(`readiness mode must be "probe" or "delay"`)
	ErrInvalidDelay        = errors.New("delay_seconds must be between 1 and 300")
	ErrInvalidProbeTimeout = errors.New("timeout_seconds must be between 1 and 600")
	ErrMissingEntryFile    = errors.New("entry_file is required")
	ErrMissingPython       = errors.New("python interpreter is required")
)

// NewConfig creates a Config with default values matching the legacy scripts.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Python:           constants.DefaultPythonExecutable,
			EntryFile:        constants.DefaultEntryFile,
			BaseDir:          "",
			Port:             constants.DefaultPort,
			Headless:         true,
			GatherUsageStats: false,
			NewConsole:       false,
		},
		Readiness: ReadinessConfig{
			Mode:           ReadyModeProbe,
			DelaySeconds:   int(constants.LegacyReadyDelay / time.Second),
			TimeoutSeconds: int(constants.ProbeTimeout / time.Second),
		},
		Browser: BrowserConfig{
			Name: constants.DefaultBrowserName,
			Open: true,
		},
		Logging: LoggingConfig{
			CaptureServerLog: true,
			ServerLog:        "",
		},
	}
}

// Load reads configuration from the launcher.conf file.
// If path is empty, the default path is used.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load launcher.conf: %w", err)
	}

	serverSection := iniFile.Section("server")
	cfg.Server.Python = serverSection.Key("python").MustString(constants.DefaultPythonExecutable)
	cfg.Server.EntryFile = serverSection.Key("entry_file").MustString(constants.DefaultEntryFile)
	cfg.Server.BaseDir = serverSection.Key("base_dir").String()
	cfg.Server.Port = serverSection.Key("port").MustInt(constants.DefaultPort)
	cfg.Server.Headless = serverSection.Key("headless").MustBool(true)
	cfg.Server.GatherUsageStats = serverSection.Key("gather_usage_stats").MustBool(false)
	cfg.Server.NewConsole = serverSection.Key("new_console").MustBool(false)

	readySection := iniFile.Section("readiness")
	cfg.Readiness.Mode = readySection.Key("mode").MustString(ReadyModeProbe)
	cfg.Readiness.DelaySeconds = readySection.Key("delay_seconds").MustInt(int(constants.LegacyReadyDelay / time.Second))
	cfg.Readiness.TimeoutSeconds = readySection.Key("timeout_seconds").MustInt(int(constants.ProbeTimeout / time.Second))

	browserSection := iniFile.Section("browser")
	cfg.Browser.Name = browserSection.Key("name").MustString(constants.DefaultBrowserName)
	cfg.Browser.Open = browserSection.Key("open").MustBool(true)

	loggingSection := iniFile.Section("logging")
	cfg.Logging.CaptureServerLog = loggingSection.Key("capture_server_log").MustBool(true)
	cfg.Logging.ServerLog = loggingSection.Key("server_log").String()

	return cfg, nil
}

// Save writes configuration to the launcher.conf file.
// If path is empty, the default path is used.
// Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	serverSection, err := iniFile.NewSection("server")
	if err != nil {
		return fmt.Errorf("failed to create server section: %w", err)
	}
	serverSection.Key("python").SetValue(cfg.Server.Python)
	serverSection.Key("entry_file").SetValue(cfg.Server.EntryFile)
	serverSection.Key("base_dir").SetValue(cfg.Server.BaseDir)
	serverSection.Key("port").SetValue(fmt.Sprintf("%d", cfg.Server.Port))
	serverSection.Key("headless").SetValue(fmt.Sprintf("%t", cfg.Server.Headless))
	serverSection.Key("gather_usage_stats").SetValue(fmt.Sprintf("%t", cfg.Server.GatherUsageStats))
	serverSection.Key("new_console").SetValue(fmt.Sprintf("%t", cfg.Server.NewConsole))

	readySection, err := iniFile.NewSection("readiness")
	if err != nil {
		return fmt.Errorf("failed to create readiness section: %w", err)
	}
	readySection.Key("mode").SetValue(cfg.Readiness.Mode)
	readySection.Key("delay_seconds").SetValue(fmt.Sprintf("%d", cfg.Readiness.DelaySeconds))
	readySection.Key("timeout_seconds").SetValue(fmt.Sprintf("%d", cfg.Readiness.TimeoutSeconds))

	browserSection, err := iniFile.NewSection("browser")
	if err != nil {
		return fmt.Errorf("failed to create browser section: %w", err)
	}
	browserSection.Key("name").SetValue(cfg.Browser.Name)
	browserSection.Key("open").SetValue(fmt.Sprintf("%t", cfg.Browser.Open))

	loggingSection, err := iniFile.NewSection("logging")
	if err != nil {
		return fmt.Errorf("failed to create logging section: %w", err)
	}
	loggingSection.Key("capture_server_log").SetValue(fmt.Sprintf("%t", cfg.Logging.CaptureServerLog))
	loggingSection.Key("server_log").SetValue(cfg.Logging.ServerLog)

	// Write via temporary file + rename for atomicity.
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns nil if valid, or an error describing what's wrong.
func (cfg *Config) Validate() error {
	if cfg.Server.Python == "" {
		return ErrMissingPython
	}
	if cfg.Server.EntryFile == "" {
		return ErrMissingEntryFile
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return ErrInvalidPort
	}
	if cfg.Readiness.Mode != ReadyModeProbe && cfg.Readiness.Mode != ReadyModeDelay {
		return ErrInvalidReadyMode
	}
	if cfg.Readiness.DelaySeconds < 1 || cfg.Readiness.DelaySeconds > 300 {
		return ErrInvalidDelay
	}
	if cfg.Readiness.TimeoutSeconds < 1 || cfg.Readiness.TimeoutSeconds > 600 {
		return ErrInvalidProbeTimeout
	}
	return nil
}

// ReadyDelay returns the delay-mode sleep as a duration.
func (cfg *Config) ReadyDelay() time.Duration {
	return time.Duration(cfg.Readiness.DelaySeconds) * time.Second
}

// ReadyTimeout returns the probe-mode budget as a duration.
func (cfg *Config) ReadyTimeout() time.Duration {
	return time.Duration(cfg.Readiness.TimeoutSeconds) * time.Second
}

// URL returns the local URL the browser is pointed at. It is always derived
// from the same port the server is spawned with.
func (cfg *Config) URL() string {
	return fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
}

// ServerLogPath returns the effective captured-log path.
func (cfg *Config) ServerLogPath() string {
	if cfg.Logging.ServerLog != "" {
		return cfg.Logging.ServerLog
	}
	return DefaultServerLogPath()
}
