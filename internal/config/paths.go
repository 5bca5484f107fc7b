// Package config provides configuration management for the launcher.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/caa-tools/caa-launch/internal/constants"
)

// ConfigDirectory returns the per-user directory for launcher configuration.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\ContentAI\Launcher
//   - Unix: ~/.config/content-ai
func ConfigDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), constants.AppName)
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "ContentAI", "Launcher")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), constants.AppName)
		}
		return filepath.Join(homeDir, ".config", "content-ai")
	}
	return filepath.Join(configDir, "content-ai")
}

// LogDirectory returns the unified log directory for launcher and captured
// server logs.
func LogDirectory() string {
	return filepath.Join(ConfigDirectory(), "logs")
}

// DefaultConfigPath returns the default path of launcher.conf.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "launcher.conf")
}

// DefaultStateFilePath returns the default path of the server state file.
func DefaultStateFilePath() string {
	return filepath.Join(ConfigDirectory(), "server-state.json")
}

// DefaultServerLogPath returns the default path for the captured server
// stdout/stderr log.
func DefaultServerLogPath() string {
	return filepath.Join(LogDirectory(), "streamlit.log")
}
