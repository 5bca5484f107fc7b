package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// CommandSpec describes a detached child process to start.
type CommandSpec struct {
	// Dir is the working directory for the child.
	Dir string

	// Name is the executable, resolved via PATH if not absolute.
	Name string

	// Args are the arguments, not including the executable name.
	Args []string

	// NewConsole gives the child its own console window on Windows.
	NewConsole bool

	// LogPath captures the child's stdout/stderr when non-empty.
	LogPath string
}

// CommandRunner starts detached child processes. The production
// implementation wraps os/exec; tests substitute a recording fake.
type CommandRunner interface {
	// Start launches the process described by spec without waiting for it.
	// The returned PID identifies the child; the child is never reaped or
	// signalled by the launcher (stop is a separate, explicit operation).
	Start(spec CommandSpec) (pid int, err error)
}

// ExecRunner starts real processes, detached from the launcher's session so
// they survive the launcher exiting.
type ExecRunner struct{}

// Start launches the child detached. When spec.LogPath is set, the child's
// output goes to that file through an inherited descriptor - a pipe would
// break once the launcher exits, and the server must keep running.
func (ExecRunner) Start(spec CommandSpec) (int, error) {
	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdin = nil
	cmd.SysProcAttr = detachedSysProcAttr(spec.NewConsole)

	if spec.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(spec.LogPath), 0700); err != nil {
			return 0, fmt.Errorf("failed to create server log directory: %w", err)
		}
		logFile, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return 0, fmt.Errorf("failed to open server log: %w", err)
		}
		// The descriptor is inherited by the child; the parent's copy is
		// closed right after Start.
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start server process: %w", err)
	}

	pid := cmd.Process.Pid

	// Release the handle: the server is intentionally unmanaged from here on.
	// Its identity is recorded in the state file for stop/status instead.
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release process handle: %w", err)
	}

	return pid, nil
}
