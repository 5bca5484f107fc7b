//go:build !windows

package launcher

import (
	"fmt"
	"os"
	"syscall"
)

// processAlive reports whether a process with the given PID exists.
// On Unix, FindProcess always succeeds, so kill(0) is used to check.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// terminateProcess asks the process to shut down with SIGTERM.
func terminateProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process %d not found: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return nil
}
