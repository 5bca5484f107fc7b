//go:build windows

package launcher

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// processAlive reports whether a process with the given PID exists.
// os.FindProcess always succeeds on Windows even for dead PIDs, so the
// Windows API is used to verify the process is actually alive.
func processAlive(pid int) bool {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	windows.CloseHandle(handle)
	return true
}

// terminateProcess forcibly ends the process. Streamlit has no graceful
// shutdown channel on Windows, so TerminateProcess is the supported path.
func terminateProcess(pid int) error {
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(handle)

	if err := windows.TerminateProcess(handle, 1); err != nil {
		return fmt.Errorf("failed to terminate process %d: %w", pid, err)
	}
	return nil
}
