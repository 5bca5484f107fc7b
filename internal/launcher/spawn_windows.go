//go:build windows

package launcher

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachedSysProcAttr detaches the child from the launcher's console so it
// survives the launcher window closing. With newConsole the server gets its
// own visible console window, matching the legacy variant that kept the
// Streamlit output on screen.
func detachedSysProcAttr(newConsole bool) *syscall.SysProcAttr {
	flags := uint32(windows.CREATE_NEW_PROCESS_GROUP)
	if newConsole {
		flags |= windows.CREATE_NEW_CONSOLE
	} else {
		flags |= windows.DETACHED_PROCESS
	}
	return &syscall.SysProcAttr{
		CreationFlags: flags,
		HideWindow:    !newConsole,
	}
}
