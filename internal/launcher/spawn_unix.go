//go:build !windows

package launcher

import (
	"syscall"
)

// detachedSysProcAttr puts the child in its own session so closing the
// launcher's terminal doesn't deliver SIGHUP to the server.
func detachedSysProcAttr(newConsole bool) *syscall.SysProcAttr {
	// newConsole has no meaning off Windows; the child always gets a new
	// session.
	_ = newConsole
	return &syscall.SysProcAttr{
		Setsid: true,
	}
}
