//go:build !windows

package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openNamed starts the named browser at url via PATH lookup. On macOS it
// goes through `open -a`, which resolves application bundles by name.
func openNamed(name, url string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		cmd = exec.Command("open", "-a", appBundleName(name), url)
	} else {
		cmd = exec.Command(name, url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("browser %q not found: %w", name, err)
	}
	// Deliberately not waited on; the browser outlives the launcher.
	return nil
}

// appBundleName maps executable-style names to macOS application names.
func appBundleName(name string) string {
	switch name {
	case "opera-gx", "opera gx":
		return "Opera GX"
	default:
		return name
	}
}
