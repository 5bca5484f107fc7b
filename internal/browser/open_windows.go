//go:build windows

package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// openNamed starts the named browser at url. It tries the executable on PATH
// first, then known install locations for browsers that don't register
// themselves on PATH (Opera GX notoriously doesn't).
func openNamed(name, url string) error {
	for _, exe := range candidatePaths(name) {
		cmd := exec.Command(exe, url)
		if err := cmd.Start(); err == nil {
			// Deliberately not waited on; the browser outlives the launcher.
			return nil
		}
	}
	return fmt.Errorf("browser %q not found", name)
}

// candidatePaths returns executable candidates for a browser name, most
// specific first. The bare name relies on PATH lookup.
func candidatePaths(name string) []string {
	candidates := []string{name}

	if name == "opera-gx" || name == "opera gx" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			candidates = append(candidates,
				filepath.Join(localAppData, "Programs", "Opera GX", "opera.exe"))
		}
		if programFiles := os.Getenv("ProgramFiles"); programFiles != "" {
			candidates = append(candidates,
				filepath.Join(programFiles, "Opera GX", "opera.exe"))
		}
		if programFilesX86 := os.Getenv("ProgramFiles(x86)"); programFilesX86 != "" {
			candidates = append(candidates,
				filepath.Join(programFilesX86, "Opera GX", "opera.exe"))
		}
	}

	return candidates
}
