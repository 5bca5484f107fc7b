// Package browser opens a URL in a specific named browser, falling back to
// the system default. Opening is fire-and-forget: the browser process is
// never waited on and runs independently of the launcher.
package browser

import (
	"github.com/pkg/browser"
)

// Launcher knows how to open a given URL in some suitable browser on the
// current system. Launching browsers is target-platform-sensitive, so this
// interface abstracts over the named-executable and system-default
// implementations (and fakes in tests).
type Launcher interface {
	// OpenURL opens the given URL in a web browser. The browser may or may
	// not take input focus, so callers should always print the URL too.
	OpenURL(url string) error
}

// NamedBrowser opens URLs in a browser identified by executable name,
// searching PATH and a set of per-OS install candidates. If the named
// browser cannot be found or started, it falls back to the system default.
type NamedBrowser struct {
	// Name is the browser executable to target, e.g. "opera-gx".
	// Empty means system default only.
	Name string
}

// OpenURL starts the named browser pointed at url without waiting for it to
// exit. A missing named browser is not an error as long as the system
// default can take over.
func (b *NamedBrowser) OpenURL(url string) error {
	if b.Name != "" {
		if err := openNamed(b.Name, url); err == nil {
			return nil
		}
	}
	return browser.OpenURL(url)
}

// DefaultBrowser opens URLs in the system default browser.
type DefaultBrowser struct{}

// OpenURL opens url in the system default browser.
func (DefaultBrowser) OpenURL(url string) error {
	return browser.OpenURL(url)
}
