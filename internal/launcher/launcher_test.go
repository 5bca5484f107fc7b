package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/caa-tools/caa-launch/internal/config"
	"github.com/caa-tools/caa-launch/internal/logging"
	"github.com/caa-tools/caa-launch/internal/readiness"
)

// fakeRunner records spawn calls instead of creating processes.
type fakeRunner struct {
	events *[]string
	specs  []CommandSpec
	err    error
}

func (r *fakeRunner) Start(spec CommandSpec) (int, error) {
	*r.events = append(*r.events, "spawn")
	r.specs = append(r.specs, spec)
	if r.err != nil {
		return 0, r.err
	}
	return 4321, nil
}

// fakeBrowser records open calls.
type fakeBrowser struct {
	events *[]string
	urls   []string
	err    error
}

func (b *fakeBrowser) OpenURL(url string) error {
	*b.events = append(*b.events, "browser")
	b.urls = append(b.urls, url)
	return b.err
}

func testDeps(t *testing.T, events *[]string) (*fakeRunner, *fakeBrowser, ProbeFunc, DelayFunc) {
	t.Helper()

	runner := &fakeRunner{events: events}
	browser := &fakeBrowser{events: events}
	probe := func(ctx context.Context, cfg readiness.Config) (bool, error) {
		*events = append(*events, "ready")
		return true, nil
	}
	delay := func(ctx context.Context, d time.Duration, onTick func(time.Duration)) error {
		*events = append(*events, "delay")
		return nil
	}
	return runner, browser, probe, delay
}

func testOptions(t *testing.T, baseDir string) Options {
	t.Helper()

	return Options{
		BaseDir:      baseDir,
		Python:       "python",
		EntryFile:    "streamlit_app.py",
		Port:         8601,
		Headless:     true,
		Preflight:    true,
		ReadyMode:    config.ReadyModeProbe,
		ReadyDelay:   time.Second,
		ReadyTimeout: time.Second,
		OpenBrowser:  true,
		StateFile:    filepath.Join(t.TempDir(), "state.json"),
	}
}

func writeEntryFile(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "streamlit_app.py")
	if err := os.WriteFile(path, []byte("import streamlit\n"), 0644); err != nil {
		t.Fatalf("Failed to write entry file: %v", err)
	}
}

func restoreWd(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestRun_OrderingInvariant(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(testOptions(t, baseDir), runner, browser, probe, delay, logging.NewDefaultLogger())

	result, err := l.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Spawn, then readiness gate, then browser - strictly in that order.
	want := []string{"spawn", "ready", "browser"}
	if len(events) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Event %d: expected %q, got %q", i, want[i], events[i])
		}
	}

	if !result.Ready {
		t.Error("Expected Ready=true")
	}
	if !result.BrowserOpened {
		t.Error("Expected BrowserOpened=true")
	}
	if result.PID != 4321 {
		t.Errorf("Expected PID=4321, got %d", result.PID)
	}
}

func TestRun_DelayModeOrdering(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	opts := testOptions(t, baseDir)
	opts.ReadyMode = config.ReadyModeDelay

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(opts, runner, browser, probe, delay, logging.NewDefaultLogger())

	result, err := l.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"spawn", "delay", "browser"}
	for i := range want {
		if i >= len(events) || events[i] != want[i] {
			t.Fatalf("Expected events %v, got %v", want, events)
		}
	}

	// Delay mode has no readiness signal; it assumes success.
	if !result.Ready {
		t.Error("Expected Ready=true in delay mode")
	}
}

func TestRun_PortConsistency(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(testOptions(t, baseDir), runner, browser, probe, delay, logging.NewDefaultLogger())

	result, err := l.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The port in the spawn command line always matches the browser URL.
	spec := runner.specs[0]
	portArg := ""
	for i, arg := range spec.Args {
		if arg == "--server.port" && i+1 < len(spec.Args) {
			portArg = spec.Args[i+1]
		}
	}
	if portArg == "" {
		t.Fatalf("No --server.port in spawn args: %v", spec.Args)
	}

	wantURL := fmt.Sprintf("http://localhost:%s", portArg)
	if result.URL != wantURL {
		t.Errorf("URL %q does not match spawn port %s", result.URL, portArg)
	}
	if browser.urls[0] != wantURL {
		t.Errorf("Browser opened %q, expected %q", browser.urls[0], wantURL)
	}

	// Headless flag is always on the command line.
	joined := strings.Join(spec.Args, " ")
	if !strings.Contains(joined, "--server.headless true") {
		t.Errorf("Expected headless flag in args: %v", spec.Args)
	}
}

func TestRun_PreflightAbort(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir() // no entry file

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(testOptions(t, baseDir), runner, browser, probe, delay, logging.NewDefaultLogger())

	_, err := l.Run(context.Background())
	if !errors.Is(err, ErrEntryFileMissing) {
		t.Fatalf("Expected ErrEntryFileMissing, got %v", err)
	}

	// Nothing may be spawned after a failed pre-flight.
	if len(events) != 0 {
		t.Errorf("Expected no events after pre-flight failure, got %v", events)
	}
}

func TestRun_PreflightDisabled(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir() // no entry file

	opts := testOptions(t, baseDir)
	opts.Preflight = false

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(opts, runner, browser, probe, delay, logging.NewDefaultLogger())

	if _, err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(events) == 0 || events[0] != "spawn" {
		t.Errorf("Expected spawn with pre-flight disabled, got %v", events)
	}
}

func TestRun_ExactlyTwoChildren(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(testOptions(t, baseDir), runner, browser, probe, delay, logging.NewDefaultLogger())

	if _, err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	spawns := 0
	opens := 0
	for _, e := range events {
		switch e {
		case "spawn":
			spawns++
		case "browser":
			opens++
		}
	}
	if spawns != 1 {
		t.Errorf("Expected exactly 1 server spawn, got %d", spawns)
	}
	if opens != 1 {
		t.Errorf("Expected exactly 1 browser open, got %d", opens)
	}
}

func TestRun_ProbeTimeoutStillOpensBrowser(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	var events []string
	runner, browser, _, delay := testDeps(t, &events)
	probe := func(ctx context.Context, cfg readiness.Config) (bool, error) {
		events = append(events, "ready")
		return false, errors.New("server not ready after 1s")
	}
	l := NewWithDeps(testOptions(t, baseDir), runner, browser, probe, delay, logging.NewDefaultLogger())

	result, err := l.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Ready {
		t.Error("Expected Ready=false on probe timeout")
	}
	if result.ReadyErr == nil {
		t.Error("Expected ReadyErr on probe timeout")
	}
	if !result.BrowserOpened {
		t.Error("Expected browser open despite probe timeout")
	}
}

func TestRun_NoBrowser(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	opts := testOptions(t, baseDir)
	opts.OpenBrowser = false

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(opts, runner, browser, probe, delay, logging.NewDefaultLogger())

	result, err := l.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, e := range events {
		if e == "browser" {
			t.Error("Browser opened despite OpenBrowser=false")
		}
	}
	if result.BrowserOpened {
		t.Error("Expected BrowserOpened=false")
	}
}

func TestRun_BrowserFailureIsNotFatal(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	browser.err = errors.New("opera-gx not installed")
	l := NewWithDeps(testOptions(t, baseDir), runner, browser, probe, delay, logging.NewDefaultLogger())

	result, err := l.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.BrowserErr == nil {
		t.Error("Expected BrowserErr to be reported")
	}
	if result.BrowserOpened {
		t.Error("Expected BrowserOpened=false")
	}
}

func TestRun_SpawnFailureIsFatal(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	runner.err = errors.New("python not found")
	l := NewWithDeps(testOptions(t, baseDir), runner, browser, probe, delay, logging.NewDefaultLogger())

	if _, err := l.Run(context.Background()); err == nil {
		t.Fatal("Expected spawn failure to fail the run")
	}

	for _, e := range events {
		if e == "browser" || e == "ready" {
			t.Errorf("Unexpected event %q after spawn failure", e)
		}
	}
}

func TestRun_ChangesToBaseDirectory(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(testOptions(t, baseDir), runner, browser, probe, delay, logging.NewDefaultLogger())

	if _, err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	resolvedBase, _ := filepath.EvalSymlinks(baseDir)
	resolvedWd, _ := filepath.EvalSymlinks(wd)
	if resolvedWd != resolvedBase {
		t.Errorf("Working directory %s, expected %s", resolvedWd, resolvedBase)
	}

	// The spawn inherits the same directory.
	if runner.specs[0].Dir != baseDir {
		resolvedSpec, _ := filepath.EvalSymlinks(runner.specs[0].Dir)
		if resolvedSpec != resolvedBase {
			t.Errorf("Spawn dir %s, expected %s", runner.specs[0].Dir, baseDir)
		}
	}
}

func TestRun_RecordsState(t *testing.T) {
	restoreWd(t)
	baseDir := t.TempDir()
	writeEntryFile(t, baseDir)

	opts := testOptions(t, baseDir)

	var events []string
	runner, browser, probe, delay := testDeps(t, &events)
	l := NewWithDeps(opts, runner, browser, probe, delay, logging.NewDefaultLogger())

	result, err := l.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	st, err := NewStateFile(opts.StateFile).Load()
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}
	if st == nil {
		t.Fatal("Expected state file to be written")
	}
	if st.PID != result.PID {
		t.Errorf("State PID %d, expected %d", st.PID, result.PID)
	}
	if st.Port != opts.Port {
		t.Errorf("State port %d, expected %d", st.Port, opts.Port)
	}
	if st.URL != "http://localhost:"+strconv.Itoa(opts.Port) {
		t.Errorf("State URL %q inconsistent with port %d", st.URL, opts.Port)
	}
}
