package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/caa-tools/caa-launch/internal/config"
	"github.com/caa-tools/caa-launch/internal/launcher"
	"github.com/caa-tools/caa-launch/internal/logging"
)

// launchFlags carries the launch command's flag values. Zero values mean
// "not set"; only flags the user actually changed override the config file.
type launchFlags struct {
	port         int
	entry        string
	python       string
	baseDir      string
	browserName  string
	noBrowser    bool
	readyMode    string
	readyDelay   time.Duration
	readyTimeout time.Duration
	noPreflight  bool
	newConsole   bool
	wait         bool
	logFile      string
	serverLog    string
	noCapture    bool
	stateFile    string
}

// newLaunchCmd creates the 'launch' command.
func newLaunchCmd() *cobra.Command {
	var flags launchFlags

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Start the server and open it in a browser",
		Long: `Start the Content AI Agent Streamlit server as a detached background
process, wait until it accepts connections, then open it in a browser.

The server keeps running after the launcher exits. Use 'caa-launch stop'
to shut it down, or 'caa-launch status' to check on it.

Examples:
  # Launch with configured defaults
  caa-launch launch

  # Launch on a different port without opening a browser
  caa-launch launch --port 8600 --no-browser

  # Reproduce the legacy fixed-delay behavior
  caa-launch launch --ready-mode delay --ready-delay 6s

  # Keep the console window open until Enter is pressed
  caa-launch launch --wait`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "Server port (default from config, 8501)")
	cmd.Flags().StringVar(&flags.entry, "entry", "", "Streamlit entry file (default streamlit_app.py)")
	cmd.Flags().StringVar(&flags.python, "python", "", "Python interpreter executable")
	cmd.Flags().StringVarP(&flags.baseDir, "base-dir", "d", "", "Directory containing the entry file (default: launcher's own directory)")
	cmd.Flags().StringVar(&flags.browserName, "browser", "", "Browser executable to open (empty = system default)")
	cmd.Flags().BoolVar(&flags.noBrowser, "no-browser", false, "Do not open a browser")
	cmd.Flags().StringVar(&flags.readyMode, "ready-mode", "", `Readiness gate: "probe" or "delay"`)
	cmd.Flags().DurationVar(&flags.readyDelay, "ready-delay", 0, "Fixed wait in delay mode (e.g. 5s, 6s)")
	cmd.Flags().DurationVar(&flags.readyTimeout, "ready-timeout", 0, "Probe budget in probe mode (e.g. 30s)")
	cmd.Flags().BoolVar(&flags.noPreflight, "no-preflight", false, "Skip the entry-file existence check")
	cmd.Flags().BoolVar(&flags.newConsole, "console", false, "Open the server in its own console window (Windows)")
	cmd.Flags().BoolVarP(&flags.wait, "wait", "w", false, "Wait for Enter before the launcher exits")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Write launcher logs to a rotating file as well")
	cmd.Flags().StringVar(&flags.serverLog, "server-log", "", "Capture server output to this file")
	cmd.Flags().BoolVar(&flags.noCapture, "no-server-log", false, "Discard server output (legacy behavior)")
	cmd.Flags().StringVar(&flags.stateFile, "state-file", "", "Path to the server state file")

	return cmd
}

// runLaunch is shared between 'caa-launch launch' and the bare root
// invocation.
func runLaunch(cmd *cobra.Command, flags launchFlags) error {
	log := GetLogger()
	if flags.logFile != "" {
		log = logging.NewRotatingFileLogger(flags.logFile)
		logger = log
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyLaunchFlags(cmd, cfg, flags)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts := launcher.OptionsFromConfig(cfg)
	if flags.noPreflight {
		opts.Preflight = false
	}
	if flags.stateFile != "" {
		opts.StateFile = flags.stateFile
	}

	printLaunchBanner(cfg)

	l := launcher.New(opts, log)
	if opts.ReadyMode == config.ReadyModeDelay && term.IsTerminal(int(os.Stderr.Fd())) {
		l.OnDelayTick = delayCountdown(int(opts.ReadyDelay / time.Second))
	}

	result, err := l.Run(GetContext())
	if err != nil {
		if errors.Is(err, launcher.ErrEntryFileMissing) {
			fmt.Fprintf(os.Stderr, "❌ Error: %s not found!\n", opts.EntryFile)
			fmt.Fprintf(os.Stderr, "Make sure you are launching from the project folder, or pass --base-dir.\n")
		}
		return err
	}

	printLaunchResult(result)

	if flags.wait {
		waitForEnter()
	}

	return nil
}

// applyLaunchFlags overrides config values with flags the user actually set.
func applyLaunchFlags(cmd *cobra.Command, cfg *config.Config, flags launchFlags) {
	changed := cmd.Flags().Changed

	if changed("port") {
		cfg.Server.Port = flags.port
	}
	if changed("entry") {
		cfg.Server.EntryFile = flags.entry
	}
	if changed("python") {
		cfg.Server.Python = flags.python
	}
	if changed("base-dir") {
		cfg.Server.BaseDir = flags.baseDir
	}
	if changed("browser") {
		cfg.Browser.Name = flags.browserName
	}
	if changed("no-browser") && flags.noBrowser {
		cfg.Browser.Open = false
	}
	if changed("ready-mode") {
		cfg.Readiness.Mode = flags.readyMode
	}
	if changed("ready-delay") {
		cfg.Readiness.DelaySeconds = int(flags.readyDelay / time.Second)
		if cfg.Readiness.DelaySeconds < 1 {
			cfg.Readiness.DelaySeconds = 1
		}
	}
	if changed("ready-timeout") {
		cfg.Readiness.TimeoutSeconds = int(flags.readyTimeout / time.Second)
		if cfg.Readiness.TimeoutSeconds < 1 {
			cfg.Readiness.TimeoutSeconds = 1
		}
	}
	if changed("console") {
		cfg.Server.NewConsole = flags.newConsole
	}
	if changed("server-log") {
		cfg.Logging.ServerLog = flags.serverLog
		cfg.Logging.CaptureServerLog = true
	}
	if changed("no-server-log") && flags.noCapture {
		cfg.Logging.CaptureServerLog = false
	}
}

// printLaunchBanner prints the startup summary before any side effects.
func printLaunchBanner(cfg *config.Config) {
	fmt.Println("======================================================================")
	fmt.Println("  CONTENT AI AGENT LAUNCHER")
	fmt.Println("======================================================================")
	fmt.Printf("Server: %s -m streamlit run %s\n", cfg.Server.Python, cfg.Server.EntryFile)
	fmt.Printf("Port: %d\n", cfg.Server.Port)
	if cfg.Browser.Open {
		name := cfg.Browser.Name
		if name == "" {
			name = "system default"
		}
		fmt.Printf("Browser: %s\n", name)
	} else {
		fmt.Println("Browser: disabled")
	}
	fmt.Printf("Readiness: %s\n", cfg.Readiness.Mode)
	fmt.Println("----------------------------------------------------------------------")
}

// printLaunchResult prints the final status, matching the legacy scripts'
// closing banner including the "server keeps running" reminder.
func printLaunchResult(result *launcher.Result) {
	fmt.Println("======================================================================")
	if result.Ready {
		fmt.Println("✅ Project started!")
	} else {
		fmt.Println("⚠️  Server readiness could not be confirmed.")
		if result.ReadyErr != nil {
			fmt.Printf("   %v\n", result.ReadyErr)
		}
		fmt.Println("   The page may need a manual refresh once the server finishes starting.")
	}
	fmt.Printf("📱 URL: %s\n", result.URL)
	fmt.Printf("   Server PID: %d\n", result.PID)
	if result.LogFile != "" {
		fmt.Printf("   Server log: %s\n", result.LogFile)
	}
	if result.BrowserErr != nil {
		fmt.Printf("⚠️  Could not open the browser automatically.\n")
		fmt.Printf("   Please open manually: %s\n", result.URL)
	}
	fmt.Println("======================================================================")
	fmt.Println()
	fmt.Println("💡 The server keeps running in the background.")
	fmt.Println("🛑 To stop it: caa-launch stop")
}

// delayCountdown renders the legacy fixed wait as a per-second progress bar.
func delayCountdown(totalSeconds int) func(time.Duration) {
	bar := progressbar.NewOptions(totalSeconds,
		progressbar.OptionSetDescription("⏳ Waiting for server startup"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)
	return func(remaining time.Duration) {
		_ = bar.Add(1)
	}
}

// waitForEnter blocks until the user presses Enter, mirroring the `pause` at
// the end of the legacy scripts so a double-clicked console stays readable.
// Skipped when stdin is not a terminal.
func waitForEnter() {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	fmt.Println()
	fmt.Print("Press Enter to close this window (the server keeps running)... ")
	reader := bufio.NewReader(os.Stdin)
	_, _ = reader.ReadString('\n')
}
