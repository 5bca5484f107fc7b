package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caa-tools/caa-launch/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage launcher configuration",
		Long: `Manage the launcher.conf configuration file.

The config file replaces the hard-coded values of the legacy launch scripts:
server command, port, readiness mode, and browser all live here.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println("[server]")
			fmt.Printf("python = %s\n", cfg.Server.Python)
			fmt.Printf("entry_file = %s\n", cfg.Server.EntryFile)
			fmt.Printf("base_dir = %s\n", cfg.Server.BaseDir)
			fmt.Printf("port = %d\n", cfg.Server.Port)
			fmt.Printf("headless = %t\n", cfg.Server.Headless)
			fmt.Printf("gather_usage_stats = %t\n", cfg.Server.GatherUsageStats)
			fmt.Printf("new_console = %t\n", cfg.Server.NewConsole)
			fmt.Println()
			fmt.Println("[readiness]")
			fmt.Printf("mode = %s\n", cfg.Readiness.Mode)
			fmt.Printf("delay_seconds = %d\n", cfg.Readiness.DelaySeconds)
			fmt.Printf("timeout_seconds = %d\n", cfg.Readiness.TimeoutSeconds)
			fmt.Println()
			fmt.Println("[browser]")
			fmt.Printf("name = %s\n", cfg.Browser.Name)
			fmt.Printf("open = %t\n", cfg.Browser.Open)
			fmt.Println()
			fmt.Println("[logging]")
			fmt.Printf("capture_server_log = %t\n", cfg.Logging.CaptureServerLog)
			fmt.Printf("server_log = %s\n", cfg.Logging.ServerLog)

			return nil
		},
	}
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			if err := config.Save(config.NewConfig(), path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}
			fmt.Println(path)
			return nil
		},
	}
}
