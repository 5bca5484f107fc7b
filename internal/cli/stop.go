package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caa-tools/caa-launch/internal/config"
	"github.com/caa-tools/caa-launch/internal/launcher"
)

// newStopCmd creates the 'stop' command.
func newStopCmd() *cobra.Command {
	var stateFile string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running server",
		Long: `Stop the server process recorded by the last launch.

The launcher intentionally leaves the server running when it exits; this is
the explicit way to shut it down without hunting for the process manually.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := launcher.Stop(stateFile)
			if err != nil {
				return err
			}
			if st == nil {
				fmt.Println("No server is running.")
				return nil
			}

			fmt.Printf("🛑 Stopped server (PID %d, port %d).\n", st.PID, st.Port)
			return nil
		},
	}

	cmd.Flags().StringVar(&stateFile, "state-file", config.DefaultStateFilePath(), "Path to the server state file")

	return cmd
}
