package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/caa-tools/caa-launch/internal/config"
	"github.com/caa-tools/caa-launch/internal/constants"
	"github.com/caa-tools/caa-launch/internal/launcher"
	"github.com/caa-tools/caa-launch/internal/readiness"
)

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	var (
		stateFile string
		noProbe   bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running server's state",
		Long: `Show the server recorded by the last launch: PID, port, uptime, and
whether it currently answers on its URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := launcher.Status(stateFile)
			if err != nil {
				return err
			}

			fmt.Println("======================================================================")
			fmt.Println("  SERVER STATUS")
			fmt.Println("======================================================================")

			if st == nil {
				fmt.Println("No server is running.")
				fmt.Println("======================================================================")
				return nil
			}

			fmt.Printf("PID: %d\n", st.PID)
			fmt.Printf("Port: %d\n", st.Port)
			fmt.Printf("URL: %s\n", st.URL)
			fmt.Printf("Entry: %s\n", st.EntryFile)
			fmt.Printf("Base Directory: %s\n", st.BaseDir)
			if st.LogFile != "" {
				fmt.Printf("Server Log: %s\n", st.LogFile)
			}
			fmt.Printf("Started: %s (%s ago)\n",
				st.StartedAt.Format(time.RFC3339),
				time.Since(st.StartedAt).Round(time.Second))

			if !noProbe {
				ready, probeErr := readiness.Probe(GetContext(), readiness.Config{
					Addr:            fmt.Sprintf("localhost:%d", st.Port),
					URL:             st.URL,
					Timeout:         constants.ProbeRequestTimeout,
					InitialInterval: constants.ProbeInitialInterval,
					MaxInterval:     constants.ProbeMaxInterval,
					RequestTimeout:  constants.ProbeRequestTimeout,
				})
				if ready {
					fmt.Println("Reachable: yes")
				} else {
					fmt.Printf("Reachable: no (%v)\n", probeErr)
				}
			}

			fmt.Println("======================================================================")
			return nil
		},
	}

	cmd.Flags().StringVar(&stateFile, "state-file", config.DefaultStateFilePath(), "Path to the server state file")
	cmd.Flags().BoolVar(&noProbe, "no-probe", false, "Skip the reachability check")

	return cmd
}
