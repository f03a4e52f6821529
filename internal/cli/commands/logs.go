// autodoc logs — stream or tail service container logs.
package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
)

func NewLogsCmd() *cobra.Command {
	var follow bool
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "logs <service>",
		Short: "Stream or tail logs from a stack service container",
		Args:  cobra.ExactArgs(1),
		Example: `  autodoc logs xwiki
  autodoc logs bridge -f
  autodoc logs autodoc --since 1h`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())
			serviceName := args[0]

			svc, err := rt.State.GetServiceState(serviceName)
			if err != nil {
				return fmt.Errorf("state: %w", err)
			}
			if svc == nil {
				return fmt.Errorf("service %q not found in state. Is it running? Try 'autodoc up'", serviceName)
			}

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			if follow {
				fmt.Printf("◉ Following logs for %q (Ctrl+C to stop)...\n", serviceName)
			}

			return docker.StreamLogs(cmd.Context(), svc.ContainerID, follow, since, os.Stdout)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output in real-time")
	cmd.Flags().DurationVar(&since, "since", 0, "Show logs since duration (e.g., 1h, 30m, 5s)")
	return cmd
}
