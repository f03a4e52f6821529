// autodoc down — stop and remove running stack services.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
)

func NewDownCmd() *cobra.Command {
	var removeVolumes bool

	cmd := &cobra.Command{
		Use:   "down [service...]",
		Short: "Stop and remove running stack services",
		Example: `  autodoc down               # stop all services
  autodoc down xwiki bridge  # stop specific services
  autodoc down --volumes     # also remove named volumes`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			if rt.Flags.DryRun {
				what := "all services"
				if len(args) > 0 {
					what = fmt.Sprintf("%v", args)
				}
				fmt.Printf("[dry-run] would stop: %s\n", what)
				return nil
			}

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			lm := orchestrator.NewLifecycleManager(docker, rt.State, rt.Log)

			if err := lm.Down(cmd.Context(), args, removeVolumes); err != nil {
				return fmt.Errorf("down: %w", err)
			}

			fmt.Println("✓ Services stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&removeVolumes, "volumes", false, "Remove named volumes along with containers")
	return cmd
}
