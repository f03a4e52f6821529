// autodoc restart — stop and bring the whole stack back up.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "restart",
		Short:        "Restart the whole documentation stack",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			if rt.Flags.DryRun {
				fmt.Printf("[dry-run] would restart %d services\n", len(rt.Config.Services))
				return nil
			}

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			lm := orchestrator.NewLifecycleManager(docker, rt.State, rt.Log)

			sp := pprint.NewSpinner("Restarting stack")
			sp.Start()
			if err := lm.Restart(cmd.Context(), rt.Config.Services); err != nil {
				sp.Stop(false)
				return fmt.Errorf("restart: %w", err)
			}
			sp.Stop(true)

			pprint.Success("Stack restarted")
			return nil
		},
	}
}
