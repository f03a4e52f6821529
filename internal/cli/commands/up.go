// autodoc up — start the documentation stack.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewUpCmd() *cobra.Command {
	var forceRecreate bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start all stack services defined in autodoc.yaml",
		Example: `  autodoc up
  autodoc up --force`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			if rt.Flags.DryRun {
				pprint.Header("Starting Stack (dry run)")
				for i, svc := range rt.Config.Services {
					pprint.Step(i+1, len(rt.Config.Services), "Would start %s (%s)", svc.Name, svc.Image)
				}
				return nil
			}

			pprint.Header("Starting Stack")

			spinner := pprint.NewSpinner("Connecting to Docker")
			spinner.Start()

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				spinner.Stop(false)
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			if err := docker.Ping(cmd.Context()); err != nil {
				spinner.Stop(false)
				pprint.Error("Docker daemon is not reachable: %v", err)
				pprint.Info("Make sure the Docker daemon is running.")
				return err
			}
			spinner.Stop(true)

			lm := orchestrator.NewLifecycleManager(docker, rt.State, rt.Log)

			sp := pprint.NewSpinner("Bringing up all services")
			sp.Start()
			if err := lm.Up(cmd.Context(), rt.Config.Services, forceRecreate); err != nil {
				sp.Stop(false)
				pprint.Error("Failed: %v", err)
				return err
			}
			sp.Stop(true)

			fmt.Println()
			pprint.Success("All services started ◉")
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceRecreate, "force", false, "Force-recreate containers even if already running")
	return cmd
}
