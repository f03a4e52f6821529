// autodoc setup — one-shot provisioning of the documentation stack.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/internal/setup"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Provision the full stack: prereqs, data dirs, images, containers",
		Example: `  autodoc setup
  autodoc setup --dry-run`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			pprint.Header("AutoDoc Setup")

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			lm := orchestrator.NewLifecycleManager(docker, rt.State, rt.Log)
			seq := setup.NewSequencer(rt.Config, docker, lm, rt.Log, rt.Flags.DryRun)

			if err := seq.Execute(cmd.Context()); err != nil {
				return err
			}

			rt.Log.Audit(auditEntry("setup", "stack", "success"))
			return nil
		},
	}
}
