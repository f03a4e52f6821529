// autodoc clean — tear down the stack and delete its persistent data.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Stop the stack and delete its persistent data directories",
		Long: `Stops and removes all stack containers and volumes, then deletes the
persistent data directories. Irreversible; use --dry-run to preview.`,
		Example: `  autodoc clean --dry-run
  autodoc clean`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())
			dirs := rt.Config.DataDirs()

			if rt.Flags.DryRun {
				fmt.Println("[dry-run] would stop all services and remove volumes")
				for _, d := range dirs {
					fmt.Printf("[dry-run] would delete %s\n", d)
				}
				return nil
			}

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			lm := orchestrator.NewLifecycleManager(docker, rt.State, rt.Log)
			if err := lm.Down(cmd.Context(), nil, true); err != nil {
				return fmt.Errorf("down: %w", err)
			}

			// Remove only the directories the stack owns. Siblings under the
			// data root stay untouched.
			for _, d := range dirs {
				if err := os.RemoveAll(d); err != nil {
					rt.Log.Audit(auditEntry("clean", d, "failure"))
					return fmt.Errorf("remove %q: %w", d, err)
				}
				rt.Log.Audit(auditEntry("clean", d, "success"))
			}

			pprint.Success("Stack stopped and data removed")
			return nil
		},
	}
}
