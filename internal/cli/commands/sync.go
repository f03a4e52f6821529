// autodoc github-sync — trigger a GitHub-to-wiki sync via the Bridge API.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/trigger"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewGitHubSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "github-sync [repo...]",
		Short: "Sync GitHub repository docs into the wiki",
		Example: `  autodoc github-sync                 # all repos of the configured user
  autodoc github-sync dotfiles infra  # only the named repos`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			var body any
			if len(args) > 0 {
				body = map[string][]string{"repos": args}
			}

			sp := pprint.NewSpinner("Syncing GitHub repositories")
			sp.Start()
			out, err := trigger.NewClient(rt.Config.BridgeURL()).
				Post(cmd.Context(), "/api/github/sync", body)
			if err != nil {
				sp.Stop(false)
				return err
			}
			sp.Stop(true)

			fmt.Println(out)
			rt.Log.Audit(auditEntry("sync", "github", "success"))
			return nil
		},
	}
}
