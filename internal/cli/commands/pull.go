// autodoc pull — pull upstream images for pulled services.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "pull [service...]",
		Short:        "Pull upstream images for services without a build context",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			only := map[string]bool{}
			for _, a := range args {
				only[a] = true
			}

			var images []string
			for _, svc := range rt.Config.Services {
				if svc.Build != "" || svc.Image == "" {
					continue
				}
				if len(only) > 0 && !only[svc.Name] {
					continue
				}
				images = append(images, svc.Image)
			}
			if len(images) == 0 {
				pprint.Info("No pulled images configured.")
				return nil
			}

			if rt.Flags.DryRun {
				for i, img := range images {
					pprint.Step(i+1, len(images), "Would pull %s", img)
				}
				return nil
			}

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			for i, img := range images {
				pprint.Step(i+1, len(images), "Pulling %s", img)
				if err := docker.PullImage(cmd.Context(), img); err != nil {
					return fmt.Errorf("pull %q: %w", img, err)
				}
			}

			pprint.Success("Images pulled")
			return nil
		},
	}
}
