// autodoc build — build the locally-built service images.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "build [service...]",
		Short:        "Build images for services with a local build context",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			only := map[string]bool{}
			for _, a := range args {
				only[a] = true
			}

			var targets []struct{ name, dir, tag string }
			for _, svc := range rt.Config.Services {
				if svc.Build == "" {
					continue
				}
				if len(only) > 0 && !only[svc.Name] {
					continue
				}
				targets = append(targets, struct{ name, dir, tag string }{
					svc.Name, svc.Build, fmt.Sprintf("autodoc/%s:latest", svc.Name),
				})
			}
			if len(targets) == 0 {
				pprint.Info("No services with a build context configured.")
				return nil
			}

			if rt.Flags.DryRun {
				for i, t := range targets {
					pprint.Step(i+1, len(targets), "Would build %s from %s", t.tag, t.dir)
				}
				return nil
			}

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			for i, t := range targets {
				pprint.Step(i+1, len(targets), "Building %s", t.name)
				if err := docker.BuildImage(cmd.Context(), t.dir, t.tag); err != nil {
					return fmt.Errorf("build %q: %w", t.name, err)
				}
			}

			pprint.Success("Images built")
			return nil
		},
	}
}
