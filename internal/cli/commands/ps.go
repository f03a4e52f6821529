// autodoc ps — list managed stack containers.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewPsCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "ps",
		Short:        "List managed stack containers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			containers, err := docker.ListManaged(cmd.Context(), "")
			if err != nil {
				return fmt.Errorf("list containers: %w", err)
			}

			if rt.Flags.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(containers)
			}

			if len(containers) == 0 {
				pprint.Info("No managed containers running. Start the stack with: autodoc up")
				return nil
			}

			table := pprint.NewTable("SERVICE", "IMAGE", "STATE", "STATUS", "PORTS")
			for _, c := range containers {
				name := c.Labels[orchestrator.LabelService]
				if name == "" && len(c.Names) > 0 {
					name = strings.TrimPrefix(c.Names[0], "/")
				}

				var ports []string
				for _, p := range c.Ports {
					if p.PublicPort == 0 {
						continue
					}
					ports = append(ports, fmt.Sprintf("%d->%d/%s", p.PublicPort, p.PrivatePort, p.Type))
				}

				table.AddRow(name, c.Image, c.State, c.Status, strings.Join(ports, ", "))
			}
			table.Render()
			return nil
		},
	}
}
