// autodoc status — health overview of the documentation stack.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/health"
	"github.com/autodoc-sh/autodoc/pkg/netutil"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Show health and access URLs for the stack services",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())
			checker := health.NewChecker(rt.Log)

			type serviceStatus struct {
				Name   string           `json:"name"`
				Status v1.ServiceStatus `json:"status"`
				Ports  []string         `json:"ports"`
			}

			var statuses []serviceStatus
			for _, svc := range rt.Config.Services {
				statuses = append(statuses, serviceStatus{
					Name:   svc.Name,
					Status: checker.Probe(cmd.Context(), svc),
					Ports:  svc.Ports,
				})
			}

			if rt.Flags.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(statuses)
			}

			table := pprint.NewTable("SERVICE", "STATUS", "PORTS")
			for _, s := range statuses {
				icon := "?"
				switch s.Status {
				case v1.StatusHealthy:
					icon = "✓ healthy"
				case v1.StatusUnhealthy:
					icon = "✗ unhealthy"
				case v1.StatusUnknown:
					icon = "– unknown"
				}
				ports := ""
				if len(s.Ports) > 0 {
					ports = s.Ports[0]
				}
				table.AddRow(s.Name, icon, ports)
			}
			table.Render()

			host := netutil.FirstNonLoopbackAddr()
			pprint.URL("Wiki", fmt.Sprintf("http://%s:%d", host, rt.Config.Ports.Wiki))
			pprint.URL("Bridge API", fmt.Sprintf("http://%s:%d", host, rt.Config.Ports.Bridge))
			pprint.URL("Scanner API", fmt.Sprintf("http://%s:%d", host, rt.Config.Ports.Scanner))
			pprint.URL("AnythingLLM", fmt.Sprintf("http://%s:%d", host, rt.Config.Ports.AnythingLLM))
			fmt.Println()
			return nil
		},
	}
}
