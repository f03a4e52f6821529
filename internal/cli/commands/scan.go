// autodoc scan-* — trigger on-demand infrastructure scans via the Scanner API.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/trigger"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

// scanVerbs maps each dispatcher verb to its API path suffix.
var scanVerbs = []struct {
	verb  string
	kind  string
	short string
}{
	{"scan-all", "all", "Run every infrastructure scanner"},
	{"scan-docker", "docker", "Scan Docker hosts (containers, networks, volumes)"},
	{"scan-network", "network", "Sweep the configured subnets for live hosts"},
	{"scan-esxi", "esxi", "Scan the ESXi host over SSH"},
	{"scan-synology", "synology", "Scan the Synology NAS over SSH"},
}

// NewScanCmds returns one command per scanner verb.
func NewScanCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(scanVerbs))
	for _, sv := range scanVerbs {
		sv := sv
		cmds = append(cmds, &cobra.Command{
			Use:          sv.verb,
			Short:        sv.short,
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				rt := FromContext(cmd.Context())

				sp := pprint.NewSpinner(fmt.Sprintf("Running %s scan", sv.kind))
				sp.Start()
				out, err := trigger.NewClient(rt.Config.ScannerURL()).
					Post(cmd.Context(), "/api/scan/"+sv.kind, nil)
				if err != nil {
					sp.Stop(false)
					return err
				}
				sp.Stop(true)

				fmt.Println(out)
				rt.Log.Audit(auditEntry("scan", sv.kind, "success"))
				return nil
			},
		})
	}
	return cmds
}
