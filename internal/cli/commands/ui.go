// autodoc ui — launch the interactive TUI dashboard.
package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/internal/tui"
)

func NewUICmd() *cobra.Command {
	return &cobra.Command{
		Use:          "ui",
		Short:        "Launch the interactive TUI dashboard",
		Example:      `  autodoc ui`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			docker, err := orchestrator.NewClient("", rt.Log)
			if err != nil {
				return fmt.Errorf("docker: %w", err)
			}
			defer docker.Close()

			app := tui.New(tui.Config{
				DockerClient:  docker,
				State:         rt.State,
				Log:           rt.Log,
				AutoDocConfig: rt.Config,
			})

			p := tea.NewProgram(app,
				tea.WithAltScreen(),       // use alternate screen buffer
				tea.WithMouseCellMotion(), // enable mouse support
			)

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}
}
