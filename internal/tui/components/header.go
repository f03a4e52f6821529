// Package components: TUI sub-components for the AutoDoc dashboard.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ─────────────────────────────────────────────────────────────────────────────
// Header component
// ─────────────────────────────────────────────────────────────────────────────

// Header renders the top status bar.
type Header struct {
	serviceCount int
	scanCount    int
}

// NewHeader creates a Header.
func NewHeader() Header {
	return Header{}
}

func (h *Header) SetServiceCount(n int) { h.serviceCount = n }
func (h *Header) SetScanCount(n int)    { h.scanCount = n }

// View renders the header bar. Accepts total terminal width.
func (h *Header) View(width int) string {
	left := " ◉ AUTODOC "
	right := fmt.Sprintf(" %d services · %d scans ",
		h.serviceCount, h.scanCount)
	gap := width - len(left) - len(right)
	if gap < 0 {
		gap = 0
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color("#5EA1F7")).
		Foreground(lipgloss.Color("#10141A")).
		Bold(true).
		Width(width).
		Render(left + spaces(gap) + right)
}

// ─────────────────────────────────────────────────────────────────────────────
// Sidebar component
// ─────────────────────────────────────────────────────────────────────────────

// Sidebar renders the scanner navigator with each scanner's last result.
type Sidebar struct {
	items []scannerEntry
}

type scannerEntry struct {
	Kind   string
	Result string
}

// NewSidebar creates an empty Sidebar.
func NewSidebar() Sidebar { return Sidebar{} }

// SetScanners updates the scanner list. results maps kind to the most
// recent run result (success, failure, skipped, or empty for never run).
func (s *Sidebar) SetScanners(kinds []string, results map[string]string) {
	s.items = make([]scannerEntry, len(kinds))
	for i, k := range kinds {
		s.items[i] = scannerEntry{Kind: k, Result: results[k]}
	}
}

// View renders the sidebar.
func (s *Sidebar) View(width, height int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5EA1F7")).Bold(true).
		Render("SCANNERS")

	content := title + "\n"

	if len(s.items) == 0 {
		content += lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4A5568")).
			Render("  (none)")
	}

	for _, item := range s.items {
		icon := "○ "
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#E2E8F0")).PaddingLeft(2)
		switch item.Result {
		case "success":
			icon = "● "
			style = style.Foreground(lipgloss.Color("#68D391"))
		case "failure":
			icon = "✗ "
			style = style.Foreground(lipgloss.Color("#F56565"))
		case "skipped":
			icon = "◌ "
			style = style.Foreground(lipgloss.Color("#4A5568"))
		}
		content += style.Render(icon+item.Kind) + "\n"
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#1A2029")).
		Width(width).Height(height).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(lipgloss.Color("#4A5568")).
		Padding(1, 1).
		Render(content)
}

// ─────────────────────────────────────────────────────────────────────────────
// Footer component
// ─────────────────────────────────────────────────────────────────────────────

// Footer renders the bottom hint bar.
type Footer struct {
	err error
}

// NewFooter creates a Footer.
func NewFooter() Footer { return Footer{} }

// SetError sets an error message to display.
func (f *Footer) SetError(err error) { f.err = err }

// View renders the footer.
func (f *Footer) View(width int) string {
	hints := []struct{ key, desc string }{
		{"↑↓", "navigate"}, {"tab", "panels"}, {"s", "scans"},
		{"m", "metrics"}, {"x", "stop"}, {"?", "help"}, {"q", "quit"},
	}

	content := ""
	for _, h := range hints {
		content += lipgloss.NewStyle().Foreground(lipgloss.Color("#5EA1F7")).Bold(true).Render(h.key)
		content += lipgloss.NewStyle().Foreground(lipgloss.Color("#4A5568")).Render(" " + h.desc + "  ")
	}

	if f.err != nil {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("#F56565")).
			Render("Error: " + f.err.Error())
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#1A2029")).
		Width(width).Padding(0, 1).
		Render(content)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func spaces(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += " "
	}
	return s
}
