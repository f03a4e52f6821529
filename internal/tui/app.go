// Package tui defines the Bubble Tea model for AutoDoc's interactive dashboard.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/config"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
	"github.com/autodoc-sh/autodoc/internal/metrics"
	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/internal/tui/components"
)

// Config carries dependencies into the TUI app.
type Config struct {
	DockerClient  *orchestrator.Client
	State         *state.DB
	Log           *logger.Logger
	AutoDocConfig *config.Config
}

// ActivePanel identifies which main panel has focus.
type ActivePanel int

const (
	PanelServices ActivePanel = iota
	PanelScans
	PanelMetrics
)

// Model is the root Bubble Tea model (Elm architecture).
type Model struct {
	cfg Config

	// Dimensions
	width  int
	height int

	// Panels
	panel    ActivePanel
	services []v1.ServiceState
	scans    []v1.ScanRecord
	metrics  v1.Metrics

	// Scan detail pane, opened with Enter on a history row
	detail     viewport.Model
	showDetail bool

	// Sub-components
	header  components.Header
	sidebar components.Sidebar
	footer  components.Footer
	modal   *components.Modal

	// Selection per panel
	selectedService int
	selectedScan    int

	// Collector
	collector    *metrics.Collector
	collectorCtx context.Context
	stopCollect  context.CancelFunc

	// Error state
	lastError error

	// Theme
	styles Styles
}

// tickMsg is emitted by the refresh ticker.
type tickMsg time.Time

// serviceListMsg carries an updated services list.
type serviceListMsg []v1.ServiceState

// scanListMsg carries an updated scan history.
type scanListMsg []v1.ScanRecord

// errMsg carries an error to display in the status bar.
type errMsg error

// New constructs a new TUI Model.
func New(cfg Config) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	styles := newStyles()
	dv := viewport.New(0, 0)
	dv.Style = styles.Detail

	return &Model{
		cfg:          cfg,
		styles:       styles,
		detail:       dv,
		header:       components.NewHeader(),
		sidebar:      components.NewSidebar(),
		footer:       components.NewFooter(),
		collector:    metrics.NewCollector(cfg.DockerClient, cfg.Log),
		collectorCtx: ctx,
		stopCollect:  cancel,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Init
// ─────────────────────────────────────────────────────────────────────────────

func (m *Model) Init() tea.Cmd {
	go m.collector.Run(m.collectorCtx)

	return tea.Batch(
		m.tickCmd(),
		m.loadServicesCmd(),
		m.loadScansCmd(),
	)
}

// ─────────────────────────────────────────────────────────────────────────────
// Update
// ─────────────────────────────────────────────────────────────────────────────

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.Width = m.width - 22 // sidebar width
		m.detail.Height = m.height - 10

	case tea.KeyMsg:
		// Modal intercepts key events when open
		if m.modal != nil {
			cmd, done := m.modal.HandleKey(msg)
			if done {
				m.modal = nil
			}
			return m, cmd
		}
		cmds = append(cmds, m.handleKey(msg))

	case tickMsg:
		cmds = append(cmds, m.tickCmd(), m.loadServicesCmd(), m.loadScansCmd())
		m.metrics = m.collector.AllMetrics()

	case serviceListMsg:
		m.services = msg
		m.header.SetServiceCount(len(msg))

	case scanListMsg:
		m.scans = msg
		m.header.SetScanCount(len(msg))
		m.updateSidebar(msg)

	case errMsg:
		m.lastError = msg
		m.footer.SetError(msg)

	case tea.QuitMsg:
		m.stopCollect()
	}

	// Propagate to the detail viewport for scrolling
	if m.showDetail {
		var dvCmd tea.Cmd
		m.detail, dvCmd = m.detail.Update(msg)
		cmds = append(cmds, dvCmd)
	}

	return m, tea.Batch(cmds...)
}

// updateSidebar derives the latest per-kind result from the scan history.
func (m *Model) updateSidebar(records []v1.ScanRecord) {
	results := map[string]string{}
	for _, rec := range records {
		// Records arrive newest-first, keep the first per kind.
		if _, seen := results[string(rec.Kind)]; !seen {
			results[string(rec.Kind)] = rec.Result
		}
	}

	kinds := make([]string, len(v1.AllScanKinds))
	for i, k := range v1.AllScanKinds {
		kinds[i] = string(k)
	}
	m.sidebar.SetScanners(kinds, results)
}

// handleKey processes keyboard input when no modal is open.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	kb := defaultKeymap()

	switch msg.String() {
	case "esc":
		m.showDetail = false

	case kb.Quit:
		if m.showDetail {
			m.showDetail = false
			return nil
		}
		m.stopCollect()
		return tea.Quit

	case kb.Select:
		if m.panel == PanelScans && m.selectedScan < len(m.scans) {
			m.detail.SetContent(scanDetail(m.scans[m.selectedScan]))
			m.detail.GotoTop()
			m.showDetail = true
		}

	case kb.TabNext:
		m.panel = (m.panel + 1) % 3

	case kb.TabPrev:
		m.panel = (m.panel + 2) % 3 // wrap backwards

	case kb.NavDown, "j":
		switch m.panel {
		case PanelServices:
			if m.selectedService < len(m.services)-1 {
				m.selectedService++
			}
		case PanelScans:
			if m.selectedScan < len(m.scans)-1 {
				m.selectedScan++
			}
		}

	case kb.NavUp, "k":
		switch m.panel {
		case PanelServices:
			if m.selectedService > 0 {
				m.selectedService--
			}
		case PanelScans:
			if m.selectedScan > 0 {
				m.selectedScan--
			}
		}

	case kb.Scans:
		m.panel = PanelScans

	case kb.Metrics:
		m.panel = PanelMetrics

	case kb.Help:
		m.modal = components.NewHelpModal(m.styles.Modal)

	case kb.Stop:
		if m.panel == PanelServices && len(m.services) > 0 && m.selectedService < len(m.services) {
			svc := m.services[m.selectedService]
			cid := svc.ContainerID
			if len(cid) > 12 {
				cid = cid[:12]
			}
			m.modal = components.NewConfirmModal(
				fmt.Sprintf("Stop %s?", svc.Name),
				fmt.Sprintf("This will stop and remove container %s", cid),
				m.styles.Modal,
				m.stopServiceCmd(svc),
			)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// View
// ─────────────────────────────────────────────────────────────────────────────

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.header.View(m.width)
	sidebar := m.sidebar.View(20, m.height-4)
	mainPanel := m.renderMain()
	footer := m.footer.View(m.width)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, mainPanel)

	view := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	if m.modal != nil {
		view = m.modal.Overlay(view, m.width, m.height)
	}

	return view
}

func (m *Model) renderMain() string {
	mainWidth := m.width - 22

	switch m.panel {
	case PanelServices:
		return components.RenderServicesTable(m.services, m.metrics, m.selectedService, mainWidth, m.height-6)
	case PanelScans:
		if m.showDetail {
			title := m.styles.PanelTitle.Render("SCAN DETAIL")
			return lipgloss.JoinVertical(lipgloss.Left, title, m.detail.View())
		}
		return components.RenderScansTable(m.scans, m.selectedScan, mainWidth, m.height-6)
	case PanelMetrics:
		return components.RenderMetrics(m.metrics, mainWidth, m.height-6)
	}
	return ""
}

// ─────────────────────────────────────────────────────────────────────────────
// Commands (async data fetchers)
// ─────────────────────────────────────────────────────────────────────────────

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) loadServicesCmd() tea.Cmd {
	return func() tea.Msg {
		states, err := m.cfg.State.ListServiceStates()
		if err != nil {
			return errMsg(err)
		}
		return serviceListMsg(states)
	}
}

func (m *Model) loadScansCmd() tea.Cmd {
	return func() tea.Msg {
		records, err := m.cfg.State.ListScanRecords("")
		if err != nil {
			return errMsg(err)
		}
		return scanListMsg(records)
	}
}

// scanDetail renders one scan record for the detail viewport.
func scanDetail(rec v1.ScanRecord) string {
	trigger := "manual"
	if rec.Scheduled {
		trigger = "scheduled"
	}
	analyzed := "no"
	if rec.AIAnalyzed {
		analyzed = "yes"
	}

	out := fmt.Sprintf(`
  ID          %s
  Kind        %s
  Started     %s
  Duration    %s
  Result      %s
  Items       %d
  Trigger     %s
  AI analysis %s
`,
		rec.ID, rec.Kind,
		rec.StartedAt.Local().Format(time.RFC1123),
		rec.Duration, rec.Result, rec.ItemCount,
		trigger, analyzed,
	)
	if rec.WikiPage != "" {
		out += fmt.Sprintf("  Wiki page   %s\n", rec.WikiPage)
	}
	if rec.Error != "" {
		out += fmt.Sprintf("\n  Error: %s\n", rec.Error)
	}
	return out
}

func (m *Model) stopServiceCmd(svc v1.ServiceState) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := m.cfg.DockerClient.StopContainer(ctx, svc.ContainerID, true); err != nil {
				return errMsg(err)
			}
			if err := m.cfg.State.DeleteServiceState(svc.Name); err != nil {
				return errMsg(err)
			}

			states, err := m.cfg.State.ListServiceStates()
			if err != nil {
				return errMsg(err)
			}
			return serviceListMsg(states)
		}
	}
}
