package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"arduinoctl/internal/config"
	"arduinoctl/internal/pipeline"
)

const maxPaneLines = 5000

// CloseHint is appended to the build pane after a failed upload.
const CloseHint = "(press d to close this output)"

// WorkbenchDeps are the collaborators the workbench drives.
type WorkbenchDeps struct {
	Orchestrator *pipeline.Orchestrator
	Monitor      *pipeline.Monitor
	Config       *config.Store
	// Sketch is the sketch file named in the header.
	Sketch       string
}

type shutdownMsg struct{}

type pane struct {
	view  viewport.Model
	lines []string
}

func newPane() pane {
	return pane{view: viewport.New(80, 10)}
}

func (p *pane) append(lines []string) {
	for _, line := range lines {
		p.lines = append(p.lines, StyleLine(line))
	}
	if over := len(p.lines) - maxPaneLines; over > 0 {
		p.lines = append([]string(nil), p.lines[over:]...)
	}
	p.view.SetContent(strings.Join(p.lines, "\n"))
	p.view.GotoBottom()
}

func (p *pane) clear() {
	p.lines = nil
	p.view.SetContent("")
	p.view.GotoTop()
}

// WorkbenchModel hosts the build output pane, the serial monitor pane and the
// keybindings driving compile, upload and monitor.
type WorkbenchModel struct {
	deps WorkbenchDeps

	build      pane
	serial     pane
	serialOpen bool
	focus      Pane

	state  pipeline.State
	notice string
	width  int
	height int
}

// NewWorkbenchModel creates the workbench model.
func NewWorkbenchModel(deps WorkbenchDeps) WorkbenchModel {
	return WorkbenchModel{
		deps:   deps,
		build:  newPane(),
		serial: newPane(),
		width:  80,
		height: 24,
	}
}

func (m WorkbenchModel) Init() tea.Cmd {
	return nil
}

func (m WorkbenchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case LinesMsg:
		if msg.Pane == PaneMonitor {
			m.serial.append(msg.Lines)
		} else {
			m.build.append(msg.Lines)
		}
		return m, nil

	case ShowPaneMsg:
		if msg.Pane == PaneMonitor {
			m.serialOpen = true
		}
		m.focus = msg.Pane
		m.layout()
		return m, nil

	case PaneReleasedMsg:
		if msg.Pane == PaneMonitor {
			m.serialOpen = false
			m.serial.clear()
			m.focus = PaneBuild
			m.layout()
		}
		return m, nil

	case StateMsg:
		m.state = msg.State
		return m, nil

	case NoticeMsg:
		m.notice = msg.Text
		return m, nil

	case shutdownMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m WorkbenchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, m.shutdown()

	case "c", "u":
		if m.state.Running() {
			m.notice = pipeline.ErrBusy.Error()
			return m, nil
		}
		req := pipeline.Request{}
		if msg.String() == "u" {
			req = pipeline.Request{Upload: true, Monitor: true}
		}
		m.build.clear()
		m.focus = PaneBuild
		m.notice = ""
		return m, m.startChain(req)

	case "m", "r":
		if m.state.Running() {
			m.notice = pipeline.ErrBusy.Error()
			return m, nil
		}
		m.notice = ""
		return m, m.monitorCmd(msg.String() == "r")

	case "x":
		if m.deps.Orchestrator != nil && m.deps.Orchestrator.Cancel() {
			m.notice = "cancelling..."
		}
		return m, nil

	case "d":
		if m.focus == PaneMonitor {
			return m, m.closeMonitor()
		}
		m.build.clear()
		return m, nil

	case "tab":
		if m.serialOpen && m.focus == PaneBuild {
			m.focus = PaneMonitor
		} else {
			m.focus = PaneBuild
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == PaneMonitor {
		m.serial.view, cmd = m.serial.view.Update(msg)
	} else {
		m.build.view, cmd = m.build.view.Update(msg)
	}
	return m, cmd
}

func (m WorkbenchModel) startChain(req pipeline.Request) tea.Cmd {
	orch := m.deps.Orchestrator
	return func() tea.Msg {
		if orch == nil {
			return NoticeMsg{Text: "no build pipeline configured"}
		}
		if _, err := orch.Start(context.Background(), req); err != nil {
			return NoticeMsg{Text: err.Error()}
		}
		return nil
	}
}

func (m WorkbenchModel) monitorCmd(reopen bool) tea.Cmd {
	mon, store, orch := m.deps.Monitor, m.deps.Config, m.deps.Orchestrator
	return func() tea.Msg {
		if mon == nil || store == nil {
			return NoticeMsg{Text: "serial monitor unavailable"}
		}
		if orch != nil && orch.State().Running() {
			return NoticeMsg{Text: pipeline.ErrBusy.Error()}
		}
		var err error
		if reopen {
			_, err = mon.Reopen(store.Snapshot())
		} else {
			_, err = mon.Start(store.Snapshot())
		}
		if err != nil {
			if errors.Is(err, pipeline.ErrNoPort) {
				return NoticeMsg{Text: err.Error()}
			}
			return NoticeMsg{Text: "monitor: " + err.Error()}
		}
		return nil
	}
}

func (m WorkbenchModel) closeMonitor() tea.Cmd {
	mon := m.deps.Monitor
	return func() tea.Msg {
		if mon == nil {
			return PaneReleasedMsg{Pane: PaneMonitor}
		}
		if session := mon.Active(); session != nil {
			session.Buffer().Release()
			return nil
		}
		return PaneReleasedMsg{Pane: PaneMonitor}
	}
}

func (m WorkbenchModel) shutdown() tea.Cmd {
	orch, mon := m.deps.Orchestrator, m.deps.Monitor
	return func() tea.Msg {
		if orch != nil {
			orch.Cancel()
		}
		if mon != nil {
			mon.Stop()
		}
		return shutdownMsg{}
	}
}

func (m *WorkbenchModel) layout() {
	// header, notice and help lines plus one title per pane
	avail := m.height - 4
	if m.serialOpen {
		avail--
	}
	if avail < 2 {
		avail = 2
	}
	buildHeight := avail
	if m.serialOpen {
		buildHeight = avail / 2
		m.serial.view.Width = m.width
		m.serial.view.Height = avail - buildHeight
	}
	m.build.view.Width = m.width
	m.build.view.Height = buildHeight
}

func (m WorkbenchModel) View() string {
	var sb strings.Builder

	cfg := config.Default()
	if m.deps.Config != nil {
		cfg = m.deps.Config.Snapshot()
	}
	sb.WriteString(HeaderStyle.Render("arduinoctl"))
	if m.deps.Sketch != "" {
		sb.WriteString(" " + filepath.Base(m.deps.Sketch))
	}
	sb.WriteString(faintStyle.Render(fmt.Sprintf("  %s  %s @ %d  ", cfg.Board, NonEmptyOrDash(cfg.Port), cfg.BaudRate)))
	sb.WriteString(StatusStyle(m.state.String()).Render(m.state.String()))
	sb.WriteString("\n")

	sb.WriteString(m.paneTitle("Build output", PaneBuild))
	sb.WriteString("\n")
	sb.WriteString(m.build.view.View())
	sb.WriteString("\n")

	if m.serialOpen {
		sb.WriteString(m.paneTitle("Serial monitor", PaneMonitor))
		sb.WriteString("\n")
		sb.WriteString(m.serial.view.View())
		sb.WriteString("\n")
	}

	if m.notice != "" {
		sb.WriteString(stderrStyle.Render(m.notice))
	}
	sb.WriteString("\n")
	sb.WriteString(faintStyle.Render("[c] Compile  [u] Upload  [m] Monitor  [r] Reopen  [x] Cancel  [d] Close  [tab] Focus  [q] Quit"))
	return sb.String()
}

func (m WorkbenchModel) paneTitle(title string, p Pane) string {
	if m.focus == p {
		return focusStyle.Render("▸ " + title)
	}
	return faintStyle.Render("  " + title)
}

// RunWorkbench runs the interactive workbench until the user quits. bridge
// must be the one the orchestrator sink and monitor buffers were built from.
func RunWorkbench(out io.Writer, bridge *Bridge, deps WorkbenchDeps) error {
	p := tea.NewProgram(NewWorkbenchModel(deps), tea.WithOutput(out), tea.WithAltScreen())
	bridge.Attach(p.Send)
	defer bridge.Attach(nil)

	_, err := p.Run()
	if deps.Orchestrator != nil {
		deps.Orchestrator.Cancel()
	}
	if deps.Monitor != nil {
		deps.Monitor.Stop()
	}
	return err
}
