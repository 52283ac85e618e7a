package tui

import "arduinoctl/internal/pipeline"

// Pane identifies a workbench output area.
type Pane int

const (
	PaneBuild Pane = iota
	PaneMonitor
)

// LinesMsg appends output lines to a pane.
type LinesMsg struct {
	Pane  Pane
	Lines []string
}

// ShowPaneMsg focuses a pane.
type ShowPaneMsg struct {
	Pane Pane
}

// PaneReleasedMsg reports that a pane's buffer was released from outside the UI.
type PaneReleasedMsg struct {
	Pane Pane
}

// StateMsg reports an orchestrator transition.
type StateMsg struct {
	State pipeline.State
}

// NoticeMsg shows a one-line notification in the status bar.
type NoticeMsg struct {
	Text string
}

// ChoicesMsg delivers loaded picker choices.
type ChoicesMsg struct {
	Choices []Choice
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
