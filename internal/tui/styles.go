package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// HeaderStyle styles column headers and pane titles.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	faintStyle  = lipgloss.NewStyle().Faint(true)
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	stderrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	statusStyles = map[string]lipgloss.Style{
		// Library statuses
		"installed":     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"outdated":      lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"not-installed": lipgloss.NewStyle().Faint(true),
		"selected":      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),

		// Pipeline states
		"idle":       lipgloss.NewStyle().Faint(true),
		"compiling":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"uploading":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"monitoring": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"failed":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		// Validation levels
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}

	bannerOK        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	bannerFailed    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	bannerCancelled = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// StyleLine colours stage banners, error lines and stderr lines. Other lines
// are returned unchanged.
func StyleLine(line string) string {
	switch {
	case strings.HasPrefix(line, "--- ") && strings.HasSuffix(line, " ---"):
		switch {
		case strings.Contains(line, "Failed"):
			return bannerFailed.Render(line)
		case strings.Contains(line, "Cancelled"), strings.Contains(line, "Closed"):
			return bannerCancelled.Render(line)
		default:
			return bannerOK.Render(line)
		}
	case strings.HasPrefix(line, "error: "):
		return bannerFailed.Render(line)
	case strings.HasPrefix(line, "[stderr] "):
		return stderrStyle.Render(line)
	}
	return line
}
