package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string to max display cells, ending in
// "..." when it was cut.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if ansi.StringWidth(value) <= max {
		return value
	}
	if max <= 3 {
		return ansi.Truncate(value, max, "")
	}
	return ansi.Truncate(value, max, "...")
}
