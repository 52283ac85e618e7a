// Package sanitize turns raw toolchain output into display-ready lines.
package sanitize

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Lines splits a raw output chunk on line boundaries and strips terminal
// escape sequences from every line. CRLF and lone CR count as line breaks.
// A single trailing line break terminates the last line rather than opening
// an empty one; interior empty lines are kept.
func Lines(chunk string) []string {
	chunk = lineBreaks.Replace(chunk)
	chunk = strings.TrimSuffix(chunk, "\n")

	parts := strings.Split(chunk, "\n")
	for i, part := range parts {
		parts[i] = Line(part)
	}
	return parts
}

// Line strips escape sequences from a single line. It does not split.
func Line(line string) string {
	if !strings.ContainsRune(line, '\x1b') {
		return line
	}
	return ansi.Strip(line)
}

// Blank reports whether a line carries no visible content.
func Blank(line string) bool {
	return strings.TrimSpace(line) == ""
}
