package pipeline

import (
	"strings"

	"arduinoctl/internal/runner"
	"arduinoctl/internal/sanitize"
)

// Sink receives display lines in order.
type Sink interface {
	Append(lines ...string)
}

// Buffer is a sink backed by a visible surface the user can close.
type Buffer interface {
	Sink
	// Show brings the surface back into view.
	Show()
	// Valid reports whether the surface is still open.
	Valid() bool
	// Release closes the surface. It must be safe to call more than once.
	Release()
}

// BufferFactory opens a buffer titled title. onRelease must be invoked when
// the surface is closed from the UI side.
type BufferFactory func(title string, onRelease func()) Buffer

// SinkFunc adapts a function to Sink.
type SinkFunc func(lines ...string)

func (f SinkFunc) Append(lines ...string) { f(lines...) }

const stderrPrefix = "[stderr] "

// forward writes one output event to sink. Whitespace-only stderr lines are
// dropped; the rest are prefixed. It reports the exit event, if any.
func forward(sink Sink, ev runner.Event) (exited bool) {
	switch ev.Kind {
	case runner.EventStdout:
		sink.Append(ev.Line)
	case runner.EventStderr:
		if sanitize.Blank(ev.Line) {
			return false
		}
		sink.Append(stderrPrefix + ev.Line)
	case runner.EventExited:
		return true
	}
	return false
}

func errorLine(err error) string {
	return "error: " + strings.TrimSpace(err.Error())
}

type discard struct{}

func (discard) Append(...string) {}
