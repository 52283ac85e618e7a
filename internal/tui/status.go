package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/x/ansi"
)

var statusSpinner = spinner.MiniDot

// StatusWriter redraws a single spinner line on w while a blocking toolchain
// query runs (catalog refresh, board listing). ModeTUI only.
type StatusWriter struct {
	w       io.Writer
	label   string
	started time.Time

	once sync.Once
	quit chan struct{}
	done chan struct{}
}

// NewStatusWriter starts drawing label on w until Stop.
func NewStatusWriter(w io.Writer, label string) *StatusWriter {
	sw := &StatusWriter{
		w:       w,
		label:   label,
		started: time.Now(),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go sw.draw()
	return sw
}

// Stop halts the spinner and erases its line. Safe to call twice.
func (sw *StatusWriter) Stop() {
	sw.once.Do(func() {
		close(sw.quit)
		<-sw.done
		fmt.Fprint(sw.w, "\r"+ansi.EraseEntireLine)
	})
}

func (sw *StatusWriter) draw() {
	defer close(sw.done)
	ticker := time.NewTicker(statusSpinner.FPS)
	defer ticker.Stop()

	frames := statusSpinner.Frames
	for n := 0; ; n++ {
		select {
		case <-sw.quit:
			return
		case <-ticker.C:
			frame := focusStyle.Render(frames[n%len(frames)])
			fmt.Fprintf(sw.w, "\r%s%s %s %s", ansi.EraseEntireLine, frame, sw.label,
				faintStyle.Render(formatElapsed(time.Since(sw.started))))
		}
	}
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
