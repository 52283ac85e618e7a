package tui

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"arduinoctl/internal/pipeline"
)

// WriterSink prints lines to a writer, colouring banners when styled is set.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	styled bool
}

func NewWriterSink(w io.Writer, styled bool) *WriterSink {
	return &WriterSink{w: w, styled: styled}
}

func (s *WriterSink) Append(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		if s.styled {
			line = StyleLine(line)
		}
		fmt.Fprintln(s.w, line)
	}
}

// WriterBuffer is a monitor buffer backed by a writer. It stays valid until
// Release.
type WriterBuffer struct {
	*WriterSink
	released  atomic.Bool
	onRelease func()
}

// WriterBufferFactory returns a pipeline.BufferFactory printing to w.
func WriterBufferFactory(w io.Writer, styled bool) pipeline.BufferFactory {
	sink := NewWriterSink(w, styled)
	return func(title string, onRelease func()) pipeline.Buffer {
		if styled {
			sink.Append(HeaderStyle.Render(title))
		} else {
			sink.Append(title)
		}
		return &WriterBuffer{WriterSink: sink, onRelease: onRelease}
	}
}

func (b *WriterBuffer) Append(lines ...string) {
	if b.released.Load() {
		return
	}
	b.WriterSink.Append(lines...)
}

func (b *WriterBuffer) Show() {}

func (b *WriterBuffer) Valid() bool {
	return !b.released.Load()
}

func (b *WriterBuffer) Release() {
	if b.released.Swap(true) {
		return
	}
	if b.onRelease != nil {
		b.onRelease()
	}
}

// Bridge forwards messages into a running tea.Program. Messages sent before
// Attach are dropped.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// Attach connects the bridge to a program's Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

// Send delivers msg to the attached program.
func (b *Bridge) Send(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

// Sink returns a pipeline sink that appends to pane.
func (b *Bridge) Sink(pane Pane) pipeline.Sink {
	return pipeline.SinkFunc(func(lines ...string) {
		b.Send(LinesMsg{Pane: pane, Lines: append([]string(nil), lines...)})
	})
}

// BufferFactory opens monitor buffers rendered in the workbench monitor pane.
func (b *Bridge) BufferFactory() pipeline.BufferFactory {
	return func(title string, onRelease func()) pipeline.Buffer {
		buf := &paneBuffer{bridge: b, pane: PaneMonitor, onRelease: onRelease}
		b.Send(LinesMsg{Pane: PaneMonitor, Lines: []string{HeaderStyle.Render(title)}})
		b.Send(ShowPaneMsg{Pane: PaneMonitor})
		return buf
	}
}

type paneBuffer struct {
	bridge    *Bridge
	pane      Pane
	released  atomic.Bool
	onRelease func()
}

func (p *paneBuffer) Append(lines ...string) {
	if p.released.Load() {
		return
	}
	p.bridge.Send(LinesMsg{Pane: p.pane, Lines: append([]string(nil), lines...)})
}

func (p *paneBuffer) Show() {
	p.bridge.Send(ShowPaneMsg{Pane: p.pane})
}

func (p *paneBuffer) Valid() bool {
	return !p.released.Load()
}

func (p *paneBuffer) Release() {
	if p.released.Swap(true) {
		return
	}
	p.bridge.Send(PaneReleasedMsg{Pane: p.pane})
	if p.onRelease != nil {
		p.onRelease()
	}
}
