package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"arduinoctl/internal/config"
	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
)

type Logger interface {
	Printf(format string, v ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Session is a running serial monitor and the buffer it writes to.
type Session struct {
	ID      string
	Board   config.Config
	Started time.Time

	job    *runner.Job
	buffer Buffer
	done   chan struct{}

	stopOnce sync.Once
}

// Buffer returns the surface the session writes to.
func (s *Session) Buffer() Buffer {
	return s.buffer
}

// Done is closed when the monitor process has exited and its output drained.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send writes text to the monitor's serial connection.
func (s *Session) Send(text string) error {
	return s.job.Send(text)
}

func (s *Session) stop() {
	s.stopOnce.Do(func() {
		if s.job != nil {
			s.job.Stop()
			<-s.done
		}
		s.buffer.Release()
	})
}

// Monitor owns at most one live serial monitor session.
type Monitor struct {
	Streamer  runner.Streamer
	CLI       toolchain.CLI
	NewBuffer BufferFactory
	Logger    Logger

	mu      sync.Mutex
	current *Session
}

// Active returns the current session or nil.
func (m *Monitor) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Start stops any prior session and opens a new one on cfg's port and baud
// rate. The prior session has fully exited before the new process starts.
func (m *Monitor) Start(cfg config.Config) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prior := m.current; prior != nil {
		m.current = nil
		m.logf("monitor %s: stopping before restart", prior.ID)
		prior.stop()
	}

	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		return nil, ErrNoPort
	}
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = config.DefaultBaudRate
	}

	session := &Session{
		ID:      uuid.NewString(),
		Board:   cfg,
		Started: time.Now(),
		done:    make(chan struct{}),
	}
	title := fmt.Sprintf("Serial Monitor %s @ %d", port, baud)
	session.buffer = m.newBuffer(title, func() { go m.release(session) })

	streamer := m.Streamer
	if streamer == nil {
		streamer = runner.CmdStreamer{}
	}
	job, err := streamer.Start(context.Background(), m.CLI.Binary(), m.CLI.MonitorArgs(port, baud), runner.RunOptions{OpenStdin: true})
	if err != nil {
		session.buffer.Append(errorLine(err))
		m.logf("monitor %s: start failed: %v", session.ID, err)
		return nil, fmt.Errorf("start monitor: %w", err)
	}
	session.job = job
	m.logf("monitor %s: started on %s at %d baud", session.ID, port, baud)

	go m.pump(session)
	m.current = session
	return session, nil
}

// Reopen shows the current session's buffer when it is still open and starts
// a fresh session otherwise.
func (m *Monitor) Reopen(cfg config.Config) (*Session, error) {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	if current != nil && current.buffer.Valid() {
		current.buffer.Show()
		return current, nil
	}
	return m.Start(cfg)
}

// Stop terminates the current session, if any, and releases its buffer.
func (m *Monitor) Stop() {
	m.mu.Lock()
	current := m.current
	m.current = nil
	m.mu.Unlock()

	if current != nil {
		m.logf("monitor %s: stopping", current.ID)
		current.stop()
	}
}

func (m *Monitor) pump(s *Session) {
	defer close(s.done)
	for ev := range s.job.Events() {
		if forward(s.buffer, ev) {
			s.buffer.Append(BannerMonitorClosed)
			m.logf("monitor %s: exited with code %d", s.ID, ev.Code)
		}
	}
}

// release handles a buffer closed from the UI side.
func (m *Monitor) release(s *Session) {
	m.mu.Lock()
	if m.current == s {
		m.current = nil
	}
	m.mu.Unlock()
	s.stop()
}

func (m *Monitor) newBuffer(title string, onRelease func()) Buffer {
	if m.NewBuffer == nil {
		return &memoryBuffer{onRelease: onRelease}
	}
	return m.NewBuffer(title, onRelease)
}

func (m *Monitor) logf(format string, v ...any) {
	if m.Logger == nil {
		return
	}
	m.Logger.Printf(format, v...)
}

// memoryBuffer keeps lines in memory when no surface is attached.
type memoryBuffer struct {
	mu        sync.Mutex
	lines     []string
	released  bool
	onRelease func()
}

func (b *memoryBuffer) Append(lines ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.lines = append(b.lines, lines...)
}

func (b *memoryBuffer) Show() {}

func (b *memoryBuffer) Valid() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.released
}

func (b *memoryBuffer) Release() {
	b.mu.Lock()
	already := b.released
	b.released = true
	b.mu.Unlock()
	if !already && b.onRelease != nil {
		b.onRelease()
	}
}
