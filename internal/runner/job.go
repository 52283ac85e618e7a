package runner

import (
	"context"
	"errors"
	"io"
	"sync"
)

// EventKind identifies what a job event carries.
type EventKind int

const (
	EventStdout EventKind = iota
	EventStderr
	EventExited
)

func (k EventKind) String() string {
	switch k {
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Event is one observation of a running job: a sanitized output line or the
// terminal exit status. Exited is always the last event on a job's channel.
type Event struct {
	Kind EventKind
	Line string
	Code int
	Err  error
}

// ErrNoStdin is returned by Job.Send when the job was started without stdin.
var ErrNoStdin = errors.New("job has no stdin")

const eventBuffer = 64

// Job is a handle to an asynchronously running command.
type Job struct {
	ctx    context.Context
	cancel context.CancelFunc
	events chan Event

	released    chan struct{}
	releaseOnce sync.Once
	done        chan struct{}

	stdinMu sync.Mutex
	stdin   io.WriteCloser
}

// Feed is the producer side of a Job.
type Feed struct {
	job      *Job
	exitOnce sync.Once
}

// NewJob creates a job whose events are produced through the returned Feed.
// Cancelling ctx or calling Job.Cancel cancels Feed.Context.
func NewJob(ctx context.Context) (*Job, *Feed) {
	if ctx == nil {
		ctx = context.Background()
	}
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ctx:      jobCtx,
		cancel:   cancel,
		events:   make(chan Event, eventBuffer),
		released: make(chan struct{}),
		done:     make(chan struct{}),
	}
	return job, &Feed{job: job}
}

// Events delivers stdout/stderr lines in arrival order followed by exactly
// one EventExited. The channel is closed after the exit event.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Done is closed once the job has exited.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel asks the job to terminate. Events keep flowing until exit.
func (j *Job) Cancel() {
	j.cancel()
}

// Release tells the producer nobody reads Events any more.
func (j *Job) Release() {
	j.releaseOnce.Do(func() { close(j.released) })
}

// Stop cancels the job, abandons its events and waits for the process to exit.
func (j *Job) Stop() {
	j.Cancel()
	j.Release()
	j.closeStdin()
	<-j.done
}

// Send writes text to the job's stdin.
func (j *Job) Send(text string) error {
	j.stdinMu.Lock()
	defer j.stdinMu.Unlock()
	if j.stdin == nil {
		return ErrNoStdin
	}
	_, err := io.WriteString(j.stdin, text)
	return err
}

func (j *Job) closeStdin() {
	j.stdinMu.Lock()
	defer j.stdinMu.Unlock()
	if j.stdin != nil {
		_ = j.stdin.Close()
		j.stdin = nil
	}
}

// Context is cancelled when the job is cancelled.
func (f *Feed) Context() context.Context {
	return f.job.ctx
}

// SetStdin attaches a writer used by Job.Send.
func (f *Feed) SetStdin(w io.WriteCloser) {
	f.job.stdinMu.Lock()
	f.job.stdin = w
	f.job.stdinMu.Unlock()
}

// Stdout emits a stdout line. It reports false once the consumer released the job.
func (f *Feed) Stdout(line string) bool {
	return f.send(Event{Kind: EventStdout, Line: line})
}

// Stderr emits a stderr line.
func (f *Feed) Stderr(line string) bool {
	return f.send(Event{Kind: EventStderr, Line: line})
}

// Exit emits the terminal event and closes the job. Later calls are ignored.
func (f *Feed) Exit(code int, err error) {
	f.exitOnce.Do(func() {
		f.send(Event{Kind: EventExited, Code: code, Err: err})
		f.job.closeStdin()
		f.job.cancel()
		close(f.job.done)
		close(f.job.events)
	})
}

func (f *Feed) send(ev Event) bool {
	select {
	case <-f.job.released:
		return false
	default:
	}
	select {
	case f.job.events <- ev:
		return true
	case <-f.job.released:
		return false
	}
}
