package runner

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"arduinoctl/internal/sanitize"
)

// maxPending bounds how much unterminated output is held before it is
// flushed as a line anyway.
const maxPending = 64 * 1024

// Streamer starts a command without blocking and streams its output as events.
type Streamer interface {
	Start(ctx context.Context, command string, args []string, opts RunOptions) (*Job, error)
}

type CmdStreamer struct{}

func (CmdStreamer) Start(ctx context.Context, command string, args []string, opts RunOptions) (*Job, error) {
	job, feed := NewJob(ctx)

	cmd := exec.CommandContext(feed.Context(), command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	configureProcess(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		job.Cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		job.Cancel()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	var stdin io.WriteCloser
	if opts.OpenStdin {
		stdin, err = cmd.StdinPipe()
		if err != nil {
			job.Cancel()
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
	}

	if err := cmd.Start(); err != nil {
		job.Cancel()
		return nil, fmt.Errorf("start %s: %w", command, err)
	}
	if stdin != nil {
		feed.SetStdin(stdin)
	}

	go func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			pump(stdout, feed.Stdout)
		}()
		go func() {
			defer wg.Done()
			pump(stderr, feed.Stderr)
		}()
		wg.Wait()

		waitErr := cmd.Wait()
		code := exitCode(waitErr)
		var evErr error
		if err := feed.Context().Err(); err != nil {
			evErr = err
		} else if waitErr != nil && code == -1 {
			evErr = waitErr
		}
		feed.Exit(code, evErr)
	}()

	return job, nil
}

// pump reads r until EOF, splitting the raw chunks into sanitized lines.
// Reading continues after the consumer goes away so the child never blocks
// on a full pipe.
func pump(r io.Reader, emit func(string) bool) {
	buf := make([]byte, 4096)
	var pending strings.Builder
	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending.Write(buf[:n])
			flushComplete(&pending, emit)
		}
		if err != nil {
			if pending.Len() > 0 {
				for _, line := range sanitize.Lines(pending.String()) {
					emit(line)
				}
			}
			return
		}
	}
}

// flushComplete emits every terminated line in pending and keeps the rest.
// A trailing CR is held back because it may be the first half of CRLF.
func flushComplete(pending *strings.Builder, emit func(string) bool) {
	text := pending.String()
	cut := strings.LastIndexAny(text, "\r\n")
	if cut == len(text)-1 && text[cut] == '\r' {
		cut = strings.LastIndexAny(text[:cut], "\r\n")
	}
	if cut < 0 {
		if len(text) < maxPending {
			return
		}
		cut = len(text) - 1
	}

	complete, rest := text[:cut+1], text[cut+1:]
	for _, line := range sanitize.Lines(complete) {
		emit(line)
	}
	pending.Reset()
	pending.WriteString(rest)
}

var _ Streamer = CmdStreamer{}
