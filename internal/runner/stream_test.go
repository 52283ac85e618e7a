package runner

import (
	"context"
	"errors"
	"io"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func collectPump(chunks ...string) []string {
	var lines []string
	pump(&chunkReader{chunks: chunks}, func(line string) bool {
		lines = append(lines, line)
		return true
	})
	return lines
}

func TestPumpSplitsAcrossChunks(t *testing.T) {
	got := collectPump("Sketch uses ", "924 bytes\nGlobal", " variables\n")
	want := []string{"Sketch uses 924 bytes", "Global variables"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestPumpHoldsBackSplitCRLF(t *testing.T) {
	got := collectPump("one\r", "\ntwo\r\n")
	want := []string{"one", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestPumpFlushesUnterminatedTail(t *testing.T) {
	got := collectPump("\x1b[32mready\x1b[0m\n", "no newline")
	want := []string{"ready", "no newline"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestPumpKeepsEmptyLines(t *testing.T) {
	got := collectPump("a\n\nb\n")
	want := []string{"a", "", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestFeedDeliversExitLast(t *testing.T) {
	job, feed := NewJob(context.Background())
	go func() {
		feed.Stdout("out")
		feed.Stderr("err")
		feed.Exit(3, nil)
	}()

	var kinds []EventKind
	var last Event
	for ev := range job.Events() {
		kinds = append(kinds, ev.Kind)
		last = ev
	}
	want := []EventKind{EventStdout, EventStderr, EventExited}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	if last.Code != 3 {
		t.Fatalf("exit code = %d, want 3", last.Code)
	}
	select {
	case <-job.Done():
	default:
		t.Fatal("expected job done after exit")
	}
}

func TestReleasedJobDoesNotBlockProducer(t *testing.T) {
	job, feed := NewJob(context.Background())
	job.Release()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < eventBuffer*4; i++ {
			feed.Stdout("line")
		}
		feed.Exit(0, nil)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked after release")
	}
}

func TestJobSendWithoutStdin(t *testing.T) {
	job, feed := NewJob(context.Background())
	defer feed.Exit(0, nil)
	if err := job.Send("x"); !errors.Is(err, ErrNoStdin) {
		t.Fatalf("expected ErrNoStdin, got %v", err)
	}
}

func TestCmdStreamerStreamsAndExits(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	job, err := CmdStreamer{}.Start(context.Background(), "sh", []string{"-c", "echo hello; echo oops >&2; exit 2"}, RunOptions{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var stdout, stderr []string
	var exit Event
	for ev := range job.Events() {
		switch ev.Kind {
		case EventStdout:
			stdout = append(stdout, ev.Line)
		case EventStderr:
			stderr = append(stderr, ev.Line)
		case EventExited:
			exit = ev
		}
	}
	if strings.Join(stdout, "|") != "hello" {
		t.Fatalf("stdout = %q", stdout)
	}
	if strings.Join(stderr, "|") != "oops" {
		t.Fatalf("stderr = %q", stderr)
	}
	if exit.Code != 2 || exit.Err != nil {
		t.Fatalf("exit = %+v, want code 2 without error", exit)
	}
}

func TestCmdStreamerCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	job, err := CmdStreamer{}.Start(context.Background(), "sh", []string{"-c", "echo started; sleep 30"}, RunOptions{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	first := <-job.Events()
	if first.Kind != EventStdout || first.Line != "started" {
		t.Fatalf("first event = %+v", first)
	}
	job.Cancel()

	var exit Event
	for ev := range job.Events() {
		if ev.Kind == EventExited {
			exit = ev
		}
	}
	if !errors.Is(exit.Err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %+v", exit)
	}
}

func TestCmdStreamerSpawnFailure(t *testing.T) {
	_, err := CmdStreamer{}.Start(context.Background(), "arduinoctl-no-such-binary", nil, RunOptions{})
	if err == nil {
		t.Fatal("expected spawn error")
	}
}

func TestCmdRunnerExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	res, err := CmdRunner{}.Run(context.Background(), "sh", []string{"-c", "printf '[]'; exit 4"}, RunOptions{})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if res.ExitCode != 4 {
		t.Fatalf("exit code = %d, want 4", res.ExitCode)
	}
	if string(res.Stdout) != "[]" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}
