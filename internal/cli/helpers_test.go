package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"arduinoctl/internal/paths"
	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
)

type stubResponse struct {
	stdout string
	stderr string
	code   int
	err    error
}

// stubRunner answers Run calls keyed by the joined argument list.
type stubRunner struct {
	mu        sync.Mutex
	responses map[string]stubResponse
	calls     []string
}

func (s *stubRunner) Run(ctx context.Context, command string, args []string, opts runner.RunOptions) (runner.RunResult, error) {
	key := strings.Join(args, " ")
	s.mu.Lock()
	s.calls = append(s.calls, key)
	resp, ok := s.responses[key]
	s.mu.Unlock()
	if !ok {
		return runner.RunResult{ExitCode: 1, Stderr: []byte("unexpected command " + key)}, errors.New("exit status 1")
	}
	return runner.RunResult{Stdout: []byte(resp.stdout), Stderr: []byte(resp.stderr), ExitCode: resp.code}, resp.err
}

func (s *stubRunner) called(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == key {
			return true
		}
	}
	return false
}

type stubScript struct {
	stdout []string
	code   int
}

// stubStreamer plays a script per toolchain verb (compile, upload, monitor).
type stubStreamer struct {
	mu      sync.Mutex
	scripts map[string]stubScript
	verbs   []string
}

func (s *stubStreamer) Start(ctx context.Context, command string, args []string, opts runner.RunOptions) (*runner.Job, error) {
	s.mu.Lock()
	s.verbs = append(s.verbs, args[0])
	sc := s.scripts[args[0]]
	s.mu.Unlock()

	job, feed := runner.NewJob(ctx)
	go func() {
		for _, line := range sc.stdout {
			feed.Stdout(line)
		}
		feed.Exit(sc.code, nil)
	}()
	return job, nil
}

func (s *stubStreamer) started() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.verbs...)
}

// isolate points every package-level knob at test doubles and restores them
// when the test ends.
func isolate(t *testing.T, r runner.Runner, s runner.Streamer) string {
	t.Helper()

	prevProject, prevJSON, prevPlain, prevCLI := projectDir, outputJSON, plainOut, cliPath
	prevRunner, prevStreamer, prevCatalog, prevProbe := newRunner, newStreamer, catalogPath, probeToolchain
	prevRefresh, prevNoMonitor := libraryRefresh, uploadNoMonitor
	t.Cleanup(func() {
		projectDir, outputJSON, plainOut, cliPath = prevProject, prevJSON, prevPlain, prevCLI
		newRunner, newStreamer, catalogPath, probeToolchain = prevRunner, prevStreamer, prevCatalog, prevProbe
		libraryRefresh, uploadNoMonitor = prevRefresh, prevNoMonitor
	})

	t.Setenv(paths.EnvHome, t.TempDir())
	projectDir = t.TempDir()
	outputJSON, plainOut, cliPath = false, true, "arduino-cli"
	libraryRefresh, uploadNoMonitor = false, false
	if r != nil {
		newRunner = func() runner.Runner { return r }
	}
	if s != nil {
		newStreamer = func() runner.Streamer { return s }
	}
	probeToolchain = func(context.Context, toolchain.CLI, runner.Runner) toolchain.ToolInfo {
		return toolchain.ToolInfo{Name: "arduino-cli", Path: "/usr/bin/arduino-cli", Version: "1.1.1", Available: true}
	}
	return projectDir
}

func writeSketch(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, filepath.Base(dir)+".ino")
	if err := os.WriteFile(path, []byte("void setup() {}\nvoid loop() {}\n"), 0o644); err != nil {
		t.Fatalf("write sketch: %v", err)
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	cmd.SilenceUsage, cmd.SilenceErrors = true, true
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
