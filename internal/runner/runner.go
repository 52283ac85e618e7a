package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// RunOptions tunes how a command is started.
type RunOptions struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// OpenStdin keeps a pipe to the child's stdin open for Job.Send.
	// Streamed jobs only.
	OpenStdin bool
}

type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes a command to completion and captures its output.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
}

// CmdRunner runs commands with os/exec.
type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	configureProcess(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: exitCode(err)}, err
}

// exitCode maps a Wait/Run error to a process exit status. Anything that is
// not a clean exit reports -1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

var _ Runner = CmdRunner{}
