package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
)

// ErrNoName is returned for actions on an empty library name.
var ErrNoName = errors.New("library name is required")

// Action is what Apply did for an item.
type Action string

const (
	ActionInstall Action = "install"
	ActionUpgrade Action = "upgrade"
)

// Result reports one install or upgrade run.
type Result struct {
	Name     string `json:"name"`
	Action   Action `json:"action"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"`
}

// OK reports whether the toolchain exited cleanly.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Message is the user notification for the run.
func (r Result) Message() string {
	verb := "installed"
	if r.Action == ActionUpgrade {
		verb = "updated"
	}
	if r.OK() {
		return fmt.Sprintf("Library %s %s", r.Name, verb)
	}
	return fmt.Sprintf("Library %s could not be %s (exit %d)", r.Name, verb, r.ExitCode)
}

// Installer runs lib install / lib upgrade.
type Installer struct {
	CLI    toolchain.CLI
	Runner runner.Runner
	Logger Logger
}

// Install installs name. A non-zero exit is reported in the result, not as an
// error; err is set only when the toolchain could not be run at all.
func (i *Installer) Install(ctx context.Context, name string) (Result, error) {
	return i.run(ctx, ActionInstall, name, i.CLI.InstallArgs)
}

// Upgrade updates name to its latest release.
func (i *Installer) Upgrade(ctx context.Context, name string) (Result, error) {
	return i.run(ctx, ActionUpgrade, name, i.CLI.UpgradeArgs)
}

// UpdateIndex refreshes the toolchain's own library index.
func (i *Installer) UpdateIndex(ctx context.Context) error {
	res, err := i.runner().Run(ctx, i.CLI.Binary(), i.CLI.UpdateIndexArgs(), runner.RunOptions{})
	if err != nil || res.ExitCode != 0 {
		detail := strings.TrimSpace(string(res.Stderr))
		if detail == "" && err != nil {
			detail = err.Error()
		}
		return fmt.Errorf("update library index (exit %d): %s", res.ExitCode, detail)
	}
	return nil
}

func (i *Installer) run(ctx context.Context, action Action, name string, argsFor func(string) []string) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, ErrNoName
	}
	res, err := i.runner().Run(ctx, i.CLI.Binary(), argsFor(name), runner.RunOptions{})
	result := Result{
		Name:     name,
		Action:   action,
		ExitCode: res.ExitCode,
		Output:   strings.TrimSpace(string(res.Stdout) + string(res.Stderr)),
	}
	if err != nil && res.ExitCode <= 0 {
		if res.ExitCode == 0 {
			result.ExitCode = -1
		}
		i.logf("library %s %s: %v", action, name, err)
		return result, fmt.Errorf("%s %s: %w", action, name, err)
	}
	i.logf("library %s %s: exit %d", action, name, result.ExitCode)
	return result, nil
}

func (i *Installer) runner() runner.Runner {
	if i.Runner == nil {
		return runner.CmdRunner{}
	}
	return i.Runner
}

func (i *Installer) logf(format string, v ...any) {
	if i.Logger == nil {
		return
	}
	i.Logger.Printf(format, v...)
}
