package toolchain

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"arduinoctl/internal/runner"
)

// ToolInfo captures availability and version details for the toolchain binary.
type ToolInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

var lookPath = exec.LookPath

// Probe discovers whether the toolchain binary is reachable and which version
// it reports.
func Probe(ctx context.Context, cli CLI, r runner.Runner) ToolInfo {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if r == nil {
		r = runner.CmdRunner{}
	}

	name := cli.Binary()
	path, err := lookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ToolInfo{Name: name, Available: false, Error: "not found"}
		}
		return ToolInfo{Name: name, Available: false, Error: err.Error()}
	}

	res, err := r.Run(ctx, path, cli.VersionArgs(), runner.RunOptions{})
	if err != nil {
		return ToolInfo{Name: name, Path: path, Available: true, Error: err.Error()}
	}

	line := firstLine(strings.TrimSpace(string(res.Stdout)))
	return ToolInfo{Name: name, Path: path, Version: normalizeVersionLine(line), Available: true}
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// normalizeVersionLine pulls the version out of lines like
// "arduino-cli  Version: 1.1.1 Commit: fa6eafcb Date: 2024-11-22T09:31:36Z".
func normalizeVersionLine(line string) string {
	fields := strings.Fields(line)
	for i, field := range fields {
		if strings.EqualFold(field, "Version:") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return line
}
