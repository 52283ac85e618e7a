package toolchain

import (
	"os"
	"strconv"
	"strings"
)

// DefaultBinary is the toolchain executable looked up on PATH.
const DefaultBinary = "arduino-cli"

// EnvBinary overrides the toolchain executable.
const EnvBinary = "ARDUINOCTL_CLI"

// CLI builds argument vectors for arduino-cli invocations.
type CLI struct {
	Path string
}

// Resolve picks the toolchain binary from an explicit flag, the environment
// or the default name, in that order.
func Resolve(flag string) CLI {
	if path := strings.TrimSpace(flag); path != "" {
		return CLI{Path: path}
	}
	if path := strings.TrimSpace(os.Getenv(EnvBinary)); path != "" {
		return CLI{Path: path}
	}
	return CLI{Path: DefaultBinary}
}

// Binary returns the executable to run.
func (c CLI) Binary() string {
	if strings.TrimSpace(c.Path) == "" {
		return DefaultBinary
	}
	return c.Path
}

func (CLI) CatalogArgs() []string {
	return []string{"lib", "search", "--format", "json"}
}

func (CLI) InstalledArgs() []string {
	return []string{"lib", "list", "--format", "json"}
}

func (CLI) OutdatedArgs() []string {
	return []string{"outdated", "--format", "json"}
}

func (CLI) UpdateIndexArgs() []string {
	return []string{"lib", "update-index"}
}

func (CLI) InstallArgs(name string) []string {
	return []string{"lib", "install", name}
}

func (CLI) UpgradeArgs(name string) []string {
	return []string{"lib", "upgrade", name}
}

func (CLI) BoardsArgs() []string {
	return []string{"board", "listall", "--format", "json"}
}

func (CLI) PortsArgs() []string {
	return []string{"board", "list", "--format", "json"}
}

func (CLI) VersionArgs() []string {
	return []string{"version"}
}

func (CLI) CompileArgs(board, sketch string) []string {
	return []string{"compile", "--fqbn", board, sketch}
}

func (CLI) UploadArgs(board, port, sketch string) []string {
	return []string{"upload", "-p", port, "--fqbn", board, sketch}
}

func (CLI) MonitorArgs(port string, baud int) []string {
	return []string{"monitor", "-p", port, "--config", "baudrate=" + strconv.Itoa(baud)}
}
