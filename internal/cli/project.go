package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"arduinoctl/internal/config"
	"arduinoctl/internal/library"
	"arduinoctl/internal/logx"
	"arduinoctl/internal/paths"
	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
	"arduinoctl/internal/tui"
)

// Seams for tests.
var (
	newRunner   = func() runner.Runner { return runner.CmdRunner{} }
	newStreamer = func() runner.Streamer { return runner.CmdStreamer{} }
	catalogPath = paths.CatalogFile
)

// session bundles what every project command needs.
type session struct {
	pp     paths.ProjectPaths
	store  *config.Store
	cli    toolchain.CLI
	logger *log.Logger
	closer io.Closer
}

func openSession() (*session, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return nil, err
	}
	if err := ensureProjectDirs(pp); err != nil {
		return nil, err
	}

	logger, closer, err := logx.New(pp)
	if err != nil {
		return nil, err
	}
	store, err := config.Open(pp.ConfigFile, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	cli := toolchain.Resolve(cliPath)
	logger.Printf("project %s, toolchain %s", pp.Root, cli.Binary())
	return &session{pp: pp, store: store, cli: cli, logger: logger, closer: closer}, nil
}

func (s *session) Close() {
	if s.closer != nil {
		s.closer.Close()
	}
}

func ensureProjectDirs(pp paths.ProjectPaths) error {
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}
	return pp.EnsureMetaDirs()
}

// newLibraryService wires the library catalog outside of any sketch project.
func newLibraryService() (*library.Service, io.Closer, error) {
	path, err := catalogPath()
	if err != nil {
		return nil, nil, err
	}
	logger, closer, err := logx.NewGlobal("library")
	if err != nil {
		return nil, nil, err
	}
	svc := library.NewService(path, toolchain.Resolve(cliPath), newRunner(), logger)
	return svc, closer, nil
}

func outputMode(cmd *cobra.Command) tui.OutputMode {
	return tui.DetectMode(cmd.OutOrStdout(), plainOut, outputJSON)
}

// pickerMode reports whether a command should show an interactive picker.
func pickerMode(cmd *cobra.Command) bool {
	return outputMode(cmd) == tui.ModeTUI && tui.Interactive()
}

// withSpinner runs fn behind a status line when the output is a terminal.
func withSpinner(cmd *cobra.Command, msg string, fn func() error) error {
	if outputMode(cmd) != tui.ModeTUI {
		return fn()
	}
	sw := tui.NewStatusWriter(cmd.ErrOrStderr(), msg)
	defer sw.Stop()
	return fn()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func interruptContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(commandContext(cmd), os.Interrupt)
}

func styledOutput(cmd *cobra.Command) bool {
	return outputMode(cmd) == tui.ModeTUI
}
