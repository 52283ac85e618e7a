package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"arduinoctl/internal/pipeline"
	"arduinoctl/internal/tui"
)

func newWorkbenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "workbench",
		Aliases: []string{"ui"},
		Short:   "Interactive compile, upload and serial monitor panes",
		Args:    cobra.NoArgs,
		RunE:    runWorkbench,
	}
}

func runWorkbench(cmd *cobra.Command, _ []string) error {
	if !pickerMode(cmd) {
		return fmt.Errorf("workbench needs an interactive terminal; use compile, upload or monitor instead")
	}

	sess, err := openBuildSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	bridge := &tui.Bridge{}
	mon := &pipeline.Monitor{
		Streamer:  newStreamer(),
		CLI:       sess.cli,
		NewBuffer: bridge.BufferFactory(),
		Logger:    sess.logger,
	}
	orch := &pipeline.Orchestrator{
		Config:    sess.store,
		Streamer:  newStreamer(),
		CLI:       sess.cli,
		Sketch:    sess.pp.Root,
		Sink:      bridge.Sink(tui.PaneBuild),
		Monitor:   mon,
		CloseHint: tui.CloseHint,
		OnState:   func(s pipeline.State) { bridge.Send(tui.StateMsg{State: s}) },
		Logger:    sess.logger,
	}

	return tui.RunWorkbench(cmd.OutOrStdout(), bridge, tui.WorkbenchDeps{
		Orchestrator: orch,
		Monitor:      mon,
		Config:       sess.store,
		Sketch:       sess.pp.SketchFile,
	})
}
