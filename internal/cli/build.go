package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"arduinoctl/internal/pipeline"
	"arduinoctl/internal/tui"
)

var uploadNoMonitor bool

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Compile the sketch for the configured board",
		Args:  cobra.NoArgs,
		RunE:  runCompile,
	}
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Compile, upload and open the serial monitor",
		Long: "Compiles the sketch, uploads it to the configured port and, unless\n" +
			"--no-monitor is given, opens the serial monitor. Lines typed on stdin are\n" +
			"sent to the board. Press Ctrl+C to close the monitor.",
		Args: cobra.NoArgs,
		RunE: runUpload,
	}
	cmd.Flags().BoolVar(&uploadNoMonitor, "no-monitor", false, "Do not open the serial monitor after uploading")
	return cmd
}

// pipelineOutput is where stage output goes. JSON mode keeps stdout for the
// final document.
func pipelineOutput(cmd *cobra.Command) io.Writer {
	if outputJSON {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func newPipeline(cmd *cobra.Command, sess *session) (*pipeline.Orchestrator, *pipeline.Monitor) {
	out := pipelineOutput(cmd)
	styled := styledOutput(cmd)

	mon := &pipeline.Monitor{
		Streamer:  newStreamer(),
		CLI:       sess.cli,
		NewBuffer: tui.WriterBufferFactory(out, styled),
		Logger:    sess.logger,
	}
	orch := &pipeline.Orchestrator{
		Config:   sess.store,
		Streamer: newStreamer(),
		CLI:      sess.cli,
		Sketch:   sess.pp.Root,
		Sink:     tui.NewWriterSink(out, styled),
		Monitor:  mon,
		Logger:   sess.logger,
	}
	return orch, mon
}

func openBuildSession() (*session, error) {
	sess, err := openSession()
	if err != nil {
		return nil, err
	}
	if !sess.pp.HasSketch() {
		sess.Close()
		return nil, fmt.Errorf("no sketch found: expected %s", sess.pp.SketchFile)
	}
	return sess, nil
}

func runCompile(cmd *cobra.Command, _ []string) error {
	sess, err := openBuildSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := interruptContext(cmd)
	defer stop()

	orch, _ := newPipeline(cmd, sess)
	return runChain(ctx, cmd, orch, nil, pipeline.Request{})
}

func runUpload(cmd *cobra.Command, _ []string) error {
	sess, err := openBuildSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := interruptContext(cmd)
	defer stop()

	orch, mon := newPipeline(cmd, sess)
	return runChain(ctx, cmd, orch, mon, pipeline.Request{Upload: true, Monitor: !uploadNoMonitor})
}

func runChain(ctx context.Context, cmd *cobra.Command, orch *pipeline.Orchestrator, mon *pipeline.Monitor, req pipeline.Request) error {
	chain, err := orch.Start(ctx, req)
	if err != nil {
		return err
	}
	outcome := chain.Wait()

	if err := reportOutcome(cmd, outcome); err != nil {
		return err
	}
	if outcome.Session != nil && mon != nil {
		attachMonitor(ctx, cmd, mon, outcome.Session)
	}
	return nil
}

type outcomeReport struct {
	State       string `json:"state"`
	FailedStage string `json:"failed_stage,omitempty"`
	ExitCode    int    `json:"exit_code"`
	Cancelled   bool   `json:"cancelled"`
	Error       string `json:"error,omitempty"`
	Session     string `json:"monitor_session,omitempty"`
}

func reportOutcome(cmd *cobra.Command, outcome pipeline.Outcome) error {
	if outputJSON {
		report := outcomeReport{
			State:     outcome.State.String(),
			ExitCode:  outcome.ExitCode,
			Cancelled: outcome.Cancelled,
		}
		if outcome.FailedStage != pipeline.StageNone {
			report.FailedStage = outcome.FailedStage.String()
		}
		if outcome.Err != nil {
			report.Error = outcome.Err.Error()
		}
		if outcome.Session != nil {
			report.Session = outcome.Session.ID
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	switch {
	case outcome.OK():
		return nil
	case outcome.Cancelled:
		return fmt.Errorf("%s cancelled", outcome.FailedStage)
	case outcome.Err != nil:
		return fmt.Errorf("%s failed: %w", outcome.FailedStage, outcome.Err)
	default:
		return fmt.Errorf("%s failed with exit code %d", outcome.FailedStage, outcome.ExitCode)
	}
}

// attachMonitor keeps the command in the foreground while the monitor runs,
// forwarding stdin lines to the board. It returns once the monitor exits or
// ctx is cancelled.
func attachMonitor(ctx context.Context, cmd *cobra.Command, mon *pipeline.Monitor, session *pipeline.Session) {
	go forwardInput(cmd.InOrStdin(), session)

	select {
	case <-session.Done():
	case <-ctx.Done():
		mon.Stop()
	}
}

func forwardInput(in io.Reader, session *pipeline.Session) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := session.Send(scanner.Text() + "\n"); err != nil {
			return
		}
	}
}
