package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"arduinoctl/internal/config"
	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
)

// Request selects how far a chain runs.
type Request struct {
	// Upload continues to an upload after a successful compile.
	Upload bool
	// Monitor opens a serial monitor after a successful upload.
	Monitor bool
}

// Outcome is the result of a finished chain.
type Outcome struct {
	State       State
	FailedStage Stage
	ExitCode    int
	Cancelled   bool
	Err         error
	Session     *Session
}

// OK reports whether every requested stage succeeded.
func (o Outcome) OK() bool {
	return !o.Cancelled && o.FailedStage == StageNone && o.Err == nil
}

// Orchestrator runs compile, upload and monitor stages one after another.
type Orchestrator struct {
	Config   *config.Store
	Streamer runner.Streamer
	CLI      toolchain.CLI
	// Sketch is the sketch directory handed to compile and upload.
	Sketch string
	Sink   Sink
	// Monitor receives the session opened after an upload.
	Monitor *Monitor
	// SaveAll runs before an upload chain compiles.
	SaveAll func() error
	// CloseHint is appended after an upload failure when set.
	CloseHint string
	// OnState observes every transition. It may run on the chain goroutine.
	OnState func(State)
	Logger  Logger

	mu     sync.Mutex
	state  State
	active *Chain
}

// Chain is one running compile → upload → monitor sequence.
type Chain struct {
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// Wait blocks until the chain ends.
func (c *Chain) Wait() Outcome {
	<-c.done
	return c.outcome
}

// Done is closed when the chain ends.
func (c *Chain) Done() <-chan struct{} {
	return c.done
}

// Cancel terminates the running stage. The chain never advances after a cancel.
func (c *Chain) Cancel() {
	c.cancel()
}

// State returns the current machine state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Cancel cancels the active chain, if any.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	chain := o.active
	o.mu.Unlock()
	if chain == nil {
		return false
	}
	chain.Cancel()
	return true
}

// Start launches a chain and returns immediately. It fails with ErrBusy while
// another chain is compiling or uploading and with ErrNoPort when an upload
// is requested without a configured port. Upload chains stop any live monitor
// session before compiling.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Chain, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Default()
	if o.Config != nil {
		cfg = o.Config.Snapshot()
	}
	if req.Upload && strings.TrimSpace(cfg.Port) == "" {
		return nil, ErrNoPort
	}
	if !req.Upload {
		req.Monitor = false
	}

	o.mu.Lock()
	if o.active != nil {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	chainCtx, cancel := context.WithCancel(ctx)
	chain := &Chain{cancel: cancel, done: make(chan struct{})}
	o.active = chain
	o.state = StateCompiling
	o.mu.Unlock()
	o.notify(StateCompiling)

	go o.run(chainCtx, chain, req, cfg)
	return chain, nil
}

func (o *Orchestrator) run(ctx context.Context, chain *Chain, req Request, cfg config.Config) {
	sink := o.sink()
	outcome := o.drive(ctx, sink, req, cfg)

	o.mu.Lock()
	o.active = nil
	o.state = outcome.State
	o.mu.Unlock()
	o.notify(outcome.State)

	chain.cancel()
	chain.outcome = outcome
	close(chain.done)
}

func (o *Orchestrator) drive(ctx context.Context, sink Sink, req Request, cfg config.Config) Outcome {
	// An open monitor holds the serial port the upload needs.
	if req.Upload && o.Monitor != nil {
		o.Monitor.Stop()
	}
	if req.Upload && o.SaveAll != nil {
		if err := o.SaveAll(); err != nil {
			o.logf("pipeline: save before upload: %v", err)
			sink.Append(errorLine(fmt.Errorf("save sketch: %w", err)))
		}
	}

	result, code, err := o.runStage(ctx, sink, StageCompile, o.CLI.CompileArgs(cfg.Board, o.Sketch))
	if out, done := o.settle(StageCompile, result, code, err); done {
		return out
	}
	if !req.Upload {
		return Outcome{State: StateIdle}
	}

	o.setState(StateUploading)
	result, code, err = o.runStage(ctx, sink, StageUpload, o.CLI.UploadArgs(cfg.Board, cfg.Port, o.Sketch))
	if result == resultFailed && o.CloseHint != "" {
		sink.Append(o.CloseHint)
	}
	if out, done := o.settle(StageUpload, result, code, err); done {
		return out
	}
	if !req.Monitor || o.Monitor == nil {
		return Outcome{State: StateIdle}
	}

	session, err := o.Monitor.Start(cfg)
	if err != nil {
		sink.Append(errorLine(err))
		return Outcome{State: StateFailed, FailedStage: StageMonitor, ExitCode: -1, Err: err}
	}
	return Outcome{State: StateMonitoring, Session: session}
}

// settle maps a stage result to a terminal outcome. done is false when the
// chain should advance.
func (o *Orchestrator) settle(stage Stage, result stageResult, code int, err error) (Outcome, bool) {
	switch result {
	case resultOK:
		return Outcome{}, false
	case resultCancelled:
		return Outcome{State: StateIdle, FailedStage: stage, ExitCode: code, Cancelled: true}, true
	default:
		return Outcome{State: StateFailed, FailedStage: stage, ExitCode: code, Err: err}, true
	}
}

// runStage spawns one stage and forwards its output until it exits. The
// stage banner is always the last line it writes.
func (o *Orchestrator) runStage(ctx context.Context, sink Sink, stage Stage, args []string) (stageResult, int, error) {
	if err := ctx.Err(); err != nil {
		sink.Append(banner(stage, resultCancelled))
		return resultCancelled, -1, nil
	}

	streamer := o.Streamer
	if streamer == nil {
		streamer = runner.CmdStreamer{}
	}
	o.logf("pipeline: %s: %s %s", stage, o.CLI.Binary(), strings.Join(args, " "))
	job, err := streamer.Start(ctx, o.CLI.Binary(), args, runner.RunOptions{Dir: o.Sketch})
	if err != nil {
		o.logf("pipeline: %s: spawn failed: %v", stage, err)
		sink.Append(errorLine(err), banner(stage, resultFailed))
		return resultFailed, -1, err
	}

	code := -1
	var exitErr error
	for ev := range job.Events() {
		if forward(sink, ev) {
			code = ev.Code
			exitErr = ev.Err
		}
	}

	result := resultOK
	switch {
	case ctx.Err() != nil:
		result = resultCancelled
	case code != 0:
		result = resultFailed
	}
	o.logf("pipeline: %s: exit %d (%v)", stage, code, exitErr)
	sink.Append(banner(stage, result))
	if result == resultFailed && exitErr == nil {
		exitErr = fmt.Errorf("%s exited with code %d", stage, code)
	}
	return result, code, exitErr
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.notify(s)
}

func (o *Orchestrator) notify(s State) {
	if o.OnState != nil {
		o.OnState(s)
	}
}

func (o *Orchestrator) sink() Sink {
	if o.Sink == nil {
		return discard{}
	}
	return o.Sink
}

func (o *Orchestrator) logf(format string, v ...any) {
	if o.Logger == nil {
		return
	}
	o.Logger.Printf(format, v...)
}
