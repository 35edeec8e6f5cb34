package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/fsutil"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

// WatcherFactory binds a ResponseWatcher to a concrete response path.
type WatcherFactory func(responsePath string) core.ResponseWatcher

// Bridge drives the automated round trip for one help request: persist the
// request, bring the desktop application up, wait for the response document,
// parse it, and optionally apply what it proposes. It holds a request store
// collaborator and adds launcher and watcher behavior on top.
type Bridge struct {
	cfg         *config.Automation
	paths       workspace.Paths
	store       core.RequestStore
	launcher    core.ProcessLauncher
	newWatcher  WatcherFactory
	executor    *ProposalExecutor
	checkpoints *CheckpointManager
	handler     *Handler
	logger      *logging.Logger
	out         io.Writer

	state *core.WorkflowState
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeOutput redirects operator-facing messages.
func WithBridgeOutput(w io.Writer) BridgeOption {
	return func(b *Bridge) { b.out = w }
}

// WithWatcherFactory overrides how response watchers are built.
func WithWatcherFactory(f WatcherFactory) BridgeOption {
	return func(b *Bridge) { b.newWatcher = f }
}

// WithExecutor overrides the proposal executor.
func WithExecutor(e *ProposalExecutor) BridgeOption {
	return func(b *Bridge) { b.executor = e }
}

// WithCheckpointManager overrides the checkpoint manager.
func WithCheckpointManager(m *CheckpointManager) BridgeOption {
	return func(b *Bridge) { b.checkpoints = m }
}

// WithErrorHandler overrides the error handler.
func WithErrorHandler(h *Handler) BridgeOption {
	return func(b *Bridge) { b.handler = h }
}

// NewBridge wires a Bridge from its collaborators. By default watchers poll
// the real filesystem, proposals prompt on stdin, and errors are logged but
// not recorded to the error log.
func NewBridge(cfg *config.Automation, paths workspace.Paths, store core.RequestStore, launcher core.ProcessLauncher, logger *logging.Logger, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		cfg:         cfg,
		paths:       paths,
		store:       store,
		launcher:    launcher,
		executor:    NewProposalExecutor(paths, logger),
		checkpoints: NewCheckpointManager(paths, logger),
		handler:     NewHandler(logger, nil),
		logger:      logger.WithComponent("bridge"),
		out:         os.Stdout,
	}
	b.newWatcher = func(path string) core.ResponseWatcher {
		return NewWatcher(path, cfg, logger)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the workflow state of the most recent Run, or nil before
// the first run. Intermediate progress is only observable here.
func (b *Bridge) State() *core.WorkflowState {
	return b.state
}

// Run executes one automated workflow: create the request, launch the
// desktop application, wait for the response, read it. Every failure past
// request creation degrades to a manual fallback rather than an error, so
// the result is always one of manual_mode, timeout, or success. On success
// the workflow state is left open for ExecuteResponse or CompleteRun.
func (b *Bridge) Run(ctx context.Context, draft *core.HelpRequest) (core.RunResult, error) {
	created, err := b.store.CreateRequest(draft)
	if err != nil {
		return core.RunResult{}, err
	}
	id := created.Request.RequestID
	log := b.logger.WithRequest(id)

	state := core.NewWorkflowState(id)
	b.state = state

	log.Info("request persisted", "file", created.RequestFile)
	for _, skipped := range created.SkippedFiles {
		log.Warn("analysis file could not be staged", "path", skipped)
	}

	watcher := b.newWatcher(b.store.ResponsePath(id))

	if !b.cfg.Enabled || !b.cfg.AutoLaunchDesktop {
		log.Info("automatic desktop launch is off, handing over to the operator")
		b.ShowManualTransferInstructions(id)
		b.advance(log, func() error { return state.Fail("manual transfer required") })
		return core.ManualModeResult(id), nil
	}

	b.advance(log, state.StartLaunch)
	if !b.launcher.LaunchWithRetry() {
		b.launcher.ShowManualFallbackMessage()
		b.ShowManualTransferInstructions(id)
		b.advance(log, func() error { return state.Fail("desktop launch failed") })
		return core.ManualModeResult(id), nil
	}
	b.advance(log, state.StartWaiting)

	if !watcher.WaitForResponse(ctx) {
		log.Warn("no response within the configured window")
		b.ShowManualTransferInstructions(id)
		b.advance(log, func() error { return state.Fail("response timeout") })
		return core.TimeoutResult(id), nil
	}

	resp, err := watcher.ReadResponse(b.cfg.MaxRetries)
	if err != nil {
		b.handler.Handle(id, "read_response", err)
		b.ShowManualTransferInstructions(id)
		b.advance(log, func() error { return state.Fail("response unreadable") })
		return core.TimeoutResult(id), nil
	}

	log.Info("response received")
	return core.SuccessResult(id, resp), nil
}

// CompleteRun closes the workflow of the most recent Run when its response
// will not be executed.
func (b *Bridge) CompleteRun() {
	if b.state == nil || b.state.IsTerminal() {
		return
	}
	b.advance(b.logger.WithRequest(b.state.RequestID), b.state.Complete)
}

// ExecuteResponse applies what a response proposes. Unless proposals are
// auto-executed, the operator sees a summary and must approve first. When
// backups are enabled a checkpoint is taken before any write, and an apply
// that fails partway is rolled back to it.
func (b *Bridge) ExecuteResponse(resp *core.Response) *core.ExecutionResult {
	result := core.NewExecutionResult(resp.RequestID)
	log := b.logger.WithRequest(resp.RequestID)

	steps := b.executor.ExtractImplementationSteps(resp)
	files := b.executor.ExtractCodeFiles(resp)
	result.StepsTotal = len(steps)

	if len(steps) == 0 && len(files) == 0 {
		log.Info("response proposes no changes")
		result.Success = true
		b.closeRunState(log, resp.RequestID, true)
		return result
	}

	if !b.cfg.AutoExecuteProposals {
		b.executor.ShowProposalSummary(resp)
		if !b.executor.RequestUserApproval("Apply these proposals?") {
			log.Info("proposals rejected by the operator")
			return result
		}
	}

	b.beginRunExecution(log, resp.RequestID)

	checkpointID := ""
	newFiles := []string{}
	if b.cfg.CreateBackups && len(files) > 0 {
		targets := make([]string, 0, len(files))
		for _, f := range files {
			targets = append(targets, f.Path)
			if !fsutil.Exists(f.Path) {
				newFiles = append(newFiles, f.Path)
			}
		}
		id, err := b.checkpoints.Create(targets,
			fmt.Sprintf("before applying proposals for %s", resp.RequestID))
		if err != nil {
			b.handler.Handle(resp.RequestID, "file_operation", err)
			log.Warn("checkpoint failed, applying without rollback", "error", err)
		} else {
			checkpointID = id
		}
	}

	stepResults, stepsOK := b.executor.ExecuteAllSteps(steps)
	for _, ok := range stepResults {
		if ok {
			result.StepsCompleted++
		}
	}
	if !stepsOK {
		result.AddError(core.ExecutionError{
			Kind:    core.ExecErrorStep,
			Target:  fmt.Sprintf("step %d", result.StepsCompleted+1),
			Message: "step failed, remaining steps skipped",
		})
	}

	fileResults, filesOK := b.executor.ApplyAllCodeFiles(files)
	for _, fr := range fileResults {
		if fr.OK {
			result.AddModifiedFile(fr.Path)
			if fr.Backup != "" {
				result.AddBackup(fr.Backup)
			}
			continue
		}
		result.AddError(core.ExecutionError{
			Kind:    core.ExecErrorFile,
			Target:  fr.Path,
			Message: "write failed",
		})
	}

	result.Success = stepsOK && filesOK
	result.RollbackAvailable = checkpointID != ""

	if !result.Success && checkpointID != "" {
		if err := b.checkpoints.Rollback(checkpointID, newFiles); err != nil {
			b.handler.Handle(resp.RequestID, "file_operation", err)
			log.Warn("automatic rollback failed", "checkpoint_id", checkpointID, "error", err)
		} else {
			log.Info("changes rolled back", "checkpoint_id", checkpointID)
		}
	}

	b.closeRunState(log, resp.RequestID, result.Success)
	return result
}

// ShowManualTransferInstructions tells the operator how to move the request
// and response by hand when automation cannot.
func (b *Bridge) ShowManualTransferInstructions(requestID string) {
	fmt.Fprintln(b.out)
	fmt.Fprintln(b.out, "Manual transfer required:")
	fmt.Fprintf(b.out, "  1. Open the request file: %s\n", b.store.RequestPath(requestID))
	fmt.Fprintln(b.out, "  2. Paste its contents into the desktop application.")
	fmt.Fprintf(b.out, "  3. Save the reply as: %s\n", b.store.ResponsePath(requestID))
}

// beginRunExecution moves the current run into the executing state when the
// response being executed belongs to it.
func (b *Bridge) beginRunExecution(log *logging.Logger, requestID string) {
	if b.state == nil || b.state.RequestID != requestID || b.state.IsTerminal() {
		return
	}
	b.advance(log, b.state.StartExecution)
}

// closeRunState finishes the current run after execution when the response
// belonged to it.
func (b *Bridge) closeRunState(log *logging.Logger, requestID string, success bool) {
	if b.state == nil || b.state.RequestID != requestID || b.state.IsTerminal() {
		return
	}
	if success {
		b.advance(log, b.state.Complete)
		return
	}
	b.advance(log, func() error { return b.state.Fail("proposal execution failed") })
}

func (b *Bridge) advance(log *logging.Logger, step func() error) {
	if err := step(); err != nil {
		log.Warn("workflow state out of sync", "error", err)
	}
}
