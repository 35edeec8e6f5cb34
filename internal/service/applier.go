package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/fsutil"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

// CodeFileResult records the outcome of one proposed file write.
type CodeFileResult struct {
	Path   string
	Backup string
	OK     bool
}

// ProposalExecutor applies what a response proposes: it writes code files
// (backing up what they overwrite) and walks the implementation steps.
// File writes are independent of each other, steps are not: a failed file
// is skipped past, a failed step aborts the rest of the sequence.
type ProposalExecutor struct {
	paths  workspace.Paths
	logger *logging.Logger
	in     *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

// ExecutorOption configures a ProposalExecutor.
type ExecutorOption func(*ProposalExecutor)

// WithPrompt redirects the approval prompt, used by tests and by callers
// that own the terminal.
func WithPrompt(in io.Reader, out io.Writer) ExecutorOption {
	return func(e *ProposalExecutor) {
		e.in = bufio.NewReader(in)
		e.out = out
	}
}

// WithExecutorClock overrides the time source for backup names.
func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *ProposalExecutor) { e.now = now }
}

// NewProposalExecutor creates an executor writing backups under
// paths.Backups and prompting on stdin/stdout.
func NewProposalExecutor(paths workspace.Paths, logger *logging.Logger, opts ...ExecutorOption) *ProposalExecutor {
	e := &ProposalExecutor{
		paths:  paths,
		logger: logger.WithComponent("executor"),
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractImplementationSteps pulls the step list out of a response,
// defaulting to empty when the analysis section is absent.
func (e *ProposalExecutor) ExtractImplementationSteps(resp *core.Response) []core.ImplementationStep {
	return resp.ImplementationSteps()
}

// ExtractCodeFiles pulls the proposed file list out of a response,
// defaulting to empty when the analysis section is absent.
func (e *ProposalExecutor) ExtractCodeFiles(resp *core.Response) []core.CodeFile {
	return resp.CodeFiles()
}

// CreateBackup copies path into the backups directory under a time-stamped
// name derived from the file's stem and extension. Returns the backup path,
// or "" and false when the source does not exist or the copy fails. Copy
// failures are logged, never raised.
func (e *ProposalExecutor) CreateBackup(path string) (string, bool) {
	if !fsutil.Exists(path) {
		return "", false
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	backupPath := filepath.Join(e.paths.Backups,
		fmt.Sprintf("%s_%s%s", stem, e.now().Format("20060102_150405"), ext))

	if err := fsutil.EnsureDir(e.paths.Backups); err != nil {
		e.logger.Warn("could not create backups directory", "error", err)
		return "", false
	}
	if err := fsutil.CopyFile(path, backupPath); err != nil {
		e.logger.Warn("could not back up file", "path", path, "error", err)
		return "", false
	}
	return backupPath, true
}

// ApplyCodeFile writes content to path, backing up any existing file first.
// A failed backup does not block the write. Returns the backup path (empty
// when none was made) and whether the write succeeded.
func (e *ProposalExecutor) ApplyCodeFile(path, content string) (string, bool) {
	backup := ""
	if fsutil.Exists(path) {
		if b, ok := e.CreateBackup(path); ok {
			backup = b
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		e.logger.Warn("could not create parent directory", "path", path, "error", err)
		return backup, false
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.logger.Warn("could not write proposed file", "path", path, "error", err)
		return backup, false
	}

	e.logger.Info("applied proposed file", "path", path, "backup", backup)
	return backup, true
}

// ApplyAllCodeFiles applies every proposed file in input order. A failed
// write does not stop the remaining files. The aggregate flag is true only
// when every file succeeded.
func (e *ProposalExecutor) ApplyAllCodeFiles(files []core.CodeFile) ([]CodeFileResult, bool) {
	results := make([]CodeFileResult, 0, len(files))
	allOK := true
	for _, f := range files {
		backup, ok := e.ApplyCodeFile(f.Path, f.Content)
		results = append(results, CodeFileResult{Path: f.Path, Backup: backup, OK: ok})
		if !ok {
			allOK = false
		}
	}
	return results, allOK
}

// ExecuteStep surfaces one implementation step to the operator. The steps
// are declarative: showing the description and action is the execution.
// Returns false only when the output channel itself fails.
func (e *ProposalExecutor) ExecuteStep(step core.ImplementationStep, index, total int) bool {
	if _, err := fmt.Fprintf(e.out, "[%d/%d] %s\n", index, total, step.DisplayDescription()); err != nil {
		e.logger.Warn("could not present step", "step", index, "error", err)
		return false
	}
	if step.Action != "" {
		if _, err := fmt.Fprintf(e.out, "    %s\n", step.Action); err != nil {
			e.logger.Warn("could not present step action", "step", index, "error", err)
			return false
		}
	}
	return true
}

// ExecuteAllSteps runs the steps in order and stops at the first failure,
// since later steps may depend on earlier ones. Returns the per-step results
// gathered so far and whether the full sequence completed.
func (e *ProposalExecutor) ExecuteAllSteps(steps []core.ImplementationStep) ([]bool, bool) {
	results := make([]bool, 0, len(steps))
	for i, step := range steps {
		ok := e.ExecuteStep(step, i+1, len(steps))
		results = append(results, ok)
		if !ok {
			e.logger.Warn("stopping at failed step", "step", i+1, "total", len(steps))
			return results, false
		}
	}
	return results, true
}

// RequestUserApproval blocks on a yes/no prompt. Only "y" or "Y" approves;
// an interrupted or failed read counts as rejection, never as an error.
func (e *ProposalExecutor) RequestUserApproval(message string) bool {
	fmt.Fprintf(e.out, "%s [y/N]: ", message)
	line, err := e.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

// ShowProposalSummary prints what the response proposes before anything is
// applied, so the operator can decide on the approval prompt.
func (e *ProposalExecutor) ShowProposalSummary(resp *core.Response) {
	fmt.Fprintln(e.out)
	fmt.Fprintln(e.out, "Proposal summary")
	fmt.Fprintf(e.out, "  Root cause: %s\n", resp.RootCause())

	recs := resp.Recommendations()
	if len(recs) > 0 {
		fmt.Fprintln(e.out, "  Recommendations:")
		for _, rec := range recs {
			fmt.Fprintf(e.out, "    - %s (%s): %s\n",
				rec.DisplayTitle(), rec.DisplayPriority(), rec.DisplayDescription())
		}
	}

	fmt.Fprintf(e.out, "  Implementation steps: %d\n", len(resp.ImplementationSteps()))
	fmt.Fprintf(e.out, "  Files to write: %d\n", len(resp.CodeFiles()))
}
