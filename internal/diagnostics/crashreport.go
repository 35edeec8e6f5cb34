package diagnostics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kazumasakawahara/claude-bridge/internal/logging"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

// maxCrashReports caps how many reports accumulate under logs/.
const maxCrashReports = 10

// CrashReport is what gets persisted when the process panics.
type CrashReport struct {
	Timestamp  time.Time `json:"timestamp"`
	ProcessID  int       `json:"process_id"`
	GoVersion  string    `json:"go_version"`
	GOOS       string    `json:"goos"`
	GOARCH     string    `json:"goarch"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`

	Command   string   `json:"command,omitempty"`
	Args      []string `json:"args,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
	WorkDir   string   `json:"work_dir,omitempty"`

	Host HostSnapshot `json:"host"`
}

// CrashReporter persists a diagnostic report when a command panics, so a
// crash during an automated workflow leaves something to debug with.
type CrashReporter struct {
	paths  workspace.Paths
	logger *logging.Logger

	mu        sync.Mutex
	command   string
	requestID string
}

// NewCrashReporter creates a reporter writing under the workspace logs
// directory.
func NewCrashReporter(paths workspace.Paths, logger *logging.Logger) *CrashReporter {
	return &CrashReporter{paths: paths, logger: logger.WithComponent("crash")}
}

// SetContext records what the process is doing, for inclusion in a report.
func (c *CrashReporter) SetContext(command, requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.command = command
	c.requestID = requestID
}

// Recover is defer-compatible: it turns a panic into a crash report plus a
// re-panic, so the process still dies loudly after the evidence is saved.
func (c *CrashReporter) Recover() {
	r := recover()
	if r == nil {
		return
	}
	path, err := c.Write(r)
	if err != nil {
		c.logger.Error("could not write crash report", "panic", r, "error", err)
	} else {
		c.logger.Error("crash report written", "panic", r, "path", path)
	}
	panic(r)
}

// Write persists one crash report and prunes old ones. Returns the report
// path.
func (c *CrashReporter) Write(panicValue interface{}) (string, error) {
	c.mu.Lock()
	command, requestID := c.command, c.requestID
	c.mu.Unlock()

	report := CrashReport{
		Timestamp:  time.Now().UTC(),
		ProcessID:  os.Getpid(),
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		Command:    command,
		Args:       os.Args,
		RequestID:  requestID,
		Host:       Collect(c.paths),
	}
	if wd, err := os.Getwd(); err == nil {
		report.WorkDir = wd
	}

	if err := os.MkdirAll(c.paths.Logs, 0o750); err != nil {
		return "", fmt.Errorf("creating logs directory: %w", err)
	}

	name := fmt.Sprintf("crash_%s.json", report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(c.paths.Logs, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing crash report: %w", err)
	}

	c.prune()
	return path, nil
}

// prune removes the oldest reports beyond maxCrashReports.
func (c *CrashReporter) prune() {
	entries, err := os.ReadDir(c.paths.Logs)
	if err != nil {
		return
	}
	var reports []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".json") {
			reports = append(reports, e.Name())
		}
	}
	if len(reports) <= maxCrashReports {
		return
	}
	sort.Strings(reports)
	for _, name := range reports[:len(reports)-maxCrashReports] {
		_ = os.Remove(filepath.Join(c.paths.Logs, name))
	}
}
