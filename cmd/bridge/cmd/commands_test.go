package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

func resetNewFlags() {
	newProblem, newErrors, newContext = "", "", ""
	newTried, newFiles = nil, nil
	newCopy, newJSON = false, false
}

func TestRunNewCreatesRequest(t *testing.T) {
	dir := useTestWorkspace(t)
	resetNewFlags()
	t.Cleanup(resetNewFlags)
	newProblem = "concurrent map write under load"

	output, err := captureStdout(t, func() error {
		return runNew(nil, []string{"panic", "in", "cache", "layer"})
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Created request req_")
	assert.Contains(t, output, "Next steps:")

	matches, err := filepath.Glob(filepath.Join(dir, "help-requests", "req_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	var req core.HelpRequest
	require.NoError(t, json.Unmarshal(data, &req))
	assert.Equal(t, "panic in cache layer", req.Title)
	assert.Equal(t, "concurrent map write under load", req.Problem)

	// Creating a request registers the project.
	assert.FileExists(t, filepath.Join(dir, "projects.yaml"))
}

func TestRunNewCopiesAnalysisFiles(t *testing.T) {
	dir := useTestWorkspace(t)
	resetNewFlags()
	t.Cleanup(resetNewFlags)

	src := filepath.Join(t.TempDir(), "watcher.go")
	require.NoError(t, os.WriteFile(src, []byte("package service"), 0o644))
	newFiles = []string{src}

	_, err := captureStdout(t, func() error {
		return runNew(nil, []string{"flaky watcher"})
	})
	require.NoError(t, err)

	copies, err := filepath.Glob(filepath.Join(dir, "help-requests", "req_*", "watcher.go"))
	require.NoError(t, err)
	require.Len(t, copies, 1)
}

func seedWorkspaceRequest(t *testing.T, dir, id, title string) workspace.Paths {
	t.Helper()
	paths, err := workspace.Resolve(dir)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureAll())

	req := core.HelpRequest{
		RequestID: id,
		Timestamp: strings.TrimPrefix(id, "req_"),
		Title:     title,
		Status:    core.RequestStatusPending,
	}
	data, err := json.MarshalIndent(req, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.RequestFile(id), data, 0o644))
	return paths
}

func TestRunRunFallsBackToManualMode(t *testing.T) {
	dir := useTestWorkspace(t)
	paths, err := workspace.Resolve(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.AutomationConfig(), []byte(`{"enabled": false}`), 0o644))

	runProblem = "3s before the prompt appears"
	t.Cleanup(func() {
		runProblem = ""
		runTried, runFiles = nil, nil
	})

	output, err := captureStdout(t, func() error {
		return runRun(nil, []string{"slow", "startup"})
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Manual transfer required:")
	assert.Contains(t, output, "Check for the reply later with: bridge check req_")

	matches, err := filepath.Glob(filepath.Join(dir, "help-requests", "req_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunCheckWithoutResponse(t *testing.T) {
	dir := useTestWorkspace(t)
	seedWorkspaceRequest(t, dir, "req_20250314_120000", "nil map write")

	output, err := captureStdout(t, func() error {
		return runCheck(nil, []string{"1200"})
	})
	require.NoError(t, err)

	assert.Contains(t, output, "No response yet for req_20250314_120000")
	assert.Contains(t, output, "req_20250314_120000_response.json")
}

func TestRunCheckWithResponse(t *testing.T) {
	dir := useTestWorkspace(t)
	paths := seedWorkspaceRequest(t, dir, "req_20250314_120000", "nil map write")

	body := `{"analysis": {"root_cause": "missing mutex", "implementation_steps": [{"description": "add a lock"}]}}`
	require.NoError(t, os.WriteFile(paths.ResponseFile("req_20250314_120000"), []byte(body), 0o644))

	output, err := captureStdout(t, func() error {
		return runCheck(nil, []string{"req_20250314_120000"})
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Response ready for req_20250314_120000")
	assert.Contains(t, output, "root cause: missing mutex")
	assert.Contains(t, output, "steps: 1")
}

func TestRunListJSON(t *testing.T) {
	dir := useTestWorkspace(t)
	seedWorkspaceRequest(t, dir, "req_20250314_120000", "first")
	seedWorkspaceRequest(t, dir, "req_20250314_130000", "second")

	listJSON = true
	t.Cleanup(func() { listJSON = false })

	output, err := captureStdout(t, func() error {
		return runList(nil, nil)
	})
	require.NoError(t, err)

	var pending []core.HelpRequest
	require.NoError(t, json.Unmarshal([]byte(output), &pending))
	require.Len(t, pending, 2)
	assert.Equal(t, "req_20250314_120000", pending[0].RequestID)
}

func TestRunApplyWritesProposedFiles(t *testing.T) {
	dir := useTestWorkspace(t)
	paths := seedWorkspaceRequest(t, dir, "req_20250314_120000", "nil map write")

	target := filepath.Join(t.TempDir(), "cache.go")
	resp := map[string]any{
		"request_id": "req_20250314_120000",
		"analysis": map[string]any{
			"root_cause":           "missing mutex",
			"implementation_steps": []map[string]string{{"description": "guard the map"}},
			"code_files":           []map[string]string{{"path": target, "content": "package cache\n"}},
		},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.ResponseFile("req_20250314_120000"), data, 0o644))

	applyYes = true
	t.Cleanup(func() { applyYes, applyNoBackup = false, false })

	output, err := captureStdout(t, func() error {
		return runApply(nil, []string{"req_20250314_120000"})
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Applied req_20250314_120000")
	assert.Contains(t, output, "steps: 1/1")

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "package cache\n", string(written))

	checkpoints, err := filepath.Glob(filepath.Join(dir, "checkpoints", "checkpoint_*"))
	require.NoError(t, err)
	assert.Len(t, checkpoints, 1)
}

func TestRunArchiveMovesCompletedRequest(t *testing.T) {
	dir := useTestWorkspace(t)
	paths := seedWorkspaceRequest(t, dir, "req_20250314_120000", "done")
	require.NoError(t, os.WriteFile(paths.ResponseFile("req_20250314_120000"), []byte(`{"analysis":{}}`), 0o644))

	output, err := captureStdout(t, func() error {
		return runArchive(nil, []string{"req_20250314_120000"})
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Archived req_20250314_120000")
	assert.NoFileExists(t, paths.RequestFile("req_20250314_120000"))
	assert.FileExists(t, filepath.Join(paths.ArchiveDir("req_20250314_120000"), "req_20250314_120000.json"))
}

func TestRunConfigureShow(t *testing.T) {
	useTestWorkspace(t)
	configureShow = true
	t.Cleanup(func() { configureShow = false })

	output, err := captureStdout(t, func() error {
		return runConfigure(nil, nil)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Automation settings:")
	assert.Contains(t, output, "desktop app:         Claude")
	assert.Contains(t, output, "response timeout:    1800s")
}

func TestRunDashboardOnce(t *testing.T) {
	useTestWorkspace(t)

	output, err := captureStdout(t, func() error {
		return runDashboard(dashboardCmd, nil)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Claude Bridge Dashboard")
	assert.Contains(t, output, "Pending requests")
	assert.Contains(t, output, "Health")
}

func TestSaveAutomationRejectsInvalidSettings(t *testing.T) {
	useTestWorkspace(t)
	env, err := initEnv()
	require.NoError(t, err)

	bad := *env.Automation
	bad.LaunchTimeout = 0
	err = saveAutomation(env, &bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings rejected")
}

func TestSaveAutomationPersists(t *testing.T) {
	useTestWorkspace(t)
	env, err := initEnv()
	require.NoError(t, err)

	env.Automation.ResponseTimeout = 900
	_, err = captureStdout(t, func() error {
		return saveAutomation(env, env.Automation)
	})
	require.NoError(t, err)

	data, err := os.ReadFile(env.AutomationPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"response_timeout": 900`)
}

func TestPrintPendingTable(t *testing.T) {
	now := time.Date(2025, 3, 14, 14, 0, 0, 0, time.Local)
	pending := []core.HelpRequest{
		{RequestID: "req_20250314_120000", Timestamp: "20250314_120000", Title: "nil map write", FilesToAnalyze: []string{"a.go"}},
		{RequestID: "req_20250314_130000", Timestamp: "20250314_130000", Title: "flaky test"},
	}

	var buf bytes.Buffer
	printPendingTable(&buf, pending, now)
	output := buf.String()

	assert.Contains(t, output, "REQUEST")
	assert.Contains(t, output, "req_20250314_120000")
	assert.Contains(t, output, "2h")
	assert.Contains(t, output, "1h")
	assert.Contains(t, output, "nil map write")
}

func TestPrintCheckpointTable(t *testing.T) {
	checkpoints := []core.Checkpoint{
		{CheckpointID: "checkpoint_20250314_120000", Timestamp: "2025-03-14T12:00:00Z", Description: "before apply", Files: []core.CheckpointFile{{OriginalPath: "a.go", BackupName: "a.go"}}},
	}

	var buf bytes.Buffer
	printCheckpointTable(&buf, checkpoints)

	assert.Contains(t, buf.String(), "checkpoint_20250314_120000")
	assert.Contains(t, buf.String(), "before apply")
}

func TestPrintExecutionReportFailure(t *testing.T) {
	result := core.NewExecutionResult("req_20250314_120000")
	result.StepsTotal = 2
	result.StepsCompleted = 1
	result.AddError(core.ExecutionError{Kind: core.ExecErrorStep, Target: "step 2", Message: "write failed"})
	result.RollbackAvailable = true

	output, err := captureStdout(t, func() error {
		printExecutionReport(result)
		return nil
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Apply incomplete for req_20250314_120000")
	assert.Contains(t, output, "steps: 1/2")
	assert.Contains(t, output, "rolled back")
}

func TestRequestAge(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 30, 0, time.Local)
	assert.Equal(t, "<1m", requestAge("20250314_120000", now))
	assert.Equal(t, "30m", requestAge("20250314_113000", now))
	assert.Equal(t, "2d", requestAge("20250312_120000", now))
	assert.Equal(t, "-", requestAge("garbage", now))
}
