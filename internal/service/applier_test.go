package service

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("stream closed")
}

func newTestExecutor(t *testing.T, in string) (*ProposalExecutor, *bytes.Buffer) {
	t.Helper()
	paths := newServicePaths(t)
	out := &bytes.Buffer{}
	when := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	e := NewProposalExecutor(paths, logging.NewNop(),
		WithPrompt(strings.NewReader(in), out),
		WithExecutorClock(func() time.Time { return when }))
	return e, out
}

func TestProposalExecutor_CreateBackup(t *testing.T) {
	e, _ := newTestExecutor(t, "")
	target := filepath.Join(t.TempDir(), "hello.go")
	require.NoError(t, os.WriteFile(target, []byte("package main"), 0o644))

	backup, ok := e.CreateBackup(target)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(e.paths.Backups, "hello_20250314_120000.go"), backup)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))
}

func TestProposalExecutor_CreateBackup_MissingSource(t *testing.T) {
	e, _ := newTestExecutor(t, "")

	backup, ok := e.CreateBackup(filepath.Join(t.TempDir(), "absent.go"))
	assert.False(t, ok)
	assert.Empty(t, backup)
}

func TestProposalExecutor_ApplyCodeFile_BacksUpExisting(t *testing.T) {
	e, _ := newTestExecutor(t, "")
	target := filepath.Join(t.TempDir(), "handler.go")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	backup, ok := e.ApplyCodeFile(target, "new")
	require.True(t, ok)
	require.NotEmpty(t, backup)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	saved, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "old", string(saved))
}

func TestProposalExecutor_ApplyCodeFile_CreatesParents(t *testing.T) {
	e, _ := newTestExecutor(t, "")
	target := filepath.Join(t.TempDir(), "deep", "nested", "dir", "new.go")

	backup, ok := e.ApplyCodeFile(target, "fresh")
	require.True(t, ok)
	assert.Empty(t, backup, "a file that did not exist has nothing to back up")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestProposalExecutor_ApplyAllCodeFiles_ContinuesPastFailure(t *testing.T) {
	e, _ := newTestExecutor(t, "")
	dir := t.TempDir()

	// A directory at the target path makes that write fail.
	blocked := filepath.Join(dir, "blocked.go")
	require.NoError(t, os.MkdirAll(blocked, 0o750))
	good := filepath.Join(dir, "good.go")

	results, ok := e.ApplyAllCodeFiles([]core.CodeFile{
		{Path: blocked, Content: "x"},
		{Path: good, Content: "y"},
	})
	assert.False(t, ok, "aggregate success requires every file")
	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.True(t, results[1].OK, "a failed file must not stop the rest")

	data, err := os.ReadFile(good)
	require.NoError(t, err)
	assert.Equal(t, "y", string(data))
}

func TestProposalExecutor_ExecuteAllSteps(t *testing.T) {
	e, out := newTestExecutor(t, "")

	results, ok := e.ExecuteAllSteps([]core.ImplementationStep{
		{Description: "Create index", Action: "ALTER TABLE users ADD INDEX"},
		{Description: "Restart workers"},
	})
	require.True(t, ok)
	assert.Equal(t, []bool{true, true}, results)

	assert.Contains(t, out.String(), "[1/2] Create index")
	assert.Contains(t, out.String(), "ALTER TABLE users ADD INDEX")
	assert.Contains(t, out.String(), "[2/2] Restart workers")
}

func TestProposalExecutor_ExecuteAllSteps_AbortsOnFailure(t *testing.T) {
	paths := newServicePaths(t)
	e := NewProposalExecutor(paths, logging.NewNop(),
		WithPrompt(strings.NewReader(""), failingWriter{}))

	results, ok := e.ExecuteAllSteps([]core.ImplementationStep{
		{Description: "first"},
		{Description: "second"},
		{Description: "third"},
	})
	assert.False(t, ok)
	assert.Equal(t, []bool{false}, results, "remaining steps must be skipped")
}

func TestProposalExecutor_RequestUserApproval(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"lower y", "y\n", true},
		{"upper y", "Y\n", true},
		{"yes spelled out", "yes\n", false},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"interrupted prompt", "", false},
		{"y without newline", "y", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExecutor(t, tt.input)
			assert.Equal(t, tt.want, e.RequestUserApproval("Apply?"))
		})
	}
}

func TestProposalExecutor_ExtractFromBareResponse(t *testing.T) {
	e, _ := newTestExecutor(t, "")
	resp := &core.Response{}

	assert.Empty(t, e.ExtractImplementationSteps(resp))
	assert.Empty(t, e.ExtractCodeFiles(resp))
}

func TestProposalExecutor_ShowProposalSummary(t *testing.T) {
	e, out := newTestExecutor(t, "")
	resp := &core.Response{
		Analysis: &core.Analysis{
			RootCause: "connection pool exhausted",
			Recommendations: []core.Recommendation{
				{Title: "Raise pool size", Priority: "high", Description: "Double max_conns"},
			},
			ImplementationSteps: []core.ImplementationStep{{Description: "edit config"}},
			CodeFiles:           []core.CodeFile{{Path: "pool.go", Content: "x"}},
		},
	}

	e.ShowProposalSummary(resp)

	assert.Contains(t, out.String(), "connection pool exhausted")
	assert.Contains(t, out.String(), "Raise pool size (high)")
	assert.Contains(t, out.String(), "Implementation steps: 1")
	assert.Contains(t, out.String(), "Files to write: 1")
}
