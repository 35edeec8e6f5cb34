// Package workspace resolves the directory layout the bridge keeps its
// documents in. Every component receives these paths explicitly; nothing
// recomputes them from the home directory on its own.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/kazumasakawahara/claude-bridge/internal/fsutil"
)

// DefaultRelRoot is the workspace location under the user's home
// directory when no override is configured.
const DefaultRelRoot = "AI-Workspace/claude-bridge"

// Paths is the resolved directory layout of one workspace.
type Paths struct {
	Root        string
	Requests    string
	Responses   string
	Archive     string
	Checkpoints string
	Backups     string
	Logs        string
}

// Resolve builds the layout rooted at root. An empty root falls back to
// the default under the user's home directory.
func Resolve(root string) (Paths, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		root = filepath.Join(home, filepath.FromSlash(DefaultRelRoot))
	}
	return Paths{
		Root:        root,
		Requests:    filepath.Join(root, "help-requests"),
		Responses:   filepath.Join(root, "help-responses"),
		Archive:     filepath.Join(root, "archive"),
		Checkpoints: filepath.Join(root, "checkpoints"),
		Backups:     filepath.Join(root, "backups"),
		Logs:        filepath.Join(root, "logs"),
	}, nil
}

// EnsureAll creates every workspace directory that is missing.
func (p Paths) EnsureAll() error {
	for _, dir := range []string{
		p.Requests, p.Responses, p.Archive, p.Checkpoints, p.Backups, p.Logs,
	} {
		if err := fsutil.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// AutomationConfig returns the automation document path inside the
// workspace.
func (p Paths) AutomationConfig() string {
	return filepath.Join(p.Root, "automation_config.json")
}

// RequestFile returns the request document path for an id.
func (p Paths) RequestFile(requestID string) string {
	return filepath.Join(p.Requests, requestID+".json")
}

// RequestDir returns the per-request directory that holds copies of the
// files attached for analysis.
func (p Paths) RequestDir(requestID string) string {
	return filepath.Join(p.Requests, requestID)
}

// ResponseFile returns the expected response document path for an id.
func (p Paths) ResponseFile(requestID string) string {
	return filepath.Join(p.Responses, requestID+"_response.json")
}

// ArchiveDir returns the archive directory for a completed request.
func (p Paths) ArchiveDir(requestID string) string {
	return filepath.Join(p.Archive, requestID)
}

// CheckpointDir returns the directory holding one checkpoint's manifest
// and backups.
func (p Paths) CheckpointDir(checkpointID string) string {
	return filepath.Join(p.Checkpoints, checkpointID)
}

// ErrorLog returns the structured error log path.
func (p Paths) ErrorLog() string {
	return filepath.Join(p.Logs, "errors.jsonl")
}

// RegistryFile returns the path of the seen-projects registry document.
func (p Paths) RegistryFile() string {
	return filepath.Join(p.Root, "projects.yaml")
}
