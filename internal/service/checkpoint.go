package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kazumasakawahara/claude-bridge/internal/adapters/state"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/fsutil"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

const (
	checkpointIDPrefix = "checkpoint_"
	manifestName       = "manifest.json"
)

// CheckpointManager snapshots files before proposals touch them, so a failed
// or regretted apply can be rolled back to the exact prior bytes.
type CheckpointManager struct {
	paths  workspace.Paths
	logger *logging.Logger
	now    func() time.Time
}

// CheckpointOption configures a CheckpointManager.
type CheckpointOption func(*CheckpointManager)

// WithCheckpointClock overrides the time source, used by tests to pin
// checkpoint IDs.
func WithCheckpointClock(now func() time.Time) CheckpointOption {
	return func(m *CheckpointManager) { m.now = now }
}

// NewCheckpointManager creates a manager writing under paths.Checkpoints.
func NewCheckpointManager(paths workspace.Paths, logger *logging.Logger, opts ...CheckpointOption) *CheckpointManager {
	m := &CheckpointManager{
		paths:  paths,
		logger: logger.WithComponent("checkpoint"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create copies the given files into a fresh checkpoint directory and writes
// a manifest describing them. Files that do not exist are skipped silently;
// a file that exists but cannot be copied is skipped with a warning. Only a
// failure to create the directory or persist the manifest fails the call.
func (m *CheckpointManager) Create(files []string, description string) (string, error) {
	id := checkpointIDPrefix + m.now().Format("20060102_150405")
	dir := m.paths.CheckpointDir(id)

	if err := fsutil.EnsureDir(dir); err != nil {
		return "", core.ErrIO(core.CodeFileWrite,
			fmt.Sprintf("cannot create checkpoint directory %s", dir)).WithCause(err)
	}

	cp := core.Checkpoint{
		CheckpointID: id,
		Timestamp:    m.now().UTC().Format(time.RFC3339),
		Description:  description,
		Files:        []core.CheckpointFile{},
	}

	for _, path := range files {
		if !fsutil.Exists(path) {
			m.logger.Debug("file does not exist yet, nothing to snapshot", "path", path)
			continue
		}
		backupName := filepath.Base(path)
		if err := fsutil.CopyFile(path, filepath.Join(dir, backupName)); err != nil {
			m.logger.Warn("could not copy file into checkpoint", "path", path, "error", err)
			continue
		}
		cp.Files = append(cp.Files, core.CheckpointFile{
			OriginalPath: path,
			BackupName:   backupName,
		})
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", core.ErrIO(core.CodeFileWrite, "cannot encode checkpoint manifest").WithCause(err)
	}
	if err := state.WriteFileAtomic(filepath.Join(dir, manifestName), data, 0o644); err != nil {
		return "", core.ErrIO(core.CodeFileWrite,
			fmt.Sprintf("cannot write checkpoint manifest for %s", id)).WithCause(err)
	}

	m.logger.Info("checkpoint created",
		"checkpoint_id", id,
		"files", len(cp.Files),
		"description", description)
	return id, nil
}

// Rollback restores every file recorded in the checkpoint manifest and
// removes the files listed in newFiles (files the apply created that did not
// exist before). Individual restore or delete failures are logged and the
// remaining entries still run; only a missing or unreadable manifest fails
// the call.
func (m *CheckpointManager) Rollback(id string, newFiles []string) error {
	cp, err := m.loadManifest(id)
	if err != nil {
		return err
	}

	dir := m.paths.CheckpointDir(id)
	restored := 0
	for _, f := range cp.Files {
		backup := filepath.Join(dir, f.BackupName)
		if !fsutil.Exists(backup) {
			m.logger.Warn("backup missing, leaving original untouched",
				"path", f.OriginalPath, "backup", backup)
			continue
		}
		if err := fsutil.CopyFile(backup, f.OriginalPath); err != nil {
			m.logger.Warn("could not restore file", "path", f.OriginalPath, "error", err)
			continue
		}
		restored++
	}

	removed := 0
	for _, path := range newFiles {
		if !fsutil.Exists(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			m.logger.Warn("could not remove file created by apply", "path", path, "error", err)
			continue
		}
		removed++
	}

	m.logger.Info("rollback finished",
		"checkpoint_id", id,
		"restored", restored,
		"removed", removed)
	return nil
}

// List returns all checkpoints on disk, newest first. Directories whose
// manifest is missing or corrupt are skipped.
func (m *CheckpointManager) List() ([]core.Checkpoint, error) {
	entries, err := os.ReadDir(m.paths.Checkpoints)
	if err != nil {
		if os.IsNotExist(err) {
			return []core.Checkpoint{}, nil
		}
		return nil, core.ErrIO(core.CodeFileRead, "cannot list checkpoints").WithCause(err)
	}

	checkpoints := make([]core.Checkpoint, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), checkpointIDPrefix) {
			continue
		}
		cp, err := m.loadManifest(entry.Name())
		if err != nil {
			m.logger.Debug("skipping checkpoint with unreadable manifest",
				"checkpoint_id", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *cp)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].CheckpointID > checkpoints[j].CheckpointID
	})
	return checkpoints, nil
}

func (m *CheckpointManager) loadManifest(id string) (*core.Checkpoint, error) {
	path := filepath.Join(m.paths.CheckpointDir(id), manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound(core.CodeCheckpointNotFound, "checkpoint", id)
		}
		return nil, core.ErrIO(core.CodeFileRead,
			fmt.Sprintf("cannot read checkpoint manifest for %s", id)).WithCause(err)
	}

	var cp core.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		derr := &core.DomainError{
			Category: core.ErrCatParse,
			Code:     core.CodeManifestCorrupted,
			Message:  fmt.Sprintf("checkpoint manifest for %s is corrupted", id),
		}
		return nil, derr.WithCause(err)
	}
	return &cp, nil
}
