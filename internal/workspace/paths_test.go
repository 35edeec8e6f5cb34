package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolve_ExplicitRoot(t *testing.T) {
	p, err := Resolve("/srv/bridge")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if p.Root != "/srv/bridge" {
		t.Errorf("Root = %q", p.Root)
	}
	if p.Requests != filepath.Join("/srv/bridge", "help-requests") {
		t.Errorf("Requests = %q", p.Requests)
	}
	if p.Responses != filepath.Join("/srv/bridge", "help-responses") {
		t.Errorf("Responses = %q", p.Responses)
	}
	if p.Archive != filepath.Join("/srv/bridge", "archive") {
		t.Errorf("Archive = %q", p.Archive)
	}
	if p.Checkpoints != filepath.Join("/srv/bridge", "checkpoints") {
		t.Errorf("Checkpoints = %q", p.Checkpoints)
	}
}

func TestResolve_DefaultUnderHome(t *testing.T) {
	p, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if !strings.HasPrefix(p.Root, home) {
		t.Errorf("default root %q should live under home %q", p.Root, home)
	}
	if !strings.HasSuffix(p.Root, filepath.FromSlash("AI-Workspace/claude-bridge")) {
		t.Errorf("default root %q should end with the conventional layout", p.Root)
	}
}

func TestEnsureAll(t *testing.T) {
	p, err := Resolve(filepath.Join(t.TempDir(), "ws"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if err := p.EnsureAll(); err != nil {
		t.Fatalf("EnsureAll error: %v", err)
	}

	for _, dir := range []string{p.Requests, p.Responses, p.Archive, p.Checkpoints, p.Backups, p.Logs} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %q", dir)
		}
	}

	// Idempotent.
	if err := p.EnsureAll(); err != nil {
		t.Fatalf("EnsureAll repeat error: %v", err)
	}
}

func TestDocumentPaths(t *testing.T) {
	p, _ := Resolve("/ws")
	id := "req_20250314_092653"

	if got := p.RequestFile(id); got != "/ws/help-requests/req_20250314_092653.json" {
		t.Errorf("RequestFile = %q", got)
	}
	if got := p.RequestDir(id); got != "/ws/help-requests/req_20250314_092653" {
		t.Errorf("RequestDir = %q", got)
	}
	if got := p.ResponseFile(id); got != "/ws/help-responses/req_20250314_092653_response.json" {
		t.Errorf("ResponseFile = %q", got)
	}
	if got := p.ArchiveDir(id); got != "/ws/archive/req_20250314_092653" {
		t.Errorf("ArchiveDir = %q", got)
	}
	if got := p.CheckpointDir("cp_20250314_092653"); got != "/ws/checkpoints/cp_20250314_092653" {
		t.Errorf("CheckpointDir = %q", got)
	}
	if got := p.AutomationConfig(); got != "/ws/automation_config.json" {
		t.Errorf("AutomationConfig = %q", got)
	}
	if got := p.ErrorLog(); got != "/ws/logs/errors.jsonl" {
		t.Errorf("ErrorLog = %q", got)
	}
}
