package diagnostics

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
)

type stubLauncher struct {
	running bool
}

func (s *stubLauncher) IsRunning() bool            { return s.running }
func (s *stubLauncher) LaunchWithRetry() bool      { return false }
func (s *stubLauncher) ShowManualFallbackMessage() {}

func findCheck(t *testing.T, results []CheckResult, name string) CheckResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no check named %q in %v", name, results)
	return CheckResult{}
}

func TestDoctor_HealthyWorkspace(t *testing.T) {
	paths := newTestPaths(t)
	d := NewDoctor(paths, config.DefaultAutomation(), &stubLauncher{running: true})
	d.lookPath = func(string) (string, error) { return "/usr/bin/open", nil }

	results := d.Run()
	if len(results) != 5 {
		t.Fatalf("Run() returned %d checks, want 5", len(results))
	}
	if !Healthy(results) {
		t.Errorf("Healthy() = false, results: %+v", results)
	}

	app := findCheck(t, results, "desktop app")
	if !strings.Contains(app.Detail, "is running") {
		t.Errorf("desktop app detail = %q", app.Detail)
	}
}

func TestDoctor_ReportsMissingDirectories(t *testing.T) {
	paths := newTestPaths(t)
	if err := os.RemoveAll(paths.Checkpoints); err != nil {
		t.Fatal(err)
	}

	d := NewDoctor(paths, config.DefaultAutomation(), nil)
	d.lookPath = func(string) (string, error) { return "/usr/bin/open", nil }

	results := d.Run()
	dirs := findCheck(t, results, "workspace directories")
	if dirs.OK {
		t.Error("directories check passed with checkpoints/ missing")
	}
	if !strings.Contains(dirs.Detail, "checkpoints") || !strings.Contains(dirs.Detail, "bridge init") {
		t.Errorf("Detail = %q, want the missing directory and the fix", dirs.Detail)
	}
	if Healthy(results) {
		t.Error("Healthy() = true with a failed check")
	}
}

func TestDoctor_ReportsMissingLaunchCommand(t *testing.T) {
	paths := newTestPaths(t)
	d := NewDoctor(paths, config.DefaultAutomation(), nil)
	d.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	results := d.Run()
	launch := findCheck(t, results, "launch command")
	if launch.OK {
		t.Error("launch command check passed without `open`")
	}
	if !strings.Contains(launch.Detail, "manual mode") {
		t.Errorf("Detail = %q, want the manual-mode consequence", launch.Detail)
	}
}

func TestDoctor_InvalidConfig(t *testing.T) {
	paths := newTestPaths(t)
	cfg := config.DefaultAutomation()
	cfg.MaxRetries = 0

	d := NewDoctor(paths, cfg, nil)
	d.lookPath = func(string) (string, error) { return "/usr/bin/open", nil }

	cfgCheck := findCheck(t, d.Run(), "automation config")
	if cfgCheck.OK {
		t.Error("config check passed with max_retries = 0")
	}
}

func TestDoctor_StoppedDesktopAppIsNotAFailure(t *testing.T) {
	paths := newTestPaths(t)
	d := NewDoctor(paths, config.DefaultAutomation(), &stubLauncher{running: false})
	d.lookPath = func(string) (string, error) { return "/usr/bin/open", nil }

	app := findCheck(t, d.Run(), "desktop app")
	if !app.OK {
		t.Error("a stopped desktop app must not fail doctor, it can be launched")
	}
	if !strings.Contains(app.Detail, "launched on demand") {
		t.Errorf("Detail = %q", app.Detail)
	}
}
