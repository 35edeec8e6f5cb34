package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/fsutil"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

// CheckResult is the outcome of one environment check.
type CheckResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Doctor verifies that the environment can run an automated workflow.
type Doctor struct {
	paths    workspace.Paths
	cfg      *config.Automation
	launcher core.ProcessLauncher

	lookPath func(string) (string, error)
}

// NewDoctor builds a doctor for the given environment. launcher may be nil
// when only filesystem checks are wanted.
func NewDoctor(paths workspace.Paths, cfg *config.Automation, launcher core.ProcessLauncher) *Doctor {
	return &Doctor{
		paths:    paths,
		cfg:      cfg,
		launcher: launcher,
		lookPath: exec.LookPath,
	}
}

// Run executes every check and returns the results in display order.
func (d *Doctor) Run() []CheckResult {
	results := []CheckResult{
		d.checkDirectories(),
		d.checkWritable(),
		d.checkConfig(),
		d.checkLaunchCommand(),
	}
	if d.launcher != nil {
		results = append(results, d.checkDesktopApp())
	}
	return results
}

// Healthy reports whether every check in results passed.
func Healthy(results []CheckResult) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}

func (d *Doctor) checkDirectories() CheckResult {
	missing := []string{}
	for _, dir := range []string{
		d.paths.Requests, d.paths.Responses, d.paths.Archive,
		d.paths.Checkpoints, d.paths.Backups, d.paths.Logs,
	} {
		if !fsutil.Exists(dir) {
			missing = append(missing, filepath.Base(dir))
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Name:   "workspace directories",
			Detail: fmt.Sprintf("missing %v, run `bridge init`", missing),
		}
	}
	return CheckResult{Name: "workspace directories", OK: true}
}

func (d *Doctor) checkWritable() CheckResult {
	probe := filepath.Join(d.paths.Root, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return CheckResult{
			Name:   "workspace writable",
			Detail: err.Error(),
		}
	}
	_ = os.Remove(probe)
	return CheckResult{Name: "workspace writable", OK: true}
}

func (d *Doctor) checkConfig() CheckResult {
	if d.cfg == nil {
		return CheckResult{
			Name:   "automation config",
			Detail: "no configuration loaded",
		}
	}
	if err := config.NewValidator().ValidateAutomation(d.cfg); err != nil {
		return CheckResult{
			Name:   "automation config",
			Detail: err.Error(),
		}
	}
	return CheckResult{
		Name: "automation config",
		OK:   true,
		Detail: fmt.Sprintf("app=%s launch_timeout=%ds response_timeout=%ds",
			d.cfg.DesktopAppName, d.cfg.LaunchTimeout, d.cfg.ResponseTimeout),
	}
}

func (d *Doctor) checkLaunchCommand() CheckResult {
	path, err := d.lookPath("open")
	if err != nil {
		return CheckResult{
			Name:   "launch command",
			Detail: "`open` not on PATH, automatic launch will fall back to manual mode",
		}
	}
	return CheckResult{Name: "launch command", OK: true, Detail: path}
}

func (d *Doctor) checkDesktopApp() CheckResult {
	name := ""
	if d.cfg != nil {
		name = d.cfg.DesktopAppName
	}
	if d.launcher.IsRunning() {
		return CheckResult{
			Name:   "desktop app",
			OK:     true,
			Detail: fmt.Sprintf("%s is running", name),
		}
	}
	return CheckResult{
		Name: "desktop app",
		// Not running is not a failure, the workflow can launch it.
		OK:     true,
		Detail: fmt.Sprintf("%s is not running, it will be launched on demand", name),
	}
}
