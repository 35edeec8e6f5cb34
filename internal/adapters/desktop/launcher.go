// Package desktop launches the desktop application that answers help
// requests and observes its process state.
package desktop

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
	"github.com/kazumasakawahara/claude-bridge/internal/poll"
)

const (
	// openCommandTimeout bounds the open command itself. App readiness is
	// confirmed separately: the command returning success only means the
	// launch signal was accepted.
	openCommandTimeout = 10 * time.Second
	readyPollInterval  = 500 * time.Millisecond
	retryPause         = time.Second
)

// Launcher implements core.ProcessLauncher using the macOS open command
// and a process-table scan.
type Launcher struct {
	cfg    *config.Automation
	logger *logging.Logger
	out    io.Writer

	// Overridable seams for tests.
	listNames     func() ([]string, error)
	runOpen       func(ctx context.Context, app string) error
	sleep         func(d time.Duration)
	readyInterval time.Duration
	readyTimeout  time.Duration
}

// NewLauncher creates a launcher for the configured desktop application.
func NewLauncher(cfg *config.Automation, logger *logging.Logger) *Launcher {
	return &Launcher{
		cfg:           cfg,
		logger:        logger.WithComponent("launcher"),
		out:           os.Stdout,
		listNames:     listProcessNames,
		runOpen:       runOpenCommand,
		sleep:         time.Sleep,
		readyInterval: readyPollInterval,
		readyTimeout:  cfg.LaunchTimeoutDuration(),
	}
}

// listProcessNames snapshots the names in the OS process table. Processes
// whose name cannot be read (already gone, permission) are skipped.
func listProcessNames() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func runOpenCommand(ctx context.Context, app string) error {
	return exec.CommandContext(ctx, "open", "-a", app).Run()
}

// IsRunning reports whether the app appears in the process table under its
// exact name. Any scan error reads as not running.
func (l *Launcher) IsRunning() bool {
	names, err := l.listNames()
	if err != nil {
		l.logger.Debug("process scan failed", "error", err)
		return false
	}
	for _, name := range names {
		if name == l.cfg.DesktopAppName {
			return true
		}
	}
	return false
}

// LaunchOnce issues the open command. It reports whether the command
// succeeded, not whether the app is ready.
func (l *Launcher) LaunchOnce() bool {
	ctx, cancel := context.WithTimeout(context.Background(), openCommandTimeout)
	defer cancel()

	if err := l.runOpen(ctx, l.cfg.DesktopAppName); err != nil {
		l.logger.Debug("open command failed", "app", l.cfg.DesktopAppName, "error", err)
		return false
	}
	return true
}

// WaitUntilReady polls the process table until the app shows up or the
// launch timeout elapses.
func (l *Launcher) WaitUntilReady() bool {
	return poll.Until(l.readyInterval, l.readyTimeout, nil, l.IsRunning) == poll.Ready
}

// LaunchWithRetry drives launch attempts until the app is ready. Each
// attempt issues the open command and, when that succeeds, waits for
// readiness; the first ready observation wins. Between attempts it pauses
// one second. Exhausting all attempts reports failure.
func (l *Launcher) LaunchWithRetry() bool {
	attempts := l.cfg.MaxRetries
	for attempt := 1; attempt <= attempts; attempt++ {
		if l.LaunchOnce() {
			if l.WaitUntilReady() {
				l.logger.Info("desktop app ready",
					"app", l.cfg.DesktopAppName, "attempt", attempt)
				return true
			}
			l.logger.Warn("desktop app did not become ready",
				"app", l.cfg.DesktopAppName,
				"attempt", attempt,
				"timeout", l.readyTimeout)
		} else {
			l.logger.Warn("launch command failed",
				"app", l.cfg.DesktopAppName, "attempt", attempt)
		}
		if attempt < attempts {
			l.sleep(retryPause)
		}
	}
	return false
}

// ShowManualFallbackMessage prints instructions for starting the app by
// hand. Presentation only, no state change.
func (l *Launcher) ShowManualFallbackMessage() {
	app := l.cfg.DesktopAppName
	fmt.Fprintf(l.out, "\nCould not launch %s automatically.\n", app)
	fmt.Fprintf(l.out, "Please start it manually:\n")
	fmt.Fprintf(l.out, "  1. Open %s yourself\n", app)
	fmt.Fprintf(l.out, "  2. Paste the request into the conversation\n")
	fmt.Fprintf(l.out, "  3. Save the reply as the response file when done\n\n")
}
