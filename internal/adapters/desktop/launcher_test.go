package desktop

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
)

func newTestLauncher() *Launcher {
	l := NewLauncher(config.DefaultAutomation(), logging.NewNop())
	l.readyInterval = time.Millisecond
	l.readyTimeout = 50 * time.Millisecond
	l.sleep = func(time.Duration) {}
	return l
}

func TestLauncher_IsRunning(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		err   error
		want  bool
	}{
		{"exact name present", []string{"Finder", "Claude", "Safari"}, nil, true},
		{"absent", []string{"Finder", "Safari"}, nil, false},
		{"substring does not count", []string{"ClaudeHelper", "Claude Helper (GPU)"}, nil, false},
		{"scan error reads as not running", nil, errors.New("proc table unavailable"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLauncher()
			l.listNames = func() ([]string, error) { return tt.names, tt.err }
			if got := l.IsRunning(); got != tt.want {
				t.Errorf("IsRunning() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLauncher_LaunchOnce(t *testing.T) {
	l := newTestLauncher()

	var gotApp string
	l.runOpen = func(_ context.Context, app string) error {
		gotApp = app
		return nil
	}
	if !l.LaunchOnce() {
		t.Fatalf("expected launch success")
	}
	if gotApp != "Claude" {
		t.Errorf("expected open for Claude, got %q", gotApp)
	}

	l.runOpen = func(context.Context, string) error { return errors.New("command not found") }
	if l.LaunchOnce() {
		t.Fatalf("expected launch failure")
	}
}

func TestLauncher_WaitUntilReady(t *testing.T) {
	l := newTestLauncher()

	calls := 0
	l.listNames = func() ([]string, error) {
		calls++
		if calls >= 3 {
			return []string{"Claude"}, nil
		}
		return []string{}, nil
	}
	if !l.WaitUntilReady() {
		t.Fatalf("expected readiness once the process appears")
	}
	if calls < 3 {
		t.Errorf("expected at least 3 polls, got %d", calls)
	}
}

func TestLauncher_WaitUntilReady_Timeout(t *testing.T) {
	l := newTestLauncher()
	l.readyTimeout = 10 * time.Millisecond
	l.listNames = func() ([]string, error) { return []string{}, nil }

	if l.WaitUntilReady() {
		t.Fatalf("expected timeout when the process never appears")
	}
}

func TestLauncher_LaunchWithRetry_FirstAttempt(t *testing.T) {
	l := newTestLauncher()

	launches := 0
	l.runOpen = func(context.Context, string) error {
		launches++
		return nil
	}
	l.listNames = func() ([]string, error) { return []string{"Claude"}, nil }

	slept := 0
	l.sleep = func(time.Duration) { slept++ }

	if !l.LaunchWithRetry() {
		t.Fatalf("expected success")
	}
	if launches != 1 {
		t.Errorf("expected a single launch attempt, got %d", launches)
	}
	if slept != 0 {
		t.Errorf("success must not pause, slept %d times", slept)
	}
}

func TestLauncher_LaunchWithRetry_SecondAttempt(t *testing.T) {
	l := newTestLauncher()

	launches := 0
	l.runOpen = func(context.Context, string) error {
		launches++
		if launches == 1 {
			return errors.New("busy")
		}
		return nil
	}
	l.listNames = func() ([]string, error) { return []string{"Claude"}, nil }

	if !l.LaunchWithRetry() {
		t.Fatalf("expected success on second attempt")
	}
	if launches != 2 {
		t.Errorf("expected 2 launch attempts, got %d", launches)
	}
}

func TestLauncher_LaunchWithRetry_Exhausted(t *testing.T) {
	l := newTestLauncher()
	l.cfg.MaxRetries = 3

	launches := 0
	l.runOpen = func(context.Context, string) error {
		launches++
		return errors.New("command not found")
	}

	var pauses []time.Duration
	l.sleep = func(d time.Duration) { pauses = append(pauses, d) }

	if l.LaunchWithRetry() {
		t.Fatalf("expected failure after exhausting attempts")
	}
	if launches != 3 {
		t.Errorf("expected 3 launch attempts, got %d", launches)
	}
	// Pause lands between attempts, never after the last one.
	if len(pauses) != 2 {
		t.Fatalf("expected 2 pauses, got %d", len(pauses))
	}
	for _, d := range pauses {
		if d != time.Second {
			t.Errorf("expected exactly 1s pause, got %v", d)
		}
	}
}

func TestLauncher_LaunchWithRetry_LaunchOKButNeverReady(t *testing.T) {
	l := newTestLauncher()
	l.cfg.MaxRetries = 2
	l.readyTimeout = 5 * time.Millisecond

	launches := 0
	l.runOpen = func(context.Context, string) error {
		launches++
		return nil
	}
	l.listNames = func() ([]string, error) { return []string{}, nil }

	if l.LaunchWithRetry() {
		t.Fatalf("expected failure when the app never becomes ready")
	}
	if launches != 2 {
		t.Errorf("ready timeout must still consume attempts, got %d launches", launches)
	}
}

func TestLauncher_ShowManualFallbackMessage(t *testing.T) {
	l := newTestLauncher()
	var buf bytes.Buffer
	l.out = &buf

	l.ShowManualFallbackMessage()

	out := buf.String()
	if !strings.Contains(out, "Claude") {
		t.Errorf("message should name the app, got %q", out)
	}
	if !strings.Contains(out, "manually") {
		t.Errorf("message should point at the manual path, got %q", out)
	}
}
