package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
)

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "req_20250314_120000_response.json")
	w := NewWatcher(path, config.DefaultAutomation(), logging.NewNop())
	w.interval = 5 * time.Millisecond
	w.timeout = 250 * time.Millisecond
	return w, path
}

const validResponse = `{"analysis": {"root_cause": "nil map write"}}`

func TestWatcher_CheckForResponse(t *testing.T) {
	w, path := newTestWatcher(t)

	if w.CheckForResponse() {
		t.Error("CheckForResponse() = true before the file exists")
	}
	if err := os.WriteFile(path, []byte(validResponse), 0o644); err != nil {
		t.Fatal(err)
	}
	if !w.CheckForResponse() {
		t.Error("CheckForResponse() = false after the file exists")
	}
}

func TestWatcher_WaitForResponse_FileAppears(t *testing.T) {
	w, path := newTestWatcher(t)

	go func() {
		time.Sleep(30 * time.Millisecond)
		os.WriteFile(path, []byte(validResponse), 0o644)
	}()

	if !w.WaitForResponse(context.Background()) {
		t.Fatal("WaitForResponse() = false, want true once the file appears")
	}
}

func TestWatcher_WaitForResponse_TimesOutNearDeadline(t *testing.T) {
	w, _ := newTestWatcher(t)
	w.interval = 50 * time.Millisecond
	w.timeout = time.Second

	start := time.Now()
	if w.WaitForResponse(context.Background()) {
		t.Fatal("WaitForResponse() = true, want false when no file appears")
	}
	elapsed := time.Since(start)

	if elapsed < 900*time.Millisecond {
		t.Errorf("returned after %v, want to hold out for about 1s", elapsed)
	}
	if elapsed > 1500*time.Millisecond {
		t.Errorf("returned after %v, want about 1s plus at most one interval", elapsed)
	}
}

func TestWatcher_WaitForResponse_CancelledBeforeWait(t *testing.T) {
	w, _ := newTestWatcher(t)
	w.timeout = 5 * time.Second

	w.Cancel()
	w.Cancel() // idempotent

	start := time.Now()
	if w.WaitForResponse(context.Background()) {
		t.Fatal("WaitForResponse() = true after Cancel()")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled wait took %v, want a prompt return", elapsed)
	}
}

func TestWatcher_WaitForResponse_ContextCancels(t *testing.T) {
	w, _ := newTestWatcher(t)
	w.timeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if w.WaitForResponse(ctx) {
		t.Fatal("WaitForResponse() = true, want false on context cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled wait took %v, want a prompt return", elapsed)
	}
}

func TestWatcher_ReadResponse_FillsRequestID(t *testing.T) {
	w, path := newTestWatcher(t)
	if err := os.WriteFile(path, []byte(validResponse), 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err := w.ReadResponse(3)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if resp.RequestID != "req_20250314_120000" {
		t.Errorf("RequestID = %q, want it recovered from the file name", resp.RequestID)
	}
	if resp.RootCause() != "nil map write" {
		t.Errorf("RootCause() = %q", resp.RootCause())
	}
}

func TestWatcher_ReadResponse_MissingFileNotRetried(t *testing.T) {
	w, _ := newTestWatcher(t)

	pauses := 0
	w.pause = func(time.Duration) { pauses++ }

	_, err := w.ReadResponse(3)
	var domain *core.DomainError
	if !errors.As(err, &domain) || domain.Category != core.ErrCatNotFound {
		t.Fatalf("ReadResponse() error = %v, want not_found", err)
	}
	if pauses != 0 {
		t.Errorf("paused %d times, want 0 for a missing file", pauses)
	}
}

func TestWatcher_ReadResponse_RetriesHalfWrittenFile(t *testing.T) {
	w, path := newTestWatcher(t)
	if err := os.WriteFile(path, []byte(`{"analysis": {`), 0o644); err != nil {
		t.Fatal(err)
	}

	// The writer finishes the file during the pause between attempts.
	pauses := 0
	w.pause = func(time.Duration) {
		pauses++
		os.WriteFile(path, []byte(validResponse), 0o644)
	}

	resp, err := w.ReadResponse(3)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if resp.RootCause() != "nil map write" {
		t.Errorf("RootCause() = %q", resp.RootCause())
	}
	if pauses != 1 {
		t.Errorf("paused %d times, want 1", pauses)
	}
}

func TestWatcher_ReadResponse_GivesUpOnCorruptFile(t *testing.T) {
	w, path := newTestWatcher(t)
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	pauses := 0
	w.pause = func(time.Duration) { pauses++ }

	_, err := w.ReadResponse(3)
	var domain *core.DomainError
	if !errors.As(err, &domain) || domain.Category != core.ErrCatParse {
		t.Fatalf("ReadResponse() error = %v, want parse failure", err)
	}
	if pauses != 2 {
		t.Errorf("paused %d times, want 2", pauses)
	}
}
