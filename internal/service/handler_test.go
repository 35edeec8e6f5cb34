package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kazumasakawahara/claude-bridge/internal/adapters/state"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
)

func TestHandler_CriticalBlocksContinuation(t *testing.T) {
	h := NewHandler(logging.NewNop(), nil)

	if h.Handle("req_1", "system_crash", errors.New("heap corrupted")) {
		t.Error("Handle() = true for a critical failure, want false")
	}
	if !h.Handle("req_1", "network", core.ErrNetwork("connection refused")) {
		t.Error("Handle() = false for a recoverable failure, want true")
	}
	if !h.Handle("", "json_parse", core.ErrParse("bad document")) {
		t.Error("Handle() = false for a warning, want true")
	}
}

func TestHandler_StrictReturnsOnlyCritical(t *testing.T) {
	h := NewHandler(logging.NewNop(), nil)

	boom := core.ErrSystem("out of memory")
	if err := h.HandleStrict("req_1", "runtime", boom); !errors.Is(err, boom) {
		t.Errorf("HandleStrict() = %v, want the critical error back", err)
	}
	if err := h.HandleStrict("req_1", "network", core.ErrTimeout("slow")); err != nil {
		t.Errorf("HandleStrict() = %v for a recoverable failure, want nil", err)
	}
}

func TestHandler_RecordsToErrorLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "errors.jsonl")
	errorLog := state.NewErrorLog(logPath)
	h := NewHandler(logging.NewNop(), errorLog)

	h.Handle("req_20250314_120000", "network", core.ErrNetwork("connection refused"))
	h.Handle("", "validation", core.ErrValidation(core.CodeEmptyTitle, "title required"))

	records, err := errorLog.Recent(time.Hour)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Recent() returned %d records, want 2", len(records))
	}
	if records[0].RequestID != "req_20250314_120000" {
		t.Errorf("RequestID = %q", records[0].RequestID)
	}
	if records[0].Severity != string(core.SeverityRecoverable) {
		t.Errorf("Severity = %q, want recoverable", records[0].Severity)
	}
	if records[1].Severity != string(core.SeverityWarning) {
		t.Errorf("Severity = %q, want warning", records[1].Severity)
	}
}
