package state

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
)

// ErrorRecord is one persisted error event.
type ErrorRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
	Context   string `json:"context"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Category  string `json:"category,omitempty"`
}

// ErrorLog appends structured error records to a JSONL file. Appends are
// serialized so concurrent handlers never interleave lines.
type ErrorLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// ErrorLogOption configures the error log.
type ErrorLogOption func(*ErrorLog)

// WithErrorClock overrides the time source used for record timestamps.
func WithErrorClock(now func() time.Time) ErrorLogOption {
	return func(l *ErrorLog) {
		l.now = now
	}
}

// NewErrorLog creates an error log writing to the given file.
func NewErrorLog(path string, opts ...ErrorLogOption) *ErrorLog {
	l := &ErrorLog{
		path: path,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records one handled error and returns the persisted record.
func (l *ErrorLog) Append(requestID, opContext string, err error) (*ErrorRecord, error) {
	rec := &ErrorRecord{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC().Format(time.RFC3339),
		RequestID: requestID,
		Context:   opContext,
		Message:   err.Error(),
		Severity:  string(core.Classify(err, opContext)),
		Category:  string(core.GetCategory(err)),
	}
	line, merr := json.Marshal(rec)
	if merr != nil {
		return nil, fmt.Errorf("encoding error record: %w", merr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if mkErr := os.MkdirAll(filepath.Dir(l.path), 0o750); mkErr != nil {
		return nil, core.ErrIO(core.CodeFileWrite, "creating log directory").WithCause(mkErr)
	}
	f, oErr := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if oErr != nil {
		return nil, core.ErrIO(core.CodeFileWrite, "opening error log").WithCause(oErr)
	}
	defer f.Close()
	if _, wErr := f.Write(append(line, '\n')); wErr != nil {
		return nil, core.ErrIO(core.CodeFileWrite, "appending error record").WithCause(wErr)
	}
	return rec, nil
}

// Recent returns the records whose timestamp falls within the window,
// oldest first. A missing log file means no records. Corrupt lines are
// skipped.
func (l *ErrorLog) Recent(window time.Duration) ([]ErrorRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []ErrorRecord{}, nil
		}
		return nil, core.ErrIO(core.CodeFileRead, "reading error log").WithCause(err)
	}
	defer f.Close()

	cutoff := l.now().UTC().Add(-window)
	records := []ErrorRecord{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec ErrorRecord
		if jErr := json.Unmarshal(scanner.Bytes(), &rec); jErr != nil {
			continue
		}
		ts, tErr := time.Parse(time.RFC3339, rec.Timestamp)
		if tErr != nil {
			continue
		}
		if ts.Before(cutoff) {
			continue
		}
		records = append(records, rec)
	}
	if sErr := scanner.Err(); sErr != nil {
		return nil, core.ErrIO(core.CodeFileRead, "scanning error log").WithCause(sErr)
	}
	return records, nil
}

// CountBySeverity aggregates the records in the window per severity tier.
func (l *ErrorLog) CountBySeverity(window time.Duration) (map[string]int, error) {
	records, err := l.Recent(window)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, 3)
	for _, rec := range records {
		counts[rec.Severity]++
	}
	return counts, nil
}
