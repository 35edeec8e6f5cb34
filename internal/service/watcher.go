package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
	"github.com/kazumasakawahara/claude-bridge/internal/poll"
)

// readRetryPause separates read attempts on a response file that exists but
// will not parse yet, tolerating a writer still flushing it.
const readRetryPause = time.Second

// Watcher implements core.ResponseWatcher: it polls one response file path
// until the document appears, a deadline passes, or it is cancelled.
// Cancellation is cooperative and takes effect within one polling interval.
type Watcher struct {
	path     string
	interval time.Duration
	timeout  time.Duration
	logger   *logging.Logger

	cancelOnce sync.Once
	cancelled  chan struct{}

	pause func(d time.Duration)
}

// NewWatcher creates a watcher bound to the response file path, with timing
// from the automation config.
func NewWatcher(path string, cfg *config.Automation, logger *logging.Logger) *Watcher {
	return &Watcher{
		path:      path,
		interval:  cfg.PollingIntervalDuration(),
		timeout:   cfg.ResponseTimeoutDuration(),
		logger:    logger.WithComponent("watcher"),
		cancelled: make(chan struct{}),
		pause:     time.Sleep,
	}
}

// CheckForResponse reports whether the response document exists right now.
func (w *Watcher) CheckForResponse() bool {
	_, err := os.Stat(w.path)
	return err == nil
}

// WaitForResponse blocks until the response document appears, reporting
// false on timeout or cancellation. Context cancellation counts as a
// cancel; the flag is consulted before every existence check.
func (w *Watcher) WaitForResponse(ctx context.Context) bool {
	stop := context.AfterFunc(ctx, w.Cancel)
	defer stop()

	outcome := poll.Until(w.interval, w.timeout, w.cancelled, w.CheckForResponse)
	switch outcome {
	case poll.Ready:
		w.logger.Info("response arrived", "path", w.path)
		return true
	case poll.Stopped:
		w.logger.Info("response wait cancelled", "path", w.path)
		return false
	default:
		w.logger.Warn("response wait timed out", "path", w.path, "timeout", w.timeout)
		return false
	}
}

// Cancel requests the current and any future wait to stop. Idempotent, safe
// from another goroutine.
func (w *Watcher) Cancel() {
	w.cancelOnce.Do(func() { close(w.cancelled) })
}

// ReadResponse reads and decodes the response document. Read and parse
// failures are retried up to maxRetries-1 more times with a pause between
// attempts, for writers still flushing the file. A missing file is not
// retried: absence is not a transient condition.
func (w *Watcher) ReadResponse(maxRetries int) (*core.Response, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		data, err := os.ReadFile(w.path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, core.ErrNotFound(core.CodeResponseNotFound, "response", w.path)
			}
			lastErr = core.ErrIO(core.CodeFileRead, fmt.Sprintf("reading response %s", w.path)).WithCause(err)
		} else {
			var resp core.Response
			jErr := json.Unmarshal(data, &resp)
			if jErr == nil {
				if resp.RequestID == "" {
					resp.RequestID = requestIDFromPath(w.path)
				}
				return &resp, nil
			}
			lastErr = core.ErrParse(fmt.Sprintf("decoding response %s", w.path)).WithCause(jErr)
		}
		if attempt < maxRetries {
			w.logger.Debug("response not readable yet, retrying",
				"path", w.path, "attempt", attempt, "error", lastErr)
			w.pause(readRetryPause)
		}
	}
	return nil, lastErr
}

// requestIDFromPath recovers the request id from a response file name of
// the form <id>_response.json. Unknown shapes yield the empty string.
func requestIDFromPath(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, "_response.json") {
		return ""
	}
	return strings.TrimSuffix(base, "_response.json")
}
