package service

import (
	"github.com/kazumasakawahara/claude-bridge/internal/adapters/state"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
)

// Handler routes handled failures: classify the severity, log at the
// matching level, and append a record to the persistent error log. Raw
// faults never leave the orchestration layer through the handler; callers
// get a can-continue verdict instead.
type Handler struct {
	logger   *logging.Logger
	errorLog *state.ErrorLog
}

// NewHandler creates an error handler. A nil error log disables recording.
func NewHandler(logger *logging.Logger, errorLog *state.ErrorLog) *Handler {
	return &Handler{
		logger:   logger.WithComponent("errors"),
		errorLog: errorLog,
	}
}

// Handle processes one failure and reports whether the caller can continue.
// Only a critical severity answers no.
func (h *Handler) Handle(requestID, opContext string, err error) bool {
	return h.severity(requestID, opContext, err) != core.SeverityCritical
}

// HandleStrict behaves like Handle but hands the error back when it is
// critical, for callers that must stop on it.
func (h *Handler) HandleStrict(requestID, opContext string, err error) error {
	if h.severity(requestID, opContext, err) == core.SeverityCritical {
		return err
	}
	return nil
}

func (h *Handler) severity(requestID, opContext string, err error) core.Severity {
	severity := core.Classify(err, opContext)

	logger := h.logger
	if requestID != "" {
		logger = logger.WithRequest(requestID)
	}
	switch severity {
	case core.SeverityCritical:
		logger.Error("critical failure", "context", opContext, "error", err)
	case core.SeverityRecoverable:
		logger.Warn("recoverable failure", "context", opContext, "error", err)
	default:
		logger.Info("warning", "context", opContext, "error", err)
	}

	if h.errorLog != nil {
		if _, lErr := h.errorLog.Append(requestID, opContext, err); lErr != nil {
			logger.Debug("error log append failed", "error", lErr)
		}
	}
	return severity
}
