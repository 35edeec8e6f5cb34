package core

import (
	"strings"
	"time"
)

// requestIDLayout is the time layout embedded in request identifiers.
// Second granularity keeps ids collision-resistant for a single caller.
const requestIDLayout = "20060102_150405"

// RequestStatus is the informational status recorded in a request document.
// It is written for the external reader and never read back by the engine.
type RequestStatus string

const (
	RequestStatusPending RequestStatus = "pending"
)

// HelpRequest is the document handed to the desktop application. Field
// names follow the on-disk JSON contract.
type HelpRequest struct {
	RequestID      string        `json:"request_id"`
	Timestamp      string        `json:"timestamp"`
	Title          string        `json:"title"`
	Problem        string        `json:"problem"`
	Tried          []string      `json:"tried"`
	FilesToAnalyze []string      `json:"files_to_analyze"`
	ErrorMessages  string        `json:"error_messages"`
	Context        string        `json:"context"`
	ProjectRoot    string        `json:"project_root"`
	Status         RequestStatus `json:"status"`
}

// NewRequestID generates a time-derived request identifier.
func NewRequestID() string {
	return RequestIDAt(time.Now())
}

// RequestIDAt builds the identifier for a given creation time.
func RequestIDAt(t time.Time) string {
	return "req_" + t.Format(requestIDLayout)
}

// TimestampAt formats a creation time the way request documents record it.
func TimestampAt(t time.Time) string {
	return t.Format(requestIDLayout)
}

// IsRequestID reports whether s has the req_<timestamp> shape.
func IsRequestID(s string) bool {
	if !strings.HasPrefix(s, "req_") {
		return false
	}
	_, err := time.Parse(requestIDLayout, strings.TrimPrefix(s, "req_"))
	return err == nil
}

// Validate checks the request invariants before persistence.
func (r *HelpRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrValidation(CodeEmptyTitle, "request title cannot be empty")
	}
	if r.RequestID != "" && !IsRequestID(r.RequestID) {
		return ErrValidation(CodeInvalidField, "request id must have the form req_<timestamp>")
	}
	return nil
}
