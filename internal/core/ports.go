package core

import "context"

// RequestStore defines the contract for request and response document
// persistence.
type RequestStore interface {
	// CreateRequest validates and persists a new request document and
	// copies its referenced analysis files into the per-request
	// directory.
	CreateRequest(req *HelpRequest) (*CreatedRequest, error)

	// LoadRequest reads a request document by id.
	LoadRequest(requestID string) (*HelpRequest, error)

	// ResponseExists reports whether a response document has appeared.
	ResponseExists(requestID string) bool

	// ReadResponse reads and parses the response document for an id.
	ReadResponse(requestID string) (*Response, error)

	// RequestPath returns where the request document lives.
	RequestPath(requestID string) string

	// ResponsePath returns where the response document is expected.
	ResponsePath(requestID string) string

	// ListPending returns requests that have no response yet, oldest
	// first.
	ListPending() ([]HelpRequest, error)

	// Archive moves a request, its response, and its analysis directory
	// into the archive. Both documents must exist.
	Archive(requestID string) error
}

// CreatedRequest reports what CreateRequest materialized on disk.
type CreatedRequest struct {
	Request      *HelpRequest
	RequestFile  string
	AnalysisDir  string
	CopiedFiles  []string
	SkippedFiles []string
}

// ProcessLauncher defines the contract for bringing up the desktop
// application.
type ProcessLauncher interface {
	// IsRunning reports whether the application is currently observed
	// in the OS process table. Errors report false.
	IsRunning() bool

	// LaunchWithRetry attempts launch-then-ready up to the configured
	// retry count. It returns true on the first attempt whose launch
	// and readiness both succeed.
	LaunchWithRetry() bool

	// ShowManualFallbackMessage tells the operator how to proceed by
	// hand. Invoked exactly once when LaunchWithRetry is exhausted.
	ShowManualFallbackMessage()
}

// ResponseWatcher defines the contract for detecting and reading the
// response document.
type ResponseWatcher interface {
	// CheckForResponse reports whether the response document exists.
	CheckForResponse() bool

	// WaitForResponse polls until the document appears, the response
	// timeout elapses, the watcher is cancelled, or ctx is done. It
	// returns true only when the document appeared.
	WaitForResponse(ctx context.Context) bool

	// ReadResponse reads and parses the document, retrying transient
	// failures. A missing document is not retried.
	ReadResponse(maxRetries int) (*Response, error)

	// Cancel stops an in-flight wait. Idempotent; takes effect within
	// one polling interval.
	Cancel()
}
