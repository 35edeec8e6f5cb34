package core

// Placeholder reported by accessors when an optional response field is
// absent. Matches what the desktop side prints for missing values.
const absentField = "N/A"

// Response is the document the desktop application writes back. It is
// untrusted input: every field is optional and every access defaults.
type Response struct {
	RequestID         string    `json:"request_id,omitempty"`
	ResponseTimestamp string    `json:"response_timestamp,omitempty"`
	Analysis          *Analysis `json:"analysis,omitempty"`
}

// Analysis carries the structured findings of the external reviewer.
type Analysis struct {
	RootCause           string               `json:"root_cause,omitempty"`
	Recommendations     []Recommendation     `json:"recommendations,omitempty"`
	ImplementationSteps []ImplementationStep `json:"implementation_steps,omitempty"`
	CodeFiles           []CodeFile           `json:"code_files,omitempty"`
}

// Recommendation is a prioritized suggestion.
type Recommendation struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// ImplementationStep is one declarative step of the proposed fix.
type ImplementationStep struct {
	Description string `json:"description,omitempty"`
	Action      string `json:"action,omitempty"`
}

// CodeFile is a proposed file content.
type CodeFile struct {
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
}

// RootCause returns the analyzed root cause, or "N/A" when absent.
func (r *Response) RootCause() string {
	if r == nil || r.Analysis == nil || r.Analysis.RootCause == "" {
		return absentField
	}
	return r.Analysis.RootCause
}

// Timestamp returns the response timestamp, or "N/A" when absent.
func (r *Response) Timestamp() string {
	if r == nil || r.ResponseTimestamp == "" {
		return absentField
	}
	return r.ResponseTimestamp
}

// Recommendations returns the recommendation list, never nil.
func (r *Response) Recommendations() []Recommendation {
	if r == nil || r.Analysis == nil {
		return []Recommendation{}
	}
	return r.Analysis.Recommendations
}

// ImplementationSteps returns the step list, never nil.
func (r *Response) ImplementationSteps() []ImplementationStep {
	if r == nil || r.Analysis == nil {
		return []ImplementationStep{}
	}
	return r.Analysis.ImplementationSteps
}

// CodeFiles returns the proposed file list, never nil.
func (r *Response) CodeFiles() []CodeFile {
	if r == nil || r.Analysis == nil {
		return []CodeFile{}
	}
	return r.Analysis.CodeFiles
}

// Title returns the recommendation title, or "N/A" when absent.
func (r Recommendation) DisplayTitle() string {
	if r.Title == "" {
		return absentField
	}
	return r.Title
}

// DisplayDescription returns the description, or "N/A" when absent.
func (r Recommendation) DisplayDescription() string {
	if r.Description == "" {
		return absentField
	}
	return r.Description
}

// DisplayPriority returns the priority, or "N/A" when absent.
func (r Recommendation) DisplayPriority() string {
	if r.Priority == "" {
		return absentField
	}
	return r.Priority
}

// DisplayDescription returns the description, or "N/A" when absent.
func (s ImplementationStep) DisplayDescription() string {
	if s.Description == "" {
		return absentField
	}
	return s.Description
}
