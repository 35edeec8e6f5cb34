package core

// RunMode describes how an automated workflow run concluded.
type RunMode string

const (
	// RunManualMode means automation stopped before the handoff and the
	// operator must deliver the request by hand.
	RunManualMode RunMode = "manual_mode"
	// RunTimeout means no response arrived within the configured window.
	RunTimeout RunMode = "timeout"
	// RunSuccess means a response was received and parsed.
	RunSuccess RunMode = "success"
)

// RunResult is the outcome of one automated workflow run. Exactly one
// mode applies; Response is set only for RunSuccess.
type RunResult struct {
	Mode      RunMode
	RequestID string
	Response  *Response
}

// ManualModeResult reports a run that fell back to manual delivery.
func ManualModeResult(requestID string) RunResult {
	return RunResult{Mode: RunManualMode, RequestID: requestID}
}

// TimeoutResult reports a run that gave up waiting for a response.
func TimeoutResult(requestID string) RunResult {
	return RunResult{Mode: RunTimeout, RequestID: requestID}
}

// SuccessResult reports a run that received a response.
func SuccessResult(requestID string, resp *Response) RunResult {
	return RunResult{Mode: RunSuccess, RequestID: requestID, Response: resp}
}

// ExecutionResult aggregates what happened while applying a response's
// proposals. Success holds only when every file write and every step
// succeeded. The record is appended to during execution and must not be
// mutated after it is returned.
type ExecutionResult struct {
	RequestID         string           `json:"request_id"`
	Success           bool             `json:"success"`
	StepsCompleted    int              `json:"steps_completed"`
	StepsTotal        int              `json:"steps_total"`
	FilesModified     []string         `json:"files_modified"`
	BackupsCreated    []string         `json:"backups_created"`
	Errors            []ExecutionError `json:"errors"`
	RollbackAvailable bool             `json:"rollback_available"`
}

// NewExecutionResult returns an empty record for one apply run.
func NewExecutionResult(requestID string) *ExecutionResult {
	return &ExecutionResult{
		RequestID:      requestID,
		FilesModified:  []string{},
		BackupsCreated: []string{},
		Errors:         []ExecutionError{},
	}
}

// AddError records one failed file write or step.
func (r *ExecutionResult) AddError(e ExecutionError) {
	r.Errors = append(r.Errors, e)
}

// AddModifiedFile records a file that was written.
func (r *ExecutionResult) AddModifiedFile(path string) {
	r.FilesModified = append(r.FilesModified, path)
}

// AddBackup records a backup file that was created.
func (r *ExecutionResult) AddBackup(path string) {
	r.BackupsCreated = append(r.BackupsCreated, path)
}

// ExecutionError is one structured failure record.
type ExecutionError struct {
	Kind    string `json:"kind"`
	Target  string `json:"target"`
	Message string `json:"message"`
}

const (
	ExecErrorFile = "file"
	ExecErrorStep = "step"
)

func (e ExecutionError) Error() string {
	return e.Kind + " " + e.Target + ": " + e.Message
}

// Checkpoint is the manifest written alongside a set of file backups so
// an apply can be rolled back.
type Checkpoint struct {
	CheckpointID string           `json:"checkpoint_id"`
	Timestamp    string           `json:"timestamp"`
	Description  string           `json:"description"`
	Files        []CheckpointFile `json:"files"`
}

// CheckpointFile maps one original path to its backup file name inside
// the checkpoint directory.
type CheckpointFile struct {
	OriginalPath string `json:"original_path"`
	BackupName   string `json:"backup_name"`
}
