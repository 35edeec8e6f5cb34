package core

import (
	"fmt"
	"time"
)

// WorkflowStatus is the lifecycle state of an automated help workflow.
type WorkflowStatus string

const (
	StatusPending         WorkflowStatus = "pending"
	StatusLaunching       WorkflowStatus = "launching"
	StatusWaitingResponse WorkflowStatus = "waiting_response"
	StatusExecuting       WorkflowStatus = "executing"
	StatusCompleted       WorkflowStatus = "completed"
	StatusFailed          WorkflowStatus = "failed"
)

// WorkflowState tracks one request's progress through the automated
// workflow. Transitions are explicit methods so illegal jumps fail
// instead of silently corrupting the record. One instance exists per
// request; it is never shared between concurrent workflows.
type WorkflowState struct {
	RequestID        string         `json:"request_id"`
	Status           WorkflowStatus `json:"state"`
	StartedAt        time.Time      `json:"started_at"`
	DesktopLaunched  bool           `json:"desktop_launched"`
	ResponseReceived bool           `json:"response_received"`
	ExecutionStarted bool           `json:"execution_started"`
	Errors           []string       `json:"errors"`
	CanCancel        bool           `json:"can_cancel"`
}

// NewWorkflowState returns a pending workflow for the given request.
func NewWorkflowState(requestID string) *WorkflowState {
	return &WorkflowState{
		RequestID: requestID,
		Status:    StatusPending,
		StartedAt: time.Now(),
		Errors:    []string{},
		CanCancel: true,
	}
}

// StartLaunch moves the workflow into the launching state.
func (w *WorkflowState) StartLaunch() error {
	if w.Status != StatusPending {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("cannot start launch in %s state", w.Status))
	}
	w.Status = StatusLaunching
	return nil
}

// StartWaiting records a successful launch and moves the workflow into
// the waiting_response state.
func (w *WorkflowState) StartWaiting() error {
	if w.Status != StatusLaunching {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("cannot start waiting in %s state", w.Status))
	}
	w.Status = StatusWaitingResponse
	w.DesktopLaunched = true
	return nil
}

// StartExecution records response receipt and moves the workflow into
// the executing state.
func (w *WorkflowState) StartExecution() error {
	if w.Status != StatusWaitingResponse {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("cannot start execution in %s state", w.Status))
	}
	w.Status = StatusExecuting
	w.ResponseReceived = true
	w.ExecutionStarted = true
	return nil
}

// Complete marks the workflow as successfully finished. Allowed from
// waiting_response (response arrived, nothing to execute) or executing.
func (w *WorkflowState) Complete() error {
	if w.Status != StatusWaitingResponse && w.Status != StatusExecuting {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("cannot complete workflow in %s state", w.Status))
	}
	w.Status = StatusCompleted
	w.ResponseReceived = true
	w.CanCancel = false
	return nil
}

// Fail marks the workflow as failed with a reason. Failing is allowed
// from any non-terminal state.
func (w *WorkflowState) Fail(reason string) error {
	if w.IsTerminal() {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("cannot fail workflow in %s state", w.Status))
	}
	w.AddError(reason)
	w.Status = StatusFailed
	w.CanCancel = false
	return nil
}

// AddError appends a non-fatal error to the workflow record.
func (w *WorkflowState) AddError(msg string) {
	w.Errors = append(w.Errors, msg)
}

// IsTerminal reports whether the workflow has finished.
func (w *WorkflowState) IsTerminal() bool {
	return w.Status == StatusCompleted || w.Status == StatusFailed
}
