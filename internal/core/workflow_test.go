package core

import (
	"strings"
	"testing"
)

func TestWorkflowState_Initial(t *testing.T) {
	w := NewWorkflowState("req_20250314_092653")
	if w.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", w.Status)
	}
	if w.DesktopLaunched || w.ResponseReceived || w.ExecutionStarted {
		t.Fatalf("milestones must start false")
	}
	if !w.CanCancel {
		t.Fatalf("new workflow must be cancellable")
	}
	if w.IsTerminal() {
		t.Fatalf("new workflow must not be terminal")
	}
	if w.Errors == nil || len(w.Errors) != 0 {
		t.Fatalf("expected empty error list")
	}
}

func TestWorkflowState_HappyPath(t *testing.T) {
	w := NewWorkflowState("req_20250314_092653")

	if err := w.StartLaunch(); err != nil {
		t.Fatalf("unexpected error starting launch: %v", err)
	}
	if w.Status != StatusLaunching {
		t.Fatalf("expected launching status, got %s", w.Status)
	}

	if err := w.StartWaiting(); err != nil {
		t.Fatalf("unexpected error starting wait: %v", err)
	}
	if !w.DesktopLaunched {
		t.Fatalf("expected desktop launch milestone")
	}

	if err := w.StartExecution(); err != nil {
		t.Fatalf("unexpected error starting execution: %v", err)
	}
	if !w.ResponseReceived || !w.ExecutionStarted {
		t.Fatalf("expected response and execution milestones")
	}

	if err := w.Complete(); err != nil {
		t.Fatalf("unexpected error completing: %v", err)
	}
	if w.Status != StatusCompleted || !w.IsTerminal() {
		t.Fatalf("expected completed terminal workflow, got %s", w.Status)
	}
	if w.CanCancel {
		t.Fatalf("terminal workflow must not be cancellable")
	}
}

func TestWorkflowState_CompleteFromWaiting(t *testing.T) {
	w := NewWorkflowState("req_20250314_092653")
	_ = w.StartLaunch()
	_ = w.StartWaiting()
	if err := w.Complete(); err != nil {
		t.Fatalf("expected completion from waiting_response to succeed: %v", err)
	}
	if !w.ResponseReceived {
		t.Fatalf("completion implies the response arrived")
	}
	if w.ExecutionStarted {
		t.Fatalf("completion without execution must not set execution milestone")
	}
}

func TestWorkflowState_IllegalTransitions(t *testing.T) {
	w := NewWorkflowState("req_20250314_092653")

	if err := w.StartWaiting(); err == nil {
		t.Fatalf("expected error waiting from pending")
	}
	if err := w.StartExecution(); err == nil {
		t.Fatalf("expected error executing from pending")
	}
	if err := w.Complete(); err == nil {
		t.Fatalf("expected error completing from pending")
	}

	err := w.StartExecution()
	if err == nil || !strings.Contains(err.Error(), "pending state") {
		t.Fatalf("expected error naming the current state, got %v", err)
	}
	if !IsCategory(err, ErrCatState) {
		t.Fatalf("expected state category, got %v", GetCategory(err))
	}

	_ = w.StartLaunch()
	if err := w.StartLaunch(); err == nil {
		t.Fatalf("expected error launching twice")
	}
}

func TestWorkflowState_FailFromAnyActiveState(t *testing.T) {
	for _, setup := range []func(*WorkflowState){
		func(w *WorkflowState) {},
		func(w *WorkflowState) { _ = w.StartLaunch() },
		func(w *WorkflowState) { _ = w.StartLaunch(); _ = w.StartWaiting() },
		func(w *WorkflowState) {
			_ = w.StartLaunch()
			_ = w.StartWaiting()
			_ = w.StartExecution()
		},
	} {
		w := NewWorkflowState("req_20250314_092653")
		setup(w)
		from := w.Status
		if err := w.Fail("boom"); err != nil {
			t.Fatalf("expected failing from %s to succeed: %v", from, err)
		}
		if w.Status != StatusFailed || !w.IsTerminal() {
			t.Fatalf("expected failed terminal workflow")
		}
		if w.CanCancel {
			t.Fatalf("failed workflow must not be cancellable")
		}
		if len(w.Errors) != 1 || w.Errors[0] != "boom" {
			t.Fatalf("expected failure reason to be recorded, got %v", w.Errors)
		}
	}
}

func TestWorkflowState_TerminalIsFinal(t *testing.T) {
	w := NewWorkflowState("req_20250314_092653")
	_ = w.Fail("gave up")

	if err := w.Fail("again"); err == nil {
		t.Fatalf("expected error failing a failed workflow")
	}
	if err := w.StartLaunch(); err == nil {
		t.Fatalf("expected error restarting a failed workflow")
	}

	done := NewWorkflowState("req_20250314_092654")
	_ = done.StartLaunch()
	_ = done.StartWaiting()
	_ = done.Complete()
	if err := done.Fail("late"); err == nil {
		t.Fatalf("expected error failing a completed workflow")
	}
}

func TestWorkflowState_AddError(t *testing.T) {
	w := NewWorkflowState("req_20250314_092653")
	w.AddError("first")
	w.AddError("second")
	if len(w.Errors) != 2 || w.Errors[0] != "first" || w.Errors[1] != "second" {
		t.Fatalf("expected ordered error list, got %v", w.Errors)
	}
	if w.IsTerminal() {
		t.Fatalf("recording an error must not terminate the workflow")
	}
}
