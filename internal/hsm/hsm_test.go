package hsm

import (
	"testing"

	"agentpack/internal/model"
)

func TestRunTransitions(t *testing.T) {
	if !CanTransitionRun(model.RunStatusRunning, model.RunStatusCompleted) {
		t.Fatalf("expected running -> completed transition to be allowed")
	}
	if !CanTransitionRun(model.RunStatusRunning, model.RunStatusFailed) {
		t.Fatalf("expected running -> failed transition to be allowed")
	}
	if !CanTransitionRun(model.RunStatusRunning, model.RunStatusInterrupted) {
		t.Fatalf("expected running -> interrupted transition to be allowed")
	}
	if CanTransitionRun(model.RunStatusCompleted, model.RunStatusRunning) {
		t.Fatalf("expected completed -> running transition to be disallowed")
	}
	if CanTransitionRun(model.RunStatusFailed, model.RunStatusCompleted) {
		t.Fatalf("expected failed -> completed transition to be disallowed")
	}
}

func TestSameStatusIsAllowed(t *testing.T) {
	if !CanTransitionRun(model.RunStatusCompleted, model.RunStatusCompleted) {
		t.Fatalf("expected same-status transition to be allowed")
	}
}
