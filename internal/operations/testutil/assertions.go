package testutil

import (
	"testing"

	"povcli/internal/operations"
)

// AssertStepStatus verifies a step has the expected status
func AssertStepStatus(t *testing.T, step *operations.StepState, expected operations.StepStatus) {
	t.Helper()
	if step == nil {
		t.Fatal("step state is nil")
	}
	if got := step.GetStatus(); got != expected {
		t.Errorf("step %s status = %v, want %v", step.ID, got, expected)
	}
}

// AssertOperationStatus verifies an operation ended with the expected status
func AssertOperationStatus(t *testing.T, resp *operations.OperationResponse, expected operations.OperationStatusValue) {
	t.Helper()
	if resp == nil {
		t.Fatal("operation response is nil")
	}
	if resp.Status != expected {
		t.Errorf("operation status = %v, want %v", resp.Status, expected)
	}
}

// AssertStageCompleted verifies a step completed successfully
func AssertStageCompleted(t *testing.T, resp *operations.OperationResponse, stageID string) {
	t.Helper()
	AssertStepStatus(t, lookup(t, resp, stageID), operations.StepStatusCompleted)
}

// AssertStageFailed verifies a step failed and kept its error
func AssertStageFailed(t *testing.T, resp *operations.OperationResponse, stageID string) {
	t.Helper()
	step := lookup(t, resp, stageID)
	AssertStepStatus(t, step, operations.StepStatusFailed)
	if step.Error == nil {
		t.Errorf("step %s has no error", stageID)
	}
}

// AssertStageSkipped verifies a step was skipped
func AssertStageSkipped(t *testing.T, resp *operations.OperationResponse, stageID string) {
	t.Helper()
	AssertStepStatus(t, lookup(t, resp, stageID), operations.StepStatusSkipped)
}

// AssertExecutionOrder verifies the mocks first ran in the given order
func AssertExecutionOrder(t *testing.T, stages ...*MockStage) {
	t.Helper()
	for i := 1; i < len(stages); i++ {
		prev, cur := stages[i-1], stages[i]
		if len(prev.ExecuteTimes) == 0 || len(cur.ExecuteTimes) == 0 {
			t.Errorf("step %s or %s never executed", prev.ID(), cur.ID())
			continue
		}
		if cur.ExecuteTimes[0].Before(prev.ExecuteTimes[0]) {
			t.Errorf("step %s executed before %s", cur.ID(), prev.ID())
		}
	}
}

func lookup(t *testing.T, resp *operations.OperationResponse, stageID string) *operations.StepState {
	t.Helper()
	if resp == nil {
		t.Fatal("operation response is nil")
	}
	step, ok := resp.Steps[stageID]
	if !ok {
		t.Fatalf("step %s not found", stageID)
	}
	return step
}
