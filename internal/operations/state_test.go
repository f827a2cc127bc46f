package operations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "povcli/internal/errors"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

func TestOperationState_Frame(t *testing.T) {
	state := NewOperationState("run")
	f := table.New("country")
	state.SetContext(ContextKeyDataset, f)
	state.SetContext("not_a_frame", 42)

	got, err := state.Frame(ContextKeyDataset)
	require.NoError(t, err)
	assert.Same(t, f, got)

	_, err = state.Frame("missing")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = state.Frame("not_a_frame")
	assert.ErrorContains(t, err, "int")
}

func TestOperationState_Entries(t *testing.T) {
	state := NewOperationState("run")
	entries := []domain.PercentileEntry{{Entity: "Chile", Target: 50}}
	state.SetContext(VersionKey(ContextKeyPercentiles, 2017), entries)

	got, err := state.Entries("percentiles_2017")
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	_, err = state.Entries("percentiles_2011")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestOperationState_Lifecycle(t *testing.T) {
	state := NewOperationState("run")
	assert.Equal(t, OperationStatusPending, state.Status)

	state.Start()
	assert.Equal(t, OperationStatusRunning, state.Status)

	step := NewStepState("combine", StageNameCombine)
	state.SetStage("combine", step)
	step.Start()
	step.Fail(errors.New("boom"))
	assert.True(t, state.HasFailures())
	assert.Len(t, state.GetFailedStages(), 1)
	assert.Empty(t, state.GetCompletedStages())

	state.Fail(step.Error)
	assert.Equal(t, OperationStatusFailed, state.Status)
	require.NotNil(t, state.EndTime)
	assert.GreaterOrEqual(t, state.Duration(), time.Duration(0))
}

func TestStepState_Transitions(t *testing.T) {
	s := NewStepState("export", StageNameExport)
	assert.Equal(t, time.Duration(0), s.Duration())

	s.Start()
	s.Start()
	assert.Equal(t, 2, s.Attempts)
	assert.Equal(t, StepStatusActive, s.GetStatus())

	s.SetMetadata("rows", 10)
	s.Complete()
	assert.Equal(t, StepStatusCompleted, s.GetStatus())
	assert.Equal(t, 10, s.Metadata["rows"])

	skipped := NewStepState("upload", StageNameUpload)
	skipped.Skip("Dependency export failed")
	assert.Equal(t, StepStatusSkipped, skipped.GetStatus())
	assert.Equal(t, "Dependency export failed", skipped.Message)
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout},
		{"cancelled", context.Canceled, ErrorTypeCancellation},
		{"plain", errors.New("boom"), ErrorTypeExecution},
		{"validation", NewValidationError("", "bad"), ErrorTypeValidation},
		{"misconfigured", apperrors.NewConfigError("percentile bands produce no candidate lines", nil), ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err, "combine", "10m0s")
			assert.Equal(t, tt.want, wrapped.Type)
			assert.Equal(t, "combine", wrapped.Step)
			assert.ErrorIs(t, wrapped, tt.err)
		})
	}

	assert.Nil(t, WrapError(nil, "combine", ""))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewExecutionError("a", errors.New("x"), true)))
	assert.False(t, IsRetryable(NewExecutionError("a", errors.New("x"), false)))
	assert.False(t, IsRetryable(errors.New("x")))
}

func TestConfig_GetStageTimeout(t *testing.T) {
	c := NewConfig()
	c.DefaultTimeout = time.Hour
	c.SetStageTimeout("relative_poverty", time.Minute)
	c.SetStageTimeout("relative_poverty_2011", time.Second)

	assert.Equal(t, time.Second, c.GetStageTimeout("relative_poverty_2011", "relative_poverty"))
	assert.Equal(t, time.Minute, c.GetStageTimeout("relative_poverty_2017", "relative_poverty"))
	assert.Equal(t, time.Hour, c.GetStageTimeout("derived_2017", "derived"))
	assert.Equal(t, 15*time.Minute, c.GetStageTimeout(StageIDUpload, StageIDUpload))
}

func TestBaseStepID(t *testing.T) {
	assert.Equal(t, "key_indicators", baseStepID("key_indicators_2017"))
	assert.Equal(t, "combine", baseStepID("combine"))
	assert.Equal(t, "median_patch", baseStepID("median_patch"))
}
