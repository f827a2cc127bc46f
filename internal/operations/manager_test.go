package operations_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"povcli/internal/operations"
	"povcli/internal/operations/testutil"
	sharedtest "povcli/internal/shared/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T, cfg *operations.Config, steps ...operations.Step) *operations.Manager {
	t.Helper()
	registry := operations.NewRegistry()
	for _, s := range steps {
		require.NoError(t, registry.Register(s))
	}
	return operations.NewManager(registry, cfg, quietLogger(), nil)
}

func TestManager_ExecutesInDependencyOrder(t *testing.T) {
	combine := testutil.NewMockStage("combine", "standardize_2011", "standardize_2017")
	s2017 := testutil.NewMockStage("standardize_2017")
	s2011 := testutil.NewMockStage("standardize_2011")

	m := newManager(t, nil, combine, s2017, s2011)
	resp, err := m.Execute(context.Background(), operations.OperationRequest{ID: "run-1"})

	require.NoError(t, err)
	testutil.AssertOperationStatus(t, resp, operations.OperationStatusCompleted)
	testutil.AssertStageCompleted(t, resp, "combine")
	testutil.AssertExecutionOrder(t, s2017, s2011, combine)
	assert.Equal(t, "run-1", resp.ID)
	assert.Empty(t, resp.Error)
}

func TestManager_LogsRunSummary(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(testutil.NewMockStage("combine")))
	require.NoError(t, registry.Register(testutil.NewMockStage("export", "combine")))
	logger, logs := sharedtest.NewLogCapture()

	_, err := operations.NewManager(registry, nil, logger, nil).
		Execute(context.Background(), operations.OperationRequest{ID: "run-2"})
	require.NoError(t, err)

	rec := sharedtest.AssertLogged(t, logs, slog.LevelInfo, "operation complete")
	assert.Equal(t, "run-2", rec.Attrs["operation_id"])
	assert.Equal(t, int64(2), rec.Attrs["completed_steps"])
	assert.Equal(t, false, rec.Attrs["has_failures"])
}

func TestManager_GeneratesRunID(t *testing.T) {
	m := newManager(t, nil, testutil.NewMockStage("a"))
	resp, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.ID, 36)
}

func TestManager_FailureSkipsDependents(t *testing.T) {
	boom := errors.New("api unreachable")
	failing := testutil.FailingStage("key_indicators_2017", boom)
	patch := testutil.NewMockStage("median_patch_2017", "key_indicators_2017")
	derived := testutil.NewMockStage("derived_2017", "median_patch_2017")

	m := newManager(t, nil, failing, patch, derived)
	resp, err := m.Execute(context.Background(), operations.OperationRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))
	testutil.AssertOperationStatus(t, resp, operations.OperationStatusFailed)
	testutil.AssertStageFailed(t, resp, "key_indicators_2017")
	testutil.AssertStageSkipped(t, resp, "median_patch_2017")
	testutil.AssertStageSkipped(t, resp, "derived_2017")
	assert.Equal(t, 0, patch.GetExecuteCalls())
	assert.Equal(t, 0, derived.GetExecuteCalls())
	assert.Contains(t, resp.Error, "api unreachable")
}

func TestManager_ContinueOnErrorRunsIndependentSteps(t *testing.T) {
	cfg := operations.NewConfig()
	cfg.ContinueOnError = true

	failing := testutil.FailingStage("key_indicators_2011", errors.New("boom"))
	dependent := testutil.NewMockStage("median_patch_2011", "key_indicators_2011")
	independent := testutil.NewMockStage("key_indicators_2017")

	m := newManager(t, cfg, failing, dependent, independent)
	resp, err := m.Execute(context.Background(), operations.OperationRequest{})

	require.Error(t, err)
	testutil.AssertStageSkipped(t, resp, "median_patch_2011")
	testutil.AssertStageCompleted(t, resp, "key_indicators_2017")
	assert.Equal(t, 1, independent.GetExecuteCalls())
}

func TestManager_RetriesRetryableFailures(t *testing.T) {
	cfg := operations.NewConfig()
	cfg.RetryConfig = operations.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   2,
	}

	flaky := testutil.FlakyStage("percentiles_2017", 2)
	m := newManager(t, cfg, flaky)
	resp, err := m.Execute(context.Background(), operations.OperationRequest{})

	require.NoError(t, err)
	assert.Equal(t, 3, flaky.GetExecuteCalls())
	assert.Equal(t, 3, resp.Steps["percentiles_2017"].Attempts)
}

func TestManager_PermanentFailureIsNotRetried(t *testing.T) {
	cfg := operations.NewConfig()
	cfg.RetryConfig.MaxAttempts = 5
	cfg.RetryConfig.InitialDelay = time.Millisecond

	failing := testutil.FailingStage("combine", errors.New("duplicate index"))
	m := newManager(t, cfg, failing)
	_, err := m.Execute(context.Background(), operations.OperationRequest{})

	require.Error(t, err)
	assert.Equal(t, 1, failing.GetExecuteCalls())
}

func TestManager_StageTimeout(t *testing.T) {
	cfg := operations.NewConfig()
	cfg.SetStageTimeout("relative_poverty", 20*time.Millisecond)

	m := newManager(t, cfg, testutil.BlockingStage("relative_poverty_2017"))
	resp, err := m.Execute(context.Background(), operations.OperationRequest{})

	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeTimeout, operations.GetErrorType(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	testutil.AssertStageFailed(t, resp, "relative_poverty_2017")
}

func TestManager_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := testutil.NewMockStage("key_indicators_2017")
	m := newManager(t, nil, step)
	resp, err := m.Execute(ctx, operations.OperationRequest{})

	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	testutil.AssertOperationStatus(t, resp, operations.OperationStatusCancelled)
	assert.Equal(t, 0, step.GetExecuteCalls())
}

func TestManager_ValidationFailure(t *testing.T) {
	step := testutil.NewMockStage("export")
	step.ValidateFunc = func(*operations.OperationState) error {
		return operations.ErrMissingInput
	}

	m := newManager(t, nil, step)
	resp, err := m.Execute(context.Background(), operations.OperationRequest{})

	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
	testutil.AssertStageFailed(t, resp, "export")
	assert.Equal(t, 0, step.GetExecuteCalls())
}

func TestManager_SelectedStepsIncludeDependencies(t *testing.T) {
	ki := testutil.NewMockStage("key_indicators_2017")
	pct := testutil.NewMockStage("percentiles_2017")
	patch := testutil.NewMockStage("median_patch_2017", "key_indicators_2017", "percentiles_2017")
	other := testutil.NewMockStage("key_indicators_2011")

	m := newManager(t, nil, ki, pct, patch, other)
	resp, err := m.Execute(context.Background(), operations.OperationRequest{
		Steps: []string{"median_patch_2017"},
	})

	require.NoError(t, err)
	assert.Len(t, resp.Steps, 3)
	assert.Equal(t, 0, other.GetExecuteCalls())
	testutil.AssertExecutionOrder(t, ki, pct, patch)
}

func TestManager_LogsUnselectedDownstreamSteps(t *testing.T) {
	registry := operations.NewRegistry()
	for _, s := range []operations.Step{
		testutil.NewMockStage("standardize_2017"),
		testutil.NewMockStage("combine", "standardize_2017"),
		testutil.NewMockStage("export", "combine"),
	} {
		require.NoError(t, registry.Register(s))
	}
	logger, logs := sharedtest.NewLogCapture()
	m := operations.NewManager(registry, nil, logger, nil)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{
		Steps: []string{"standardize_2017"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Steps, 1)

	rec := sharedtest.AssertLogged(t, logs, slog.LevelInfo, "downstream steps not selected")
	assert.Equal(t, []string{"combine"}, rec.Attrs["steps"])
}

func TestManager_UnknownStep(t *testing.T) {
	m := newManager(t, nil, testutil.NewMockStage("combine"))
	resp, err := m.Execute(context.Background(), operations.OperationRequest{
		Steps: []string{"plot"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "plot")
	assert.Contains(t, err.Error(), "available: combine")
	testutil.AssertOperationStatus(t, resp, operations.OperationStatusFailed)
}

func TestManager_ParametersReachSteps(t *testing.T) {
	var got interface{}
	step := testutil.NewMockStage("export")
	step.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		got, _ = state.GetConfig("skip_upload")
		return nil
	}

	m := newManager(t, nil, step)
	_, err := m.Execute(context.Background(), operations.OperationRequest{
		Parameters: map[string]interface{}{"skip_upload": true},
	})

	require.NoError(t, err)
	assert.Equal(t, true, got)
}
