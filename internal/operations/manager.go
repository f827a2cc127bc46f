package operations

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"povcli/internal/infrastructure"
	"povcli/internal/retry"
)

// Manager orchestrates pipeline execution
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	metrics  *infrastructure.PipelineMetrics
}

// NewManager creates a new operation manager. metrics may be nil.
func NewManager(registry *Registry, config *Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry: registry,
		config:   config,
		logger:   infrastructure.WithComponent(logger, "operations"),
		metrics:  metrics,
	}
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs the registered steps in dependency order. The first failure
// skips every step that depends on it and, unless ContinueOnError is set,
// stops the run.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	state := NewOperationState(req.ID)
	state.SetContext(ContextKeyRunID, req.ID)
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	m.logOperationStart(ctx, req)

	steps, err := m.selectSteps(ctx, req.Steps)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := infrastructure.Tracer().Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("operation.id", req.ID),
			attribute.Int("operation.steps", len(steps)),
		))
	defer span.End()

	state.Start()
	err = m.executeSequential(ctx, state, steps)

	switch {
	case err != nil && ctx.Err() != nil:
		state.Cancel()
		state.Error = err
		infrastructure.RecordError(ctx, err)
	case err != nil:
		state.Fail(err)
		infrastructure.RecordError(ctx, err)
	default:
		state.Complete()
	}

	m.logOperationComplete(ctx, state)
	return m.createResponse(state), err
}

// selectSteps returns the steps to run in dependency order. An empty
// selection runs every registered step; otherwise the requested steps run
// together with everything they depend on. Steps downstream of the
// selection are left out and logged.
func (m *Manager) selectSteps(ctx context.Context, requested []string) ([]Step, error) {
	ordered, err := m.registry.GetDependencyOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to get dependency order: %w", err)
	}
	if len(requested) == 0 {
		return ordered, nil
	}

	wanted := make(map[string]bool)
	var visit func(id string) error
	visit = func(id string) error {
		if wanted[id] {
			return nil
		}
		step, err := m.registry.Get(id)
		if err != nil {
			return err
		}
		wanted[id] = true
		for _, dep := range step.GetDependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, id := range requested {
		if !m.registry.Has(id) {
			return nil, fmt.Errorf("requested step %s not found (available: %s)",
				id, strings.Join(m.registry.ListIDs(), ", "))
		}
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	var downstream []string
	for _, id := range requested {
		for _, dep := range m.registry.GetDependents(id) {
			if !wanted[dep.ID()] && !slices.Contains(downstream, dep.ID()) {
				downstream = append(downstream, dep.ID())
			}
		}
	}
	if len(downstream) > 0 {
		slices.Sort(downstream)
		m.logger.InfoContext(ctx, "downstream steps not selected",
			slog.Any("steps", downstream))
	}

	selected := make([]Step, 0, len(wanted))
	for _, step := range ordered {
		if wanted[step.ID()] {
			selected = append(selected, step)
		}
	}
	return selected, nil
}

// executeSequential executes steps one by one. Every step consumes tables
// produced by the steps before it, so nothing runs in parallel.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var firstErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "operation cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID(), err)
		}

		stepState := state.GetStage(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "step skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		m.logger.InfoContext(ctx, "executing step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStage(ctx, state, step); err != nil {
			m.logStageError(ctx, state.ID, step.ID(), err)
			m.skipDependentStages(state, steps, step.ID())
			if !m.config.ContinueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// executeStage runs one step under its timeout, retrying failures the
// step marks retryable.
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(fmt.Sprintf("Dependencies not met: %v", err))
		return NewDependencyError(step.ID(), "", err.Error())
	}

	if err := step.Validate(state); err != nil {
		stepState.Fail(err)
		return NewValidationError(step.ID(), err.Error())
	}

	base := baseStepID(step.ID())
	timeout := m.config.GetStageTimeout(step.ID(), base)
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stageCtx, span := infrastructure.Tracer().Start(stageCtx, "pipeline.step",
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		))
	defer span.End()

	m.logStageStart(stageCtx, state.ID, step.ID())
	start := time.Now()

	rc := m.config.RetryConfig
	err := retry.WithBackoff(stageCtx, retry.Config{
		MaxAttempts:  rc.MaxAttempts,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.Multiplier,
	}, m.logger, step.ID(), func(ctx context.Context) error {
		stepState.Start()
		err := step.Execute(ctx, state)
		if err != nil && !IsRetryable(err) {
			return retry.Permanent(err)
		}
		return err
	})

	duration := time.Since(start)
	m.metrics.RecordStage(ctx, base, duration, err)

	if err != nil {
		wrapped := WrapError(err, step.ID(), timeout.String())
		stepState.Fail(wrapped)
		infrastructure.RecordError(stageCtx, wrapped)
		return wrapped
	}

	stepState.Complete()
	m.logStageComplete(stageCtx, state.ID, step.ID(), duration)
	return nil
}

// skipDependentStages marks all steps that depend on the failed step as skipped
func (m *Manager) skipDependentStages(state *OperationState, steps []Step, failedStageID string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep != failedStageID {
				continue
			}
			stepState := state.GetStage(step.ID())
			if stepState != nil && stepState.GetStatus() == StepStatusPending {
				stepState.Skip(fmt.Sprintf("Dependency %s failed", failedStageID))
				m.skipDependentStages(state, steps, step.ID())
			}
			break
		}
	}
}

// checkDependencies verifies that all dependencies are satisfied
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			return fmt.Errorf("dependency %s not found", dep)
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return fmt.Errorf("dependency %s not completed (status: %s)", dep, status)
		}
	}
	return nil
}

// baseStepID strips the PPP version suffix from a per-version step ID
func baseStepID(id string) string {
	i := strings.LastIndex(id, "_")
	if i < 0 {
		return id
	}
	if _, err := strconv.Atoi(id[i+1:]); err != nil {
		return id
	}
	return id[:i]
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    state.Steps,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}
