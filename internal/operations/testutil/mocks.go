package testutil

import (
	"context"
	"sync"
	"time"

	"povcli/internal/operations"
	"povcli/internal/table"
)

// MockStage is a configurable mock implementation of the step interface
type MockStage struct {
	IDValue           string
	NameValue         string
	DependenciesValue []string

	// Configurable functions
	ExecuteFunc  func(ctx context.Context, state *operations.OperationState) error
	ValidateFunc func(state *operations.OperationState) error

	// Call tracking
	mu            sync.Mutex
	ExecuteCalls  int
	ExecuteTimes  []time.Time
	ValidateCalls int
}

// NewMockStage creates a mock step that succeeds
func NewMockStage(id string, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         id,
		DependenciesValue: deps,
	}
}

// ID returns the step ID
func (m *MockStage) ID() string {
	return m.IDValue
}

// Name returns the step name
func (m *MockStage) Name() string {
	return m.NameValue
}

// GetDependencies returns the step dependencies
func (m *MockStage) GetDependencies() []string {
	if m.DependenciesValue == nil {
		return []string{}
	}
	return m.DependenciesValue
}

// Execute runs the mock execute function
func (m *MockStage) Execute(ctx context.Context, state *operations.OperationState) error {
	m.mu.Lock()
	m.ExecuteCalls++
	m.ExecuteTimes = append(m.ExecuteTimes, time.Now())
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate runs the mock validate function
func (m *MockStage) Validate(state *operations.OperationState) error {
	m.mu.Lock()
	m.ValidateCalls++
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(state)
	}
	return nil
}

// GetExecuteCalls returns the number of Execute calls
func (m *MockStage) GetExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}

// GetValidateCalls returns the number of Validate calls
func (m *MockStage) GetValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ValidateCalls
}

// FailingStage creates a step whose Execute always returns err
func FailingStage(id string, err error, deps ...string) *MockStage {
	s := NewMockStage(id, deps...)
	s.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		return err
	}
	return s
}

// FlakyStage creates a step that fails with a retryable error for the
// first failures calls, then succeeds.
func FlakyStage(id string, failures int) *MockStage {
	s := NewMockStage(id)
	s.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		if s.GetExecuteCalls() <= failures {
			return operations.NewExecutionError(id, context.DeadlineExceeded, true)
		}
		return nil
	}
	return s
}

// BlockingStage creates a step that waits until its context ends
func BlockingStage(id string) *MockStage {
	s := NewMockStage(id)
	s.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		<-ctx.Done()
		return ctx.Err()
	}
	return s
}

// ProducingStage creates a step that stores f under key
func ProducingStage(id, key string, f *table.Frame, deps ...string) *MockStage {
	s := NewMockStage(id, deps...)
	s.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		state.SetContext(key, f)
		return nil
	}
	return s
}

// MockExporter records the frames it was asked to export
type MockExporter struct {
	mu     sync.Mutex
	Frames []*table.Frame
	Err    error
}

// ExportAll records f
func (e *MockExporter) ExportAll(ctx context.Context, f *table.Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Frames = append(e.Frames, f)
	return e.Err
}

// MockUploader records the files it was asked to upload
type MockUploader struct {
	mu    sync.Mutex
	Files []string
	Err   error
}

// UploadFiles records files
func (u *MockUploader) UploadFiles(ctx context.Context, files []string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Files = append(u.Files, files...)
	return u.Err
}
