package operations

import (
	"fmt"
	"time"
)

// Step identifiers. Per-version steps are suffixed with the PPP version,
// see StepID.
const (
	StageIDKeyIndicators   = "key_indicators"
	StageIDPercentiles     = "percentiles"
	StageIDMedianPatch     = "median_patch"
	StageIDRelativePoverty = "relative_poverty"
	StageIDDerived         = "derived"
	StageIDStandardize     = "standardize"
	StageIDCombine         = "combine"
	StageIDExport          = "export"
	StageIDUpload          = "upload"
)

// Step names
const (
	StageNameKeyIndicators   = "Key Indicators"
	StageNamePercentiles     = "Percentile Matching"
	StageNameMedianPatch     = "Median Patch"
	StageNameRelativePoverty = "Relative Poverty"
	StageNameDerived         = "Derived Variables"
	StageNameStandardize     = "Standardization"
	StageNameCombine         = "Combine Vintages"
	StageNameExport          = "Export"
	StageNameUpload          = "Upload"
)

// Context keys for operation state
const (
	ContextKeyWide        = "wide"
	ContextKeyPercentiles = "percentiles"
	ContextKeyStandard    = "standardized"
	ContextKeyQuarantine  = "quarantined"
	ContextKeyDataset     = "dataset"
	ContextKeyRunID       = "run_id"
)

// StepID returns the identifier of a per-version step
func StepID(base string, ppp int) string {
	return fmt.Sprintf("%s_%d", base, ppp)
}

// VersionKey returns the per-version context key for base
func VersionKey(base string, ppp int) string {
	return fmt.Sprintf("%s_%d", base, ppp)
}

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration. Steps are not
// retried by default: the API client already retries each request.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute the pipeline
type OperationRequest struct {
	ID string `json:"id"`
	// Steps restricts the run to the given step IDs, in dependency order.
	Steps      []string               `json:"steps,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from a pipeline execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}
