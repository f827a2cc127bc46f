package operations

import (
	"time"

	"povcli/internal/config"
)

// Config represents the pipeline execution configuration
type Config struct {
	// Step-specific timeouts, keyed by step ID or base step ID
	StageTimeouts map[string]time.Duration `json:"stage_timeouts"`

	// Fallback timeout for steps without an entry
	DefaultTimeout time.Duration `json:"default_timeout"`

	// Retry configuration for steps
	RetryConfig RetryConfig `json:"retry_config"`

	// Whether to continue on Step failures
	ContinueOnError bool `json:"continue_on_error"`
}

// NewConfig returns the default operation configuration
func NewConfig() *Config {
	c := &Config{
		DefaultTimeout:  config.DefaultStageTimeout,
		RetryConfig:     NewRetryConfig(),
		ContinueOnError: false,
	}
	c.SetStageTimeout(StageIDCombine, 10*time.Minute)
	c.SetStageTimeout(StageIDExport, 10*time.Minute)
	c.SetStageTimeout(StageIDUpload, 15*time.Minute)
	return c
}

// NewConfigFromPipeline applies the configured stage timeout to the
// data-building steps.
func NewConfigFromPipeline(pc config.PipelineConfig) *Config {
	c := NewConfig()
	if pc.StageTimeout > 0 {
		c.DefaultTimeout = pc.StageTimeout
	}
	return c
}

// GetStageTimeout returns the timeout for a step. A per-version step falls
// back to the entry of its base ID.
func (c *Config) GetStageTimeout(stageID, baseID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stageID]; ok {
		return timeout
	}
	if timeout, ok := c.StageTimeouts[baseID]; ok {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return config.DefaultStageTimeout
}

// SetStageTimeout sets the timeout for a step ID or base step ID
func (c *Config) SetStageTimeout(stageID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stageID] = timeout
}
