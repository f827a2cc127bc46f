package config

import "time"

// Application constants
const (
	AppName    = "povcli"
	AppVersion = "1.0.0"

	// DefaultRequestTimeout is the flat per-request timeout of the API client.
	DefaultRequestTimeout = 2 * time.Minute
	// DefaultStageTimeout bounds a single pipeline step. The percentile grid
	// issues thousands of requests, so this is generous.
	DefaultStageTimeout = 12 * time.Hour

	DefaultOutputBaseName = "owid-poverty-data"

	// API Endpoints (internal)
	APIBasePath     = "/api/v1"
	HealthEndpoint  = "/healthz"
	MetricsEndpoint = "/metrics"
)
