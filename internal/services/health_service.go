package services

import (
	"context"
	"errors"
	"io/fs"
	"runtime"
	"time"

	"povcli/internal/config"
)

// HealthService reports server and dataset health
type HealthService struct {
	version   string
	datasets  *DatasetService
	startTime time.Time
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. An empty version uses the
// application version.
func NewHealthService(version string, datasets *DatasetService) *HealthService {
	if version == "" {
		version = config.AppVersion
	}
	return &HealthService{
		version:   version,
		datasets:  datasets,
		startTime: time.Now(),
	}
}

// HealthCheck reports "ok" when the dataset can be served and "degraded"
// otherwise; the server itself stays up either way.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	dataset := s.datasetHealth(ctx)
	status := "ok"
	if dataset.Status != "ok" {
		status = "degraded"
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
		},
		Services: map[string]ServiceHealth{"dataset": dataset},
	}
}

func (s *HealthService) datasetHealth(ctx context.Context) ServiceHealth {
	if s.datasets == nil {
		return ServiceHealth{Status: "unavailable", Message: "no dataset configured"}
	}
	_, err := s.datasets.Load(ctx)
	switch {
	case err == nil:
		return ServiceHealth{Status: "ok"}
	case errors.Is(err, fs.ErrNotExist):
		return ServiceHealth{Status: "unavailable", Message: "dataset has not been built yet"}
	default:
		return ServiceHealth{Status: "error", Message: err.Error()}
	}
}
