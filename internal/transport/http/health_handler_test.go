package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"povcli/internal/services"
)

func TestHealthHandler_HealthCheck(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")

	handler := NewHealthHandler(services.NewHealthService("test", services.NewDatasetService(path, logger)), logger)

	check := func() services.HealthStatus {
		rec := httptest.NewRecorder()
		handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var status services.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		return status
	}

	status := check()
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unavailable", status.Services["dataset"].Status)

	require.NoError(t, os.WriteFile(path, []byte(`{"Chile": {"data": []}}`), 0644))
	status = check()
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "test", status.Version)
}

func TestMetricsHandler_Serves(t *testing.T) {
	called := false
	exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, _ = w.Write([]byte("# HELP up\n"))
	})

	rec := httptest.NewRecorder()
	NewMetricsHandler(exporter).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewMetricsHandler(nil).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
