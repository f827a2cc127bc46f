package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "povcli/internal/errors"
	"povcli/internal/services"
	"povcli/pkg/contracts/domain"
)

type stubDatasets struct {
	countries []services.CountrySummary
	series    map[string]domain.CountrySeries
	err       error
	lastPPP   int
}

func (s *stubDatasets) Countries(ctx context.Context) ([]services.CountrySummary, error) {
	return s.countries, s.err
}

func (s *stubDatasets) Country(ctx context.Context, name string, ppp int) (domain.CountrySeries, error) {
	s.lastPPP = ppp
	if s.err != nil {
		return domain.CountrySeries{}, s.err
	}
	series, ok := s.series[name]
	if !ok {
		return domain.CountrySeries{}, fmt.Errorf("%w: %s", services.ErrCountryNotFound, name)
	}
	return series, nil
}

func newTestRouter(svc DatasetServiceInterface) http.Handler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := NewDatasetHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api/v1/countries", h.Routes())
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDatasetHandler_ListCountries(t *testing.T) {
	svc := &stubDatasets{countries: []services.CountrySummary{
		{Country: "Chile", Observations: 3, PPPVersions: []int{2011, 2017}},
	}}

	rec := get(t, newTestRouter(svc), "/api/v1/countries/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Countries []services.CountrySummary `json:"countries"`
		Count     int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "Chile", body.Countries[0].Country)
}

func TestDatasetHandler_GetCountry(t *testing.T) {
	svc := &stubDatasets{series: map[string]domain.CountrySeries{
		"Costa Rica": {
			Static: map[string]interface{}{"iso_code": "CRI"},
			Data:   []map[string]interface{}{{"year": 2019.0, "ppp_version": 2017.0}},
		},
	}}
	router := newTestRouter(svc)

	rec := get(t, router, "/api/v1/countries/Costa%20Rica?ppp_version=2017")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2017, svc.lastPPP)

	var body struct {
		Country string                 `json:"country"`
		Series  map[string]interface{} `json:"series"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Costa Rica", body.Country)
	assert.Equal(t, "CRI", body.Series["iso_code"])
	assert.Len(t, body.Series[domain.DataKey], 1)
}

func TestDatasetHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		svc    *stubDatasets
		target string
		status int
	}{
		{
			name:   "unknown country",
			svc:    &stubDatasets{},
			target: "/api/v1/countries/Atlantis",
			status: http.StatusNotFound,
		},
		{
			name:   "unsupported ppp version",
			svc:    &stubDatasets{},
			target: "/api/v1/countries/Chile?ppp_version=2005",
			status: http.StatusBadRequest,
		},
		{
			name:   "non-numeric ppp version",
			svc:    &stubDatasets{},
			target: "/api/v1/countries/Chile?ppp_version=latest",
			status: http.StatusBadRequest,
		},
		{
			name:   "dataset not built",
			svc:    &stubDatasets{err: fmt.Errorf("stat dataset: %w", fs.ErrNotExist)},
			target: "/api/v1/countries/",
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "dataset corrupt",
			svc:    &stubDatasets{err: fmt.Errorf("%w: eof", services.ErrDatasetCorrupt)},
			target: "/api/v1/countries/",
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestRouter(tt.svc), tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "json")
		})
	}
}

func TestGetCountry_DatasetNotBuiltReportsErrorCode(t *testing.T) {
	svc := &stubDatasets{err: fmt.Errorf("stat dataset: %w", fs.ErrNotExist)}
	rec := get(t, newTestRouter(svc), "/api/v1/countries/Chile")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error_code":"DATASET_UNAVAILABLE"`)
}
