package http

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "povcli/internal/errors"
	"povcli/internal/middleware"
	"povcli/internal/services"
	"povcli/pkg/contracts/domain"
)

// countryQuery holds the query parameters of GET /countries/{country}
type countryQuery struct {
	PPPVersion int `query:"ppp_version" validate:"omitempty,oneof=2011 2017"`
}

// countryResponse is one country's entry of the published dataset
type countryResponse struct {
	Country string               `json:"country"`
	Series  domain.CountrySeries `json:"series"`
}

// DatasetHandler serves the published per-country dataset with RFC 7807 errors
type DatasetHandler struct {
	service      DatasetServiceInterface
	validator    *middleware.QueryValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		validator:    middleware.NewQueryValidator(logger),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListCountries)
	r.Get("/{country}", h.GetCountry)
	return r
}

// ListCountries handles GET /countries
func (h *DatasetHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.Countries(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, translate(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"countries": countries,
		"count":     len(countries),
	})
}

// GetCountry handles GET /countries/{country}?ppp_version=2017
func (h *DatasetHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "country"))
	if err != nil || name == "" {
		h.errorHandler.HandleError(w, r, apierrors.NewAppValidationError("country name is required"))
		return
	}

	var q countryQuery
	if err := h.validator.Bind(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	series, err := h.service.Country(r.Context(), name, q.PPPVersion)
	if err != nil {
		h.errorHandler.HandleError(w, r, translate(err))
		return
	}

	h.logger.DebugContext(r.Context(), "country served",
		slog.String("country", name),
		slog.Int("ppp_version", q.PPPVersion),
		slog.Int("records", len(series.Data)))
	render.JSON(w, r, countryResponse{Country: name, Series: series})
}

// translate maps service errors onto API errors. Anything unrecognised is
// passed through for the error handler's own mapping.
func translate(err error) error {
	switch {
	case errors.Is(err, services.ErrCountryNotFound):
		return apierrors.ErrCountryNotFound
	case errors.Is(err, fs.ErrNotExist):
		return apierrors.ErrDatasetUnavailable
	case errors.Is(err, services.ErrDatasetCorrupt):
		return apierrors.NewParsingError("The published dataset could not be decoded", err)
	}
	return err
}
