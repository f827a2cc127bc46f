// Package http implements the HTTP handlers of the dataset server.
//
// Handlers stay thin: they parse and validate the request, call a service
// from internal/services and render the result with go-chi/render. Errors
// are rendered as RFC 7807 problem details by errors.ErrorHandler.
//
// # Routes
//
//	GET /api/v1/countries                         country summaries
//	GET /api/v1/countries/{country}?ppp_version=  one country's series
//	GET /healthz                                  health and dataset status
//	GET /metrics                                  Prometheus scrape endpoint
//
// Handlers are tested with httptest against a stub dataset service.
package http
