// Package middleware provides the HTTP middleware of the dataset server:
// request IDs, structured request logging, rate limiting, security headers,
// OpenTelemetry instrumentation and query parameter validation.
package middleware
