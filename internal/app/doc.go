// Package app wires the dataset server together and manages its lifecycle.
//
// NewApplication takes a loaded configuration, a logger and optional
// OpenTelemetry providers, builds the services and the chi router, and
// prepares the http.Server. Run serves until the context is cancelled or
// SIGINT/SIGTERM arrives, then shuts down gracefully:
//
//   - in-flight requests are completed within Server.ShutdownTimeout
//   - telemetry providers are flushed
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
