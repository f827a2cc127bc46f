// Package shared holds helpers used across packages that belong to no
// single layer. testutil provides a capturing slog handler for asserting
// on structured log output.
package shared
