// Package integration holds tests that run several packages together: the
// publish steps of the pipeline, object storage upload and the dataset
// server.
package integration
