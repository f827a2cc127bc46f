// Package pip talks to the World Bank Poverty and Inequality Platform (PIP)
// API and assembles the raw country and region tables the dataset pipeline
// starts from.
//
// Requests are paced by a token-bucket limiter, identical requests are
// served from an LRU cache, and failures are retried a bounded number of
// times with exponential backoff. When the attempts run out the caller gets
// an error wrapping errors.ErrRetriesExhausted.
package pip
