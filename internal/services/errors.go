package services

import "errors"

// Dataset service errors
var (
	ErrCountryNotFound = errors.New("country not found")
	ErrDatasetCorrupt  = errors.New("dataset file is corrupt")
)
