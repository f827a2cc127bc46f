package http

import (
	"context"

	"povcli/internal/services"
	"povcli/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset queries the handlers need
type DatasetServiceInterface interface {
	Countries(ctx context.Context) ([]services.CountrySummary, error)
	Country(ctx context.Context, name string, ppp int) (domain.CountrySeries, error)
}
