// Package services implements the business logic behind the dataset server.
//
// DatasetService reads the exported JSON dataset and answers country
// queries; HealthService reports whether that dataset can be served.
// Handlers in internal/transport/http stay thin and delegate here.
package services
