package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"povcli/internal/exporter"
	"povcli/internal/infrastructure"
	"povcli/pkg/contracts/domain"
)

// CountrySummary describes one country of the published dataset
type CountrySummary struct {
	Country      string `json:"country"`
	Observations int    `json:"observations"`
	FirstYear    int    `json:"first_year,omitempty"`
	LastYear     int    `json:"last_year,omitempty"`
	PPPVersions  []int  `json:"ppp_versions"`
}

// DatasetService serves the exported JSON dataset. The file is decoded on
// first use and decoded again whenever its modification time changes, so a
// pipeline run is picked up without a restart.
type DatasetService struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	dataset domain.Dataset
	modTime time.Time
}

// NewDatasetService creates a dataset service over the JSON export at path
func NewDatasetService(path string, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		path:   path,
		logger: infrastructure.WithComponent(logger, "dataset_service"),
	}
}

// Path returns the served file
func (s *DatasetService) Path() string {
	return s.path
}

// Load returns the current dataset. A missing file is returned as an
// fs.ErrNotExist error.
func (s *DatasetService) Load(ctx context.Context) (domain.Dataset, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	s.mu.RLock()
	if s.dataset != nil && info.ModTime().Equal(s.modTime) {
		ds := s.dataset
		s.mu.RUnlock()
		return ds, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset != nil && info.ModTime().Equal(s.modTime) {
		return s.dataset, nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	ds, err := exporter.ReadDataset(file)
	if err != nil {
		logDataError(ctx, "load", "dataset decode failed",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrDatasetCorrupt, err)
	}

	s.dataset = ds
	s.modTime = info.ModTime()
	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", s.path),
		slog.Int("countries", len(ds)))
	return ds, nil
}

// Countries lists every country with its coverage, sorted by name
func (s *DatasetService) Countries(ctx context.Context) ([]CountrySummary, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CountrySummary, 0, len(ds))
	for name, series := range ds {
		out = append(out, summarize(name, series))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out, nil
}

// Country returns one country's series. A non-zero ppp keeps only the
// records of that PPP version.
func (s *DatasetService) Country(ctx context.Context, name string, ppp int) (domain.CountrySeries, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return domain.CountrySeries{}, err
	}

	series, ok := ds[name]
	if !ok {
		return domain.CountrySeries{}, fmt.Errorf("%w: %s", ErrCountryNotFound, name)
	}
	if ppp == 0 {
		return series, nil
	}

	filtered := domain.CountrySeries{Static: series.Static}
	for _, rec := range series.Data {
		if v, ok := intField(rec, domain.ColPPPVersion); ok && v == ppp {
			filtered.Data = append(filtered.Data, rec)
		}
	}
	return filtered, nil
}

func summarize(name string, series domain.CountrySeries) CountrySummary {
	sum := CountrySummary{Country: name, Observations: len(series.Data), PPPVersions: []int{}}
	versions := make(map[int]bool)
	for _, rec := range series.Data {
		if year, ok := intField(rec, domain.ColYearPublic); ok {
			if sum.FirstYear == 0 || year < sum.FirstYear {
				sum.FirstYear = year
			}
			if year > sum.LastYear {
				sum.LastYear = year
			}
		}
		if v, ok := intField(rec, domain.ColPPPVersion); ok && !versions[v] {
			versions[v] = true
			sum.PPPVersions = append(sum.PPPVersions, v)
		}
	}
	sort.Ints(sum.PPPVersions)
	return sum
}

// intField reads a whole-number JSON field, which decodes as float64
func intField(rec map[string]interface{}, key string) (int, bool) {
	switch v := rec[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
