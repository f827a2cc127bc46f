package operations

import (
	"fmt"
	"log/slog"
	"sort"

	"povcli/internal/config"
	"povcli/internal/infrastructure"
	"povcli/internal/pip"
	"povcli/internal/poverty"
	"povcli/internal/standardize"
)

// Dependencies wires the pipeline steps to their collaborators
type Dependencies struct {
	Pipeline config.PipelineConfig
	// Client answers relative poverty queries
	Client pip.Querier
	// Source supplies per-line country and region tables
	Source   poverty.EntitySource
	Mapping  standardize.EntityMapping
	Codebook *standardize.Codebook
	Exporter DatasetExporter
	// Uploader is optional; nil leaves the upload step out
	Uploader      FileUploader
	UploadedFiles []string
	Logger        *slog.Logger
	Metrics       *infrastructure.PipelineMetrics
}

// BuildPipeline registers the per-version steps for every configured PPP
// version, then combine, export and the optional upload.
func BuildPipeline(deps Dependencies) (*Registry, error) {
	if deps.Client == nil || deps.Source == nil {
		return nil, fmt.Errorf("pipeline needs an API client and an entity source")
	}
	if deps.Codebook == nil {
		return nil, fmt.Errorf("pipeline needs a codebook")
	}
	if deps.Exporter == nil {
		return nil, fmt.Errorf("pipeline needs an exporter")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pc := deps.Pipeline
	versions := append([]int(nil), pc.PPPVersions...)
	sort.Ints(versions)

	registry := NewRegistry()
	standardizer := standardize.NewStandardizer(deps.Mapping, pc.StrictEntityMapping, logger)

	for _, ppp := range versions {
		lines, ok := pc.PovertyLines[ppp]
		if !ok || len(lines) == 0 {
			return nil, fmt.Errorf("no poverty lines configured for PPP %d", ppp)
		}
		lines = append([]int(nil), lines...)
		sort.Ints(lines)

		steps := []Step{
			NewKeyIndicatorsStage(ppp, poverty.NewAggregator(deps.Source, lines, ppp, logger), logger),
			NewPercentilesStage(ppp, poverty.NewPercentileMatcher(deps.Source, ppp, pc.PercentileBands, logger), logger),
			NewMedianPatchStage(ppp, logger),
			NewRelativePovertyStage(ppp, poverty.NewRelativePoverty(deps.Client, ppp, pc.RelativeShares, logger)),
			NewDerivedStage(ppp, lines, pc.JumpBands[ppp], logger, deps.Metrics),
			NewStandardizeStage(ppp, standardizer),
		}
		for _, step := range steps {
			if err := registry.Register(step); err != nil {
				return nil, err
			}
		}
	}

	final := []Step{
		NewCombineStage(versions, deps.Codebook, logger),
		NewExportStage(deps.Exporter),
	}
	if deps.Uploader != nil {
		final = append(final, NewUploadStage(deps.Uploader, deps.UploadedFiles))
	}
	for _, step := range final {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}

	if err := registry.ValidateDependencies(); err != nil {
		return nil, err
	}
	logger.Info("pipeline built",
		slog.Any("ppp_versions", versions),
		slog.Int("steps", registry.Count()))
	return registry, nil
}
