package operations

import (
	"context"
	"fmt"
	"log/slog"

	"povcli/internal/config"
	"povcli/internal/infrastructure"
	"povcli/internal/poverty"
	"povcli/internal/standardize"
	"povcli/internal/table"
)

// DatasetExporter writes the combined dataset to disk
type DatasetExporter interface {
	ExportAll(ctx context.Context, f *table.Frame) error
}

// FileUploader publishes local files
type FileUploader interface {
	UploadFiles(ctx context.Context, files []string) error
}

// KeyIndicatorsStage builds the wide multi-line table for one PPP version
type KeyIndicatorsStage struct {
	BaseStage
	ppp        int
	aggregator *poverty.Aggregator
	logger     *slog.Logger
}

// NewKeyIndicatorsStage creates the key indicators step
func NewKeyIndicatorsStage(ppp int, aggregator *poverty.Aggregator, logger *slog.Logger) *KeyIndicatorsStage {
	return &KeyIndicatorsStage{
		BaseStage:  NewBaseStage(StepID(StageIDKeyIndicators, ppp), versionName(StageNameKeyIndicators, ppp), nil),
		ppp:        ppp,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Execute fetches every configured line and stores the wide table
func (s *KeyIndicatorsStage) Execute(ctx context.Context, state *OperationState) error {
	wide, err := s.aggregator.KeyIndicators(ctx)
	if err != nil {
		return err
	}
	state.SetContext(VersionKey(ContextKeyWide, s.ppp), wide)
	state.GetStage(s.ID()).SetMetadata("rows", wide.Len())
	return nil
}

// PercentilesStage matches every target percentile to a poverty line
type PercentilesStage struct {
	BaseStage
	ppp     int
	matcher *poverty.PercentileMatcher
	logger  *slog.Logger
}

// NewPercentilesStage creates the percentile matching step
func NewPercentilesStage(ppp int, matcher *poverty.PercentileMatcher, logger *slog.Logger) *PercentilesStage {
	return &PercentilesStage{
		BaseStage: NewBaseStage(StepID(StageIDPercentiles, ppp), versionName(StageNamePercentiles, ppp), nil),
		ppp:       ppp,
		matcher:   matcher,
		logger:    logger,
	}
}

// Execute builds the candidate grid and keeps the nearest match per target
func (s *PercentilesStage) Execute(ctx context.Context, state *OperationState) error {
	grid, err := s.matcher.BuildGrid(ctx)
	if err != nil {
		return err
	}
	entries := poverty.Match(grid)
	state.SetContext(VersionKey(ContextKeyPercentiles, s.ppp), entries)

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("grid_rows", grid.Len())
	stepState.SetMetadata("entries", len(entries))
	return nil
}

// MedianPatchStage attaches decile thresholds and fills missing medians
type MedianPatchStage struct {
	BaseStage
	ppp    int
	logger *slog.Logger
}

// NewMedianPatchStage creates the median patch step
func NewMedianPatchStage(ppp int, logger *slog.Logger) *MedianPatchStage {
	return &MedianPatchStage{
		BaseStage: NewBaseStage(StepID(StageIDMedianPatch, ppp), versionName(StageNameMedianPatch, ppp), []string{
			StepID(StageIDKeyIndicators, ppp),
			StepID(StageIDPercentiles, ppp),
		}),
		ppp:    ppp,
		logger: logger,
	}
}

// Validate checks both inputs are present
func (s *MedianPatchStage) Validate(state *OperationState) error {
	if _, err := state.Frame(VersionKey(ContextKeyWide, s.ppp)); err != nil {
		return err
	}
	_, err := state.Entries(VersionKey(ContextKeyPercentiles, s.ppp))
	return err
}

// Execute merges the decile thresholds then patches medians from P50
func (s *MedianPatchStage) Execute(ctx context.Context, state *OperationState) error {
	wide, err := state.Frame(VersionKey(ContextKeyWide, s.ppp))
	if err != nil {
		return err
	}
	entries, err := state.Entries(VersionKey(ContextKeyPercentiles, s.ppp))
	if err != nil {
		return err
	}

	withThresholds, err := poverty.AttachThresholds(wide, entries)
	if err != nil {
		return fmt.Errorf("attach decile thresholds: %w", err)
	}
	patched, stats, err := poverty.PatchMedian(ctx, withThresholds, entries, s.logger)
	if err != nil {
		return err
	}

	state.SetContext(VersionKey(ContextKeyWide, s.ppp), patched)
	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("patched", stats.Patched)
	stepState.SetMetadata("mismatches", stats.Mismatches)
	return nil
}

// RelativePovertyStage adds the 40/50/60% of median measurements
type RelativePovertyStage struct {
	BaseStage
	ppp      int
	relative *poverty.RelativePoverty
}

// NewRelativePovertyStage creates the relative poverty step
func NewRelativePovertyStage(ppp int, relative *poverty.RelativePoverty) *RelativePovertyStage {
	return &RelativePovertyStage{
		BaseStage: NewBaseStage(StepID(StageIDRelativePoverty, ppp), versionName(StageNameRelativePoverty, ppp), []string{
			StepID(StageIDMedianPatch, ppp),
		}),
		ppp:      ppp,
		relative: relative,
	}
}

// Execute queries each survey at shares of its median
func (s *RelativePovertyStage) Execute(ctx context.Context, state *OperationState) error {
	wide, err := state.Frame(VersionKey(ContextKeyWide, s.ppp))
	if err != nil {
		return err
	}
	out, err := s.relative.Apply(ctx, wide)
	if err != nil {
		return err
	}
	state.SetContext(VersionKey(ContextKeyWide, s.ppp), out)
	return nil
}

// DerivedStage computes derived columns and drops rows failing the
// quality filters
type DerivedStage struct {
	BaseStage
	ppp     int
	lines   []int
	jumps   []config.JumpBand
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewDerivedStage creates the derived variables step
func NewDerivedStage(ppp int, lines []int, jumps []config.JumpBand, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *DerivedStage {
	return &DerivedStage{
		BaseStage: NewBaseStage(StepID(StageIDDerived, ppp), versionName(StageNameDerived, ppp), []string{
			StepID(StageIDRelativePoverty, ppp),
		}),
		ppp:     ppp,
		lines:   lines,
		jumps:   jumps,
		logger:  logger,
		metrics: metrics,
	}
}

// Execute derives the stacked bands and ratios, then filters
func (s *DerivedStage) Execute(ctx context.Context, state *OperationState) error {
	wide, err := state.Frame(VersionKey(ContextKeyWide, s.ppp))
	if err != nil {
		return err
	}
	before := wide.Len()
	derived := poverty.Derive(wide, s.lines, s.jumps)
	filtered := poverty.FilterQuality(ctx, derived, poverty.QualityFilters(s.lines), s.logger, s.metrics)

	state.SetContext(VersionKey(ContextKeyWide, s.ppp), filtered)
	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("rows_before", before)
	stepState.SetMetadata("rows_after", filtered.Len())
	return nil
}

// StandardizeStage maps entity names and renames to the public schema
type StandardizeStage struct {
	BaseStage
	ppp          int
	standardizer *standardize.Standardizer
}

// NewStandardizeStage creates the standardization step
func NewStandardizeStage(ppp int, standardizer *standardize.Standardizer) *StandardizeStage {
	return &StandardizeStage{
		BaseStage: NewBaseStage(StepID(StageIDStandardize, ppp), versionName(StageNameStandardize, ppp), []string{
			StepID(StageIDDerived, ppp),
		}),
		ppp:          ppp,
		standardizer: standardizer,
	}
}

// Execute standardizes the version's table. Unmapped rows are kept aside
// under the quarantine key.
func (s *StandardizeStage) Execute(ctx context.Context, state *OperationState) error {
	wide, err := state.Frame(VersionKey(ContextKeyWide, s.ppp))
	if err != nil {
		return err
	}
	res, err := s.standardizer.Standardize(ctx, wide, s.ppp)
	if err != nil {
		return err
	}

	state.SetContext(VersionKey(ContextKeyStandard, s.ppp), res.Data)
	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("rows", res.Data.Len())
	if res.Quarantined != nil {
		state.SetContext(VersionKey(ContextKeyQuarantine, s.ppp), res.Quarantined)
		stepState.SetMetadata("quarantined", res.Quarantined.Len())
	}
	return nil
}

// CombineStage concatenates the PPP versions under the codebook schema
type CombineStage struct {
	BaseStage
	versions []int
	codebook *standardize.Codebook
	logger   *slog.Logger
}

// NewCombineStage creates the combine step over versions
func NewCombineStage(versions []int, codebook *standardize.Codebook, logger *slog.Logger) *CombineStage {
	deps := make([]string, 0, len(versions))
	for _, ppp := range versions {
		deps = append(deps, StepID(StageIDStandardize, ppp))
	}
	return &CombineStage{
		BaseStage: NewBaseStage(StageIDCombine, StageNameCombine, deps),
		versions:  versions,
		codebook:  codebook,
		logger:    logger,
	}
}

// Execute combines and checks the dataset
func (s *CombineStage) Execute(ctx context.Context, state *OperationState) error {
	frames := make([]*table.Frame, 0, len(s.versions))
	for _, ppp := range s.versions {
		f, err := state.Frame(VersionKey(ContextKeyStandard, ppp))
		if err != nil {
			return err
		}
		frames = append(frames, f)
	}

	combined, err := standardize.Combine(ctx, frames, s.codebook, s.logger)
	if err != nil {
		return err
	}
	if err := standardize.CheckDataset(combined, s.codebook); err != nil {
		return fmt.Errorf("dataset check failed: %w", err)
	}

	state.SetContext(ContextKeyDataset, combined)
	state.GetStage(s.ID()).SetMetadata("rows", combined.Len())
	return nil
}

// ExportStage writes the dataset files
type ExportStage struct {
	BaseStage
	exporter DatasetExporter
}

// NewExportStage creates the export step
func NewExportStage(exporter DatasetExporter) *ExportStage {
	return &ExportStage{
		BaseStage: NewBaseStage(StageIDExport, StageNameExport, []string{StageIDCombine}),
		exporter:  exporter,
	}
}

// Execute writes CSV, XLSX and JSON
func (s *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	f, err := state.Frame(ContextKeyDataset)
	if err != nil {
		return err
	}
	return s.exporter.ExportAll(ctx, f)
}

// UploadStage publishes the exported files
type UploadStage struct {
	BaseStage
	uploader FileUploader
	files    []string
}

// NewUploadStage creates the upload step for files
func NewUploadStage(uploader FileUploader, files []string) *UploadStage {
	return &UploadStage{
		BaseStage: NewBaseStage(StageIDUpload, StageNameUpload, []string{StageIDExport}),
		uploader:  uploader,
		files:     files,
	}
}

// Execute uploads every file
func (s *UploadStage) Execute(ctx context.Context, state *OperationState) error {
	if err := s.uploader.UploadFiles(ctx, s.files); err != nil {
		return err
	}
	state.GetStage(s.ID()).SetMetadata("files", len(s.files))
	return nil
}

func versionName(name string, ppp int) string {
	return fmt.Sprintf("%s (PPP %d)", name, ppp)
}
