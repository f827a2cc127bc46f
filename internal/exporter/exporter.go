package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"povcli/internal/config"
	apperrors "povcli/internal/errors"
	"povcli/internal/infrastructure"
	"povcli/internal/table"
)

// Exporter writes the combined dataset in every published format
type Exporter struct {
	paths  *config.Paths
	static []string
	csv    *CSVWriter
	logger *slog.Logger
}

// NewExporter creates an exporter writing to the configured output files.
// static lists the JSON columns that sit at country level.
func NewExporter(paths *config.Paths, static []string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "exporter")
	return &Exporter{
		paths:  paths,
		static: static,
		csv:    NewCSVWriter(paths, logger),
		logger: logger,
	}
}

// ExportAll writes the CSV, XLSX and JSON files
func (e *Exporter) ExportAll(ctx context.Context, f *table.Frame) error {
	ctx, span := infrastructure.Tracer().Start(ctx, "exporter.ExportAll",
		trace.WithAttributes(attribute.Int("rows", f.Len())))
	defer span.End()

	writers := []struct {
		format string
		path   string
		write  func() error
	}{
		{"csv", e.paths.CSVFile, func() error { return e.csv.WriteFrame(e.paths.CSVFile, f) }},
		{"xlsx", e.paths.XLSXFile, func() error { return WriteXLSX(e.paths.XLSXFile, f) }},
		{"json", e.paths.JSONFile, func() error { return WriteJSONFile(e.paths.JSONFile, f, e.static) }},
	}

	for _, w := range writers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.write(); err != nil {
			infrastructure.RecordError(ctx, err)
			return apperrors.NewStorageError(fmt.Sprintf("write %s export", w.format), err).
				WithContext("path", w.path)
		}
		e.logger.InfoContext(ctx, "dataset exported",
			slog.String("format", w.format),
			slog.String("path", w.path),
			slog.Int("rows", f.Len()))
	}
	return nil
}
