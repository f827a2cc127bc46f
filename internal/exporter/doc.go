// Package exporter writes the published poverty dataset to disk.
//
// This package contains three writers sharing one frame:
//
// CSVWriter: CSV output with floats at three decimals and nulls left empty.
//
// WriteXLSX: a single-sheet workbook with a header row, numbers stored as
// numbers.
//
// WriteJSON: one object per country holding the static columns at the top
// level and the yearly, non-null observations under "data".
//
// Example usage:
//
//	exp := exporter.NewExporter(paths, cfg.Pipeline.StaticColumns, logger)
//	if err := exp.ExportAll(ctx, dataset); err != nil {
//		return err
//	}
package exporter
