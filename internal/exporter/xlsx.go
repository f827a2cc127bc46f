package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"povcli/internal/table"
)

// SheetName is the single worksheet of the workbook export
const SheetName = "Sheet1"

// WriteXLSX writes f as a workbook with a header row. Numbers are stored as
// numbers rounded to three decimals; nulls are left blank.
func WriteXLSX(path string, f *table.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	if name := wb.GetSheetName(0); name != SheetName {
		if err := wb.SetSheetName(name, SheetName); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	}

	sw, err := wb.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	cols := f.Columns()
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range f.Rows() {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = cellValue(c, r.Get(c), true)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
