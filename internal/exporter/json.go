package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// BuildDataset groups f by country. Static columns are taken from a
// country's first row; every other column except country goes into that
// row's yearly record. Nulls are omitted and values other than country,
// year and iso_code are rounded to three decimals.
func BuildDataset(f *table.Frame, static []string) domain.Dataset {
	isStatic := make(map[string]bool, len(static))
	for _, c := range static {
		isStatic[c] = true
	}

	ds := make(domain.Dataset)
	for _, r := range f.Rows() {
		country := r.Text(domain.ColCountry)

		series, seen := ds[country]
		if !seen {
			series.Static = make(map[string]interface{})
			for _, c := range static {
				if v := cellValue(c, r.Get(c), !unroundedColumns[c]); v != nil {
					series.Static[c] = v
				}
			}
		}

		record := make(map[string]interface{})
		for _, c := range f.Columns() {
			if c == domain.ColCountry || isStatic[c] {
				continue
			}
			if v := cellValue(c, r.Get(c), !unroundedColumns[c]); v != nil {
				record[c] = v
			}
		}
		series.Data = append(series.Data, record)
		ds[country] = series
	}
	return ds
}

// WriteJSON encodes the per-country dataset with four-space indentation
func WriteJSON(out io.Writer, f *table.Frame, static []string) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	if err := enc.Encode(BuildDataset(f, static)); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}

// WriteJSONFile writes the per-country dataset to path
func WriteJSONFile(path string, f *table.Frame, static []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteJSON(file, f, static); err != nil {
		return err
	}
	return file.Close()
}

// ReadDataset decodes a JSON export
func ReadDataset(r io.Reader) (domain.Dataset, error) {
	var ds domain.Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, err
	}
	return ds, nil
}
