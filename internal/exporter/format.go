package exporter

import (
	"strconv"

	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Decimals is the precision of every published non-index number
const Decimals = 3

// integerColumns are written without decimals
var integerColumns = map[string]bool{
	domain.ColYearPublic: true,
	domain.ColPPPVersion: true,
}

// unroundedColumns keep their values as is in the JSON export
var unroundedColumns = map[string]bool{
	domain.ColCountry:    true,
	domain.ColYearPublic: true,
	"iso_code":           true,
}

// formatFloat formats a float64 value for CSV output with exactly 3 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', Decimals, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatCell renders one cell of col. Nulls are empty.
func formatCell(col string, v table.Value) string {
	if v.IsNull() {
		return ""
	}
	f, ok := v.Float()
	if !ok {
		return v.String()
	}
	if integerColumns[col] {
		return formatInt(int64(f))
	}
	return formatFloat(f)
}

// cellValue returns the native value of a cell for XLSX and JSON, or nil
// for null.
func cellValue(col string, v table.Value, round bool) interface{} {
	if v.IsNull() {
		return nil
	}
	f, ok := v.Float()
	if !ok {
		return v.String()
	}
	if integerColumns[col] {
		return int64(f)
	}
	if round {
		f, _ = v.Round(Decimals).Float()
	}
	return f
}
