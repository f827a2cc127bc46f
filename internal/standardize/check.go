package standardize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// CheckDataset verifies a published table: its columns are exactly the
// codebook's in order, column names are lowercase without whitespace, and
// every row has at least one value besides country and year. All problems
// are returned joined.
func CheckDataset(f *table.Frame, codebook *Codebook) error {
	var errs []error

	cols := f.Columns()
	if !equalStrings(cols, codebook.Columns) {
		errs = append(errs, fmt.Errorf("columns are not identical to the codebook or not in its order"))
	}

	var spaced, upper []string
	for _, c := range cols {
		if strings.IndexFunc(c, unicode.IsSpace) >= 0 {
			spaced = append(spaced, c)
		}
		if c != strings.ToLower(c) {
			upper = append(upper, c)
		}
	}
	if len(spaced) > 0 {
		errs = append(errs, fmt.Errorf("columns contain whitespace: %v", spaced))
	}
	if len(upper) > 0 {
		errs = append(errs, fmt.Errorf("columns contain uppercase characters: %v", upper))
	}

	empty := 0
	for _, r := range f.Rows() {
		if allNull(r, cols) {
			empty++
		}
	}
	if empty > 0 {
		errs = append(errs, fmt.Errorf("%d row(s) contain no values besides the index", empty))
	}

	return errors.Join(errs...)
}

func allNull(r table.Row, cols []string) bool {
	for _, c := range cols {
		if c == domain.ColCountry || c == domain.ColYearPublic {
			continue
		}
		if !r.Get(c).IsNull() {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
