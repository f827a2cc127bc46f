package standardize

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CodebookColumnHeader names the codebook column holding column names
const CodebookColumnHeader = "column"

// Codebook declares the published columns, in order
type Codebook struct {
	Columns      []string
	Descriptions map[string]string
}

// LoadCodebook reads the codebook CSV
func LoadCodebook(path string) (*Codebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open codebook: %w", err)
	}
	defer f.Close()
	return ReadCodebook(f)
}

// ReadCodebook parses a codebook with a "column" header and an optional
// "description" header.
func ReadCodebook(r io.Reader) (*Codebook, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read codebook header: %w", err)
	}

	colIdx, descIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case CodebookColumnHeader:
			colIdx = i
		case "description":
			descIdx = i
		}
	}
	if colIdx < 0 {
		return nil, fmt.Errorf("codebook has no %q column", CodebookColumnHeader)
	}

	cb := &Codebook{Descriptions: make(map[string]string)}
	seen := make(map[string]bool)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read codebook: %w", err)
		}
		col := rec[colIdx]
		if seen[col] {
			return nil, fmt.Errorf("codebook declares %q twice", col)
		}
		seen[col] = true
		cb.Columns = append(cb.Columns, col)
		if descIdx >= 0 {
			cb.Descriptions[col] = rec[descIdx]
		}
	}
	if len(cb.Columns) == 0 {
		return nil, fmt.Errorf("codebook declares no columns")
	}
	return cb, nil
}

// Has reports whether col is declared
func (cb *Codebook) Has(col string) bool {
	for _, c := range cb.Columns {
		if c == col {
			return true
		}
	}
	return false
}
