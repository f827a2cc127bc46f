package standardize

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entity mapping CSV headers
const (
	MappingRawColumn       = "Country"
	MappingCanonicalColumn = "Our World In Data Name"
)

// EntityMapping maps raw API entity names to canonical names
type EntityMapping map[string]string

// LoadEntityMapping reads the reference mapping file
func LoadEntityMapping(path string) (EntityMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entity mapping: %w", err)
	}
	defer f.Close()
	return ReadEntityMapping(f)
}

// ReadEntityMapping parses a mapping CSV with Country and canonical name
// columns. Later duplicates of a raw name override earlier ones.
func ReadEntityMapping(r io.Reader) (EntityMapping, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read entity mapping header: %w", err)
	}

	rawIdx, canonIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case MappingRawColumn:
			rawIdx = i
		case MappingCanonicalColumn:
			canonIdx = i
		}
	}
	if rawIdx < 0 || canonIdx < 0 {
		return nil, fmt.Errorf("entity mapping needs %q and %q columns, got %v", MappingRawColumn, MappingCanonicalColumn, header)
	}

	m := make(EntityMapping)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read entity mapping: %w", err)
		}
		raw, canon := strings.TrimSpace(rec[rawIdx]), strings.TrimSpace(rec[canonIdx])
		if raw == "" || canon == "" {
			continue
		}
		m[raw] = canon
	}
	return m, nil
}
