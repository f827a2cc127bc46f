package standardize

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	apperrors "povcli/internal/errors"
	"povcli/internal/infrastructure"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Raw code columns folded into iso_code
const (
	colCountryCode = "country_code"
	colRegionCode  = "region_code"
	ColISOCode     = "iso_code"
)

// Result is one standardized PPP vintage. Quarantined holds the rows whose
// entity had no canonical name, when not running strict.
type Result struct {
	Data        *table.Frame
	Quarantined *table.Frame
}

// Standardizer shapes pipeline output into the public schema
type Standardizer struct {
	mapping EntityMapping
	strict  bool
	logger  *slog.Logger
}

// NewStandardizer creates a standardizer. In strict mode any unmapped
// entity fails the run with *errors.UnmappedEntityError.
func NewStandardizer(mapping EntityMapping, strict bool, logger *slog.Logger) *Standardizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Standardizer{
		mapping: mapping,
		strict:  strict,
		logger:  infrastructure.WithComponent(logger, "standardizer"),
	}
}

// Standardize maps entity names, drops the internal above and stacked
// columns, renames the index to the public names and tags the PPP version.
func (s *Standardizer) Standardize(ctx context.Context, f *table.Frame, ppp int) (*Result, error) {
	unmapped := make(map[string]bool)
	for _, r := range f.Rows() {
		if _, ok := s.mapping[r.Text(domain.ColEntity)]; !ok {
			unmapped[r.Text(domain.ColEntity)] = true
		}
	}

	var quarantined *table.Frame
	if len(unmapped) > 0 {
		names := make([]string, 0, len(unmapped))
		for n := range unmapped {
			names = append(names, n)
		}
		sort.Strings(names)

		if s.strict {
			return nil, &apperrors.UnmappedEntityError{Names: names}
		}

		quarantined = f.Filter(func(r table.Row) bool { return unmapped[r.Text(domain.ColEntity)] })
		f = f.Filter(func(r table.Row) bool { return !unmapped[r.Text(domain.ColEntity)] })
		s.logger.WarnContext(ctx, "unmapped entities quarantined",
			slog.Int("ppp_version", ppp),
			slog.Int("rows", quarantined.Len()),
			slog.Any("entities", names))
	} else {
		f = f.Clone()
	}

	f.Apply(domain.ColEntity, func(r table.Row) table.Value {
		return table.Str(s.mapping[r.Text(domain.ColEntity)])
	})
	if f.HasColumn(colCountryCode) || f.HasColumn(colRegionCode) {
		f.Apply(ColISOCode, func(r table.Row) table.Value {
			if v := r.Get(colCountryCode); !v.IsNull() {
				return v
			}
			return r.Get(colRegionCode)
		})
	}
	f.Apply(domain.ColPPPVersion, func(table.Row) table.Value { return table.Int(ppp) })

	f = f.Drop(colCountryCode, colRegionCode).
		DropWhere(IsInternalColumn).
		Rename(map[string]string{
			domain.ColEntity: domain.ColCountry,
			domain.ColYear:   domain.ColYearPublic,
		})

	s.logger.InfoContext(ctx, "vintage standardized",
		slog.Int("ppp_version", ppp),
		slog.Int("rows", f.Len()),
		slog.Int("columns", len(f.Columns())))

	return &Result{Data: reorder(f), Quarantined: quarantined}, nil
}

// IsInternalColumn reports whether col is a working column left out of the
// public output.
func IsInternalColumn(col string) bool {
	return col == domain.ColScope || strings.Contains(col, "_above_") || strings.Contains(col, "_stacked_")
}

// reorder puts the public index first and keeps the remaining order
func reorder(f *table.Frame) *table.Frame {
	cols := append([]string{}, domain.PublicIndex...)
	for _, c := range f.Columns() {
		isIndex := false
		for _, ic := range domain.PublicIndex {
			if c == ic {
				isIndex = true
				break
			}
		}
		if !isIndex {
			cols = append(cols, c)
		}
	}
	return f.Select(cols...)
}
