package pip

import (
	"context"
	"fmt"
	"log/slog"

	"povcli/internal/infrastructure"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Raw API column names
const (
	rawCountryName   = "country_name"
	rawRegionName    = "region_name"
	rawReportingYear = "reporting_year"
)

// CountrySet holds one poverty line's country rows split by welfare type.
// Combined prefers consumption when a country-year-level has both.
type CountrySet struct {
	Income      *table.Frame
	Consumption *table.Frame
	Combined    *table.Frame
}

// Assembler fetches and lightly reshapes per-entity data for one line
type Assembler struct {
	client Querier
	logger *slog.Logger
}

// NewAssembler creates an assembler over client
func NewAssembler(client Querier, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		client: client,
		logger: infrastructure.WithComponent(logger, "assembler"),
	}
}

// CountryData fetches all country surveys at lineCents in one request
func (a *Assembler) CountryData(ctx context.Context, lineCents, ppp int) (*CountrySet, error) {
	raw, err := a.client.Query(ctx, ForLine(domain.ScopeCountry, lineCents, ppp))
	if err != nil {
		return nil, fmt.Errorf("country data at line %d: %w", lineCents, err)
	}
	return SplitWelfare(NormalizeCountry(raw)), nil
}

// RegionData fetches the regional aggregates at lineCents
func (a *Assembler) RegionData(ctx context.Context, lineCents, ppp int) (*table.Frame, error) {
	raw, err := a.client.Query(ctx, ForLine(domain.ScopeRegion, lineCents, ppp))
	if err != nil {
		return nil, fmt.Errorf("region data at line %d: %w", lineCents, err)
	}
	return NormalizeRegion(raw), nil
}

// NormalizeCountry renames the raw country columns to the survey key and
// the raw decile columns to decile shares, and tags each row as a country.
func NormalizeCountry(raw *table.Frame) *table.Frame {
	names := map[string]string{
		rawCountryName:   domain.ColEntity,
		rawReportingYear: domain.ColYear,
	}
	for n := 1; n <= 10; n++ {
		names[fmt.Sprintf("decile%d", n)] = domain.DecileShare(n)
	}
	f := raw.Rename(names)
	f.Apply(domain.ColScope, func(table.Row) table.Value { return table.Str(string(domain.ScopeCountry)) })
	return f
}

// NormalizeRegion renames the raw region columns, blanks the survey
// dimensions regions do not have and tags each row as a region.
func NormalizeRegion(raw *table.Frame) *table.Frame {
	f := raw.Rename(map[string]string{
		rawRegionName:    domain.ColEntity,
		rawReportingYear: domain.ColYear,
	})
	f.Apply(domain.ColReportingLevel, func(table.Row) table.Value { return table.Str("") })
	f.Apply(domain.ColWelfareType, func(table.Row) table.Value { return table.Str("") })
	f.Apply(domain.ColScope, func(table.Row) table.Value { return table.Str(string(domain.ScopeRegion)) })
	return f
}

// SplitWelfare partitions country rows by welfare type and builds the
// combined view.
func SplitWelfare(f *table.Frame) *CountrySet {
	isType := func(wt domain.WelfareType) func(table.Row) bool {
		return func(r table.Row) bool { return r.Text(domain.ColWelfareType) == string(wt) }
	}
	return &CountrySet{
		Income:      f.Filter(isType(domain.WelfareIncome)),
		Consumption: f.Filter(isType(domain.WelfareConsumption)),
		Combined:    CombineWelfare(f),
	}
}

// CombineWelfare keeps one welfare type per (Entity, Year, reporting_level):
// where income and consumption both exist only consumption survives. Rows
// are sorted with income ahead of consumption within each key; every row of
// a multi-row key is flagged and only the consumption rows among flagged
// rows are kept.
func CombineWelfare(f *table.Frame) *table.Frame {
	welfareRank := func(r table.Row) int {
		if r.Text(domain.ColWelfareType) == string(domain.WelfareConsumption) {
			return 1
		}
		return 0
	}

	sorted := f.SortStable(func(a, b table.Row) bool {
		for _, col := range []string{domain.ColEntity, domain.ColYear, domain.ColReportingLevel} {
			if c := table.Compare(a.Get(col), b.Get(col)); c != 0 {
				return c < 0
			}
		}
		return welfareRank(a) < welfareRank(b)
	})

	key := []string{domain.ColEntity, domain.ColYear, domain.ColReportingLevel}
	_, groups := sorted.GroupIndex(key...)
	keep := make([]bool, sorted.Len())
	for _, idx := range groups {
		if len(idx) == 1 {
			keep[idx[0]] = true
			continue
		}
		for _, i := range idx {
			keep[i] = welfareRank(sorted.Row(i)) == 1
		}
	}

	return sorted.Mask(keep)
}
