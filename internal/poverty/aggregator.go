package poverty

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"povcli/internal/infrastructure"
	"povcli/internal/pip"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// EntitySource supplies country and region tables for one poverty line
type EntitySource interface {
	CountryData(ctx context.Context, lineCents, ppp int) (*pip.CountrySet, error)
	RegionData(ctx context.Context, lineCents, ppp int) (*table.Frame, error)
}

// Aggregator builds the wide key-indicator table over the configured lines
type Aggregator struct {
	source EntitySource
	lines  []int
	ppp    int
	logger *slog.Logger
}

// NewAggregator creates an aggregator for one PPP version. lines are in
// cents and ascending.
func NewAggregator(source EntitySource, lines []int, ppp int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		source: source,
		lines:  lines,
		ppp:    ppp,
		logger: infrastructure.WithComponent(logger, "aggregator"),
	}
}

// KeyIndicators fetches every line for countries and regions and returns
// one row per survey (countries) or entity-year (regions).
func (a *Aggregator) KeyIndicators(ctx context.Context) (*table.Frame, error) {
	countries := make([]*table.Frame, 0, len(a.lines))
	regions := make([]*table.Frame, 0, len(a.lines))

	for _, line := range a.lines {
		set, err := a.source.CountryData(ctx, line, a.ppp)
		if err != nil {
			return nil, err
		}
		countries = append(countries, Measure(set.Combined, domain.CentsToDollars(line)))

		reg, err := a.source.RegionData(ctx, line, a.ppp)
		if err != nil {
			return nil, err
		}
		regions = append(regions, Measure(reg, domain.CentsToDollars(line)))

		a.logger.InfoContext(ctx, "poverty line fetched",
			slog.Int("line_cents", line),
			slog.Int("ppp_version", a.ppp),
			slog.Int("country_rows", set.Combined.Len()),
			slog.Int("region_rows", reg.Len()))
	}

	countryWide := Pivot(countries, a.lines, domain.SurveyKey)
	regionWide := Pivot(regions, a.lines, domain.RegionKey)

	a.logger.InfoContext(ctx, "key indicators assembled",
		slog.Int("ppp_version", a.ppp),
		slog.Int("country_rows", countryWide.Len()),
		slog.Int("region_rows", regionWide.Len()))

	return table.Concat(countryWide, regionWide), nil
}

// Measure derives the poverty-line measurements of a raw table at a line in
// dollars: headcount = round(ratio * pop), total shortfall = gap * line *
// pop, average shortfall = total / headcount and income gap ratio =
// average / line. Ratio columns are returned as percentages.
func Measure(raw *table.Frame, lineDollars float64) *table.Frame {
	f := raw.Rename(map[string]string{
		rawHeadcount:  domain.HeadcountRatio,
		rawPovertyGap: domain.PovertyGapIndex,
	}).Drop(rawPopInPoverty, domain.ColPovertyLine)

	f.Apply(domain.Headcount, func(r table.Row) table.Value {
		return table.Num(math.Round(num(r, domain.HeadcountRatio) * num(r, domain.ColPopulation)))
	})
	f.Apply(domain.TotalShortfall, func(r table.Row) table.Value {
		return table.Num(num(r, domain.PovertyGapIndex) * lineDollars * num(r, domain.ColPopulation))
	})
	f.Apply(domain.AvgShortfall, func(r table.Row) table.Value {
		return table.Num(num(r, domain.TotalShortfall) / num(r, domain.Headcount))
	})
	f.Apply(domain.IncomeGapRatio, func(r table.Row) table.Value {
		return table.Num(num(r, domain.AvgShortfall) / lineDollars)
	})

	for _, col := range domain.PercentMeasurements {
		if !f.HasColumn(col) {
			continue
		}
		f.Apply(col, func(r table.Row) table.Value {
			return table.Num(num(r, col) * 100)
		})
	}
	return f
}

func isLineDependent(col string) bool {
	for _, m := range domain.Measurements {
		if m == col {
			return true
		}
	}
	return false
}

// Pivot reshapes one measured table per line into a single wide table keyed
// by key. Measurement columns get the line suffix; the remaining columns
// come from the first line in which a key appears. Keys keep the order of
// first appearance.
func Pivot(measured []*table.Frame, lines []int, key []string) *table.Frame {
	if len(measured) != len(lines) {
		panic(fmt.Sprintf("poverty: %d tables for %d lines", len(measured), len(lines)))
	}

	out := table.New(key...)
	index := make(map[string]int)

	for li, f := range measured {
		line := lines[li]
		for _, r := range f.Rows() {
			k := table.KeyOf(r, key)
			i, ok := index[k]
			if !ok {
				row := make(table.Row, len(r))
				for _, c := range f.Columns() {
					if !isLineDependent(c) {
						row[c] = r.Get(c)
					}
				}
				out.Append(row)
				i = out.Len() - 1
				index[k] = i
			}
			for _, m := range domain.Measurements {
				out.Set(i, domain.LineColumn(m, line), r.Get(m))
			}
		}
	}
	return out
}
