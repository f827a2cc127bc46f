package poverty

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"povcli/internal/config"
	apperrors "povcli/internal/errors"
	"povcli/internal/infrastructure"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Percentile targets matched for every survey
const (
	MinPercentile = 1
	MaxPercentile = 99
)

// Candidates expands the bands into the ascending grid of candidate lines,
// in cents.
func Candidates(bands []config.PercentileBand) []int {
	var out []int
	for _, b := range bands {
		if b.StepCents <= 0 {
			continue
		}
		for c := b.FromCents; c < b.ToCents; c += b.StepCents {
			out = append(out, c)
		}
	}
	return out
}

// PercentileMatcher finds, per survey, the candidate line whose headcount
// ratio is closest to each percentile.
type PercentileMatcher struct {
	source EntitySource
	ppp    int
	bands  []config.PercentileBand
	logger *slog.Logger
}

// NewPercentileMatcher creates a matcher over the configured bands
func NewPercentileMatcher(source EntitySource, ppp int, bands []config.PercentileBand, logger *slog.Logger) *PercentileMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PercentileMatcher{
		source: source,
		ppp:    ppp,
		bands:  bands,
		logger: infrastructure.WithComponent(logger, "percentile_matcher"),
	}
}

// BuildGrid queries the headcount ratio of every survey at every candidate
// line. The result has the survey key, poverty_line in dollars and
// headcount as a fraction, in candidate order.
func (m *PercentileMatcher) BuildGrid(ctx context.Context) (*table.Frame, error) {
	candidates := Candidates(m.bands)
	if len(candidates) == 0 {
		return nil, apperrors.NewConfigError("percentile bands produce no candidate lines", nil)
	}

	cols := append(append([]string{}, domain.SurveyKey...), domain.ColPovertyLine, rawHeadcount)
	grid := table.New(cols...)

	for i, cents := range candidates {
		set, err := m.source.CountryData(ctx, cents, m.ppp)
		if err != nil {
			return nil, fmt.Errorf("percentile grid at %d cents: %w", cents, err)
		}
		line := table.Num(domain.CentsToDollars(cents))
		for _, r := range set.Combined.Rows() {
			row := make(table.Row, len(cols))
			for _, c := range domain.SurveyKey {
				row[c] = r.Get(c)
			}
			row[domain.ColPovertyLine] = line
			row[rawHeadcount] = r.Get(rawHeadcount)
			grid.Append(row)
		}

		if (i+1)%100 == 0 {
			m.logger.InfoContext(ctx, "percentile grid progress",
				slog.Int("done", i+1),
				slog.Int("total", len(candidates)),
				slog.Int("ppp_version", m.ppp))
		}
	}

	m.logger.InfoContext(ctx, "percentile grid built",
		slog.Int("candidates", len(candidates)),
		slog.Int("rows", grid.Len()))
	return grid, nil
}

// Match returns, for every survey in grid and every target percentile, the
// first grid row with minimal |headcount - target/100|. Rows with a null
// headcount are never matched. Output is ordered by survey (first
// appearance) then target.
func Match(grid *table.Frame) []domain.PercentileEntry {
	order, groups := grid.GroupIndex(domain.SurveyKey...)
	out := make([]domain.PercentileEntry, 0, len(order)*(MaxPercentile-MinPercentile+1))

	for _, k := range order {
		idx := groups[k]
		first := grid.Row(idx[0])
		year, _ := first.Float(domain.ColYear)

		for target := MinPercentile; target <= MaxPercentile; target++ {
			goal := float64(target) / 100
			best, bestDist := -1, math.Inf(1)
			for _, i := range idx {
				hc, ok := grid.Row(i).Float(rawHeadcount)
				if !ok {
					continue
				}
				// strict comparison keeps the first minimum, as a stable
				// sort by distance would
				if d := math.Abs(hc - goal); d < bestDist {
					best, bestDist = i, d
				}
			}
			if best < 0 {
				continue
			}

			r := grid.Row(best)
			line, _ := r.Float(domain.ColPovertyLine)
			hc, _ := r.Float(rawHeadcount)
			out = append(out, domain.PercentileEntry{
				Entity:         first.Text(domain.ColEntity),
				Year:           int(year),
				ReportingLevel: first.Text(domain.ColReportingLevel),
				WelfareType:    first.Text(domain.ColWelfareType),
				Target:         target,
				PovertyLine:    line,
				Headcount:      hc,
				Distance:       bestDist,
			})
		}
	}
	return out
}

// Deciles keeps the entries whose target is a multiple of ten
func Deciles(entries []domain.PercentileEntry) []domain.PercentileEntry {
	var out []domain.PercentileEntry
	for _, e := range entries {
		if e.IsDecile() {
			out = append(out, e)
		}
	}
	return out
}

// P50 keeps the median entries
func P50(entries []domain.PercentileEntry) []domain.PercentileEntry {
	var out []domain.PercentileEntry
	for _, e := range entries {
		if e.Target == 50 {
			out = append(out, e)
		}
	}
	return out
}

func keyRow(e domain.PercentileEntry) table.Row {
	return table.Row{
		domain.ColEntity:         table.Str(e.Entity),
		domain.ColYear:           table.Int(e.Year),
		domain.ColReportingLevel: table.Str(e.ReportingLevel),
		domain.ColWelfareType:    table.Str(e.WelfareType),
	}
}

// ThresholdsFrame pivots decile entries into one row per survey with
// decile1_thr to decile9_thr.
func ThresholdsFrame(entries []domain.PercentileEntry) *table.Frame {
	cols := append([]string{}, domain.SurveyKey...)
	for n := 1; n <= 9; n++ {
		cols = append(cols, domain.DecileThreshold(n))
	}
	f := table.New(cols...)
	index := make(map[string]int)

	for _, e := range Deciles(entries) {
		r := keyRow(e)
		k := table.KeyOf(r, domain.SurveyKey)
		i, ok := index[k]
		if !ok {
			f.Append(r)
			i = f.Len() - 1
			index[k] = i
		}
		f.Set(i, domain.DecileThreshold(e.Decile()), table.Num(e.PovertyLine))
	}
	return f
}

// AttachThresholds merges the decile thresholds onto the wide table. Each
// survey has at most one threshold row.
func AttachThresholds(wide *table.Frame, entries []domain.PercentileEntry) (*table.Frame, error) {
	out, err := table.Merge(wide, ThresholdsFrame(entries), table.MergeOptions{
		On:       domain.SurveyKey,
		How:      table.JoinLeft,
		Validate: table.CardinalityManyToOne,
	})
	if err != nil {
		return nil, fmt.Errorf("attach decile thresholds: %w", err)
	}
	return out, nil
}
