package poverty

import (
	"context"
	"log/slog"

	"povcli/internal/infrastructure"
	"povcli/internal/pip"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

const colCountryCode = "country_code"

// RelativePoverty measures poverty at shares of each survey's median
type RelativePoverty struct {
	client pip.Querier
	ppp    int
	shares []int
	logger *slog.Logger
}

// NewRelativePoverty creates the relative poverty stage. shares are
// percentages of the median, e.g. 40, 50, 60.
func NewRelativePoverty(client pip.Querier, ppp int, shares []int, logger *slog.Logger) *RelativePoverty {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelativePoverty{
		client: client,
		ppp:    ppp,
		shares: shares,
		logger: infrastructure.WithComponent(logger, "relative_poverty"),
	}
}

// Columns lists the columns Apply adds, in share then measurement order
func (rp *RelativePoverty) Columns() []string {
	var cols []string
	for _, share := range rp.shares {
		for _, m := range domain.Measurements {
			cols = append(cols, domain.RelativeColumn(m, share))
		}
	}
	return cols
}

// Apply adds the relative poverty columns to every country row with a
// median. A failed query leaves that row's columns null and is logged; only
// cancellation of ctx aborts the stage.
func (rp *RelativePoverty) Apply(ctx context.Context, wide *table.Frame) (*table.Frame, error) {
	out := wide.Clone()
	for _, c := range rp.Columns() {
		out.AddColumn(c)
	}

	var queried, failed int
	for i, r := range out.Rows() {
		if isRegion(r) {
			continue
		}
		median, ok := r.Float(domain.ColMedian)
		if !ok || median <= 0 {
			continue
		}

		for _, share := range rp.shares {
			queried++
			values, err := rp.measureAt(ctx, r, median*float64(share)/100)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				failed++
				rp.logger.WarnContext(ctx, "relative poverty query failed",
					slog.String("entity", r.Text(domain.ColEntity)),
					slog.String("year", r.Text(domain.ColYear)),
					slog.String("welfare_type", r.Text(domain.ColWelfareType)),
					slog.Int("share", share),
					slog.String("error", err.Error()))
				continue
			}
			for _, m := range domain.Measurements {
				out.Set(i, domain.RelativeColumn(m, share), values.Get(m))
			}
		}
	}

	rp.logger.InfoContext(ctx, "relative poverty measured",
		slog.Int("queries", queried),
		slog.Int("failed", failed))
	return out, nil
}

// measureAt queries one survey at a line in dollars and returns its
// measured row, or a null row if the API has no match.
func (rp *RelativePoverty) measureAt(ctx context.Context, r table.Row, lineDollars float64) (table.Row, error) {
	country := r.Text(colCountryCode)
	if country == "" {
		country = r.Text(domain.ColEntity)
	}

	raw, err := rp.client.Query(ctx, pip.Query{
		Scope:          domain.ScopeCountry,
		PovertyLine:    lineDollars,
		Country:        country,
		Year:           r.Text(domain.ColYear),
		WelfareType:    r.Text(domain.ColWelfareType),
		ReportingLevel: r.Text(domain.ColReportingLevel),
		FillGaps:       false,
		PPPVersion:     rp.ppp,
	})
	if err != nil {
		return nil, err
	}

	measured := Measure(pip.NormalizeCountry(raw), lineDollars)
	for _, m := range measured.Rows() {
		if m.Text(domain.ColWelfareType) == r.Text(domain.ColWelfareType) &&
			m.Text(domain.ColReportingLevel) == r.Text(domain.ColReportingLevel) {
			return m, nil
		}
	}
	return table.Row{}, nil
}
