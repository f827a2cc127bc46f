package poverty

import (
	"context"
	"log/slog"
	"math"

	"povcli/internal/infrastructure"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Tolerance of the stacked percentage sum around 100
const stackedSumTolerance = 0.1

// QualityFilter is one row-level consistency check. Rows for which Keep
// returns false are dropped.
type QualityFilter struct {
	Name string
	Keep func(table.Row) bool
}

// QualityFilters returns the checks applied after Derive, in order:
// stacked percentages sum to 100, no required value is missing, headcounts
// never decrease as the line rises.
func QualityFilters(lines []int) []QualityFilter {
	return []QualityFilter{
		{Name: "stacked_sum", Keep: stackedSumOK(lines)},
		{Name: "required_not_null", Keep: requiredPresent(lines)},
		{Name: "headcount_monotonic", Keep: monotonic(lines)},
	}
}

// FilterQuality applies the checks to every row, country surveys and
// region aggregates alike.
func FilterQuality(ctx context.Context, f *table.Frame, filters []QualityFilter, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *table.Frame {
	if logger == nil {
		logger = slog.Default()
	}
	for _, qf := range filters {
		before := f.Len()
		f = f.Filter(qf.Keep)
		dropped := before - f.Len()

		logger.InfoContext(ctx, "quality_filter_applied",
			slog.String("filter", qf.Name),
			slog.Int("rows_before", before),
			slog.Int("rows_after", f.Len()),
			slog.Int("rows_dropped", dropped))
		metrics.RecordRowsDropped(ctx, qf.Name, dropped)
	}
	return f
}

// StackedSum adds up the stacked percentage bands, skipping missing ones
func StackedSum(r table.Row, lines []int) float64 {
	var sum float64
	for _, c := range stackedColumns(domain.HeadcountRatio, lines) {
		if v, ok := r.Float(c); ok {
			sum += v
		}
	}
	return sum
}

func stackedSumOK(lines []int) func(table.Row) bool {
	return func(r table.Row) bool {
		return math.Abs(StackedSum(r, lines)-100) <= stackedSumTolerance+1e-9
	}
}

// RequiredColumns lists the columns a published row must have
func RequiredColumns(lines []int) []string {
	var cols []string
	for _, l := range lines {
		for _, m := range []string{domain.Headcount, domain.HeadcountRatio, domain.PovertyGapIndex, domain.TotalShortfall} {
			cols = append(cols, domain.LineColumn(m, l))
		}
	}
	cols = append(cols, stackedColumns(domain.Headcount, lines)...)
	return append(cols, stackedColumns(domain.HeadcountRatio, lines)...)
}

func requiredPresent(lines []int) func(table.Row) bool {
	cols := RequiredColumns(lines)
	return func(r table.Row) bool {
		for _, c := range cols {
			if r.Get(c).IsNull() {
				return false
			}
		}
		return true
	}
}

// monotonic requires headcount at each line to be at least the headcount at
// the previous line. A missing headcount fails the check.
func monotonic(lines []int) func(table.Row) bool {
	return func(r table.Row) bool {
		for i := 1; i < len(lines); i++ {
			prev, ok1 := r.Float(domain.LineColumn(domain.Headcount, lines[i-1]))
			cur, ok2 := r.Float(domain.LineColumn(domain.Headcount, lines[i]))
			if !ok1 || !ok2 || cur < prev {
				return false
			}
		}
		return true
	}
}
