package poverty

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

const (
	colMedianP50      = "median_p50"
	colMedianOriginal = "median_original"
)

// MedianPatch summarizes a PatchMedian run
type MedianPatch struct {
	Patched    int
	Mismatches int
}

// PatchMedian fills missing medians with the P50 line of the same survey.
// Medians that were present must be unchanged afterwards; any difference
// is logged as median_patch_mismatch and counted, never fatal.
func PatchMedian(ctx context.Context, wide *table.Frame, entries []domain.PercentileEntry, logger *slog.Logger) (*table.Frame, MedianPatch, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats MedianPatch

	p50 := table.New(append(append([]string{}, domain.SurveyKey...), colMedianP50)...)
	for _, e := range P50(entries) {
		r := keyRow(e)
		r[colMedianP50] = table.Num(e.PovertyLine)
		p50.Append(r)
	}

	merged, err := table.Merge(wide, p50, table.MergeOptions{
		On:       domain.SurveyKey,
		How:      table.JoinLeft,
		Validate: table.CardinalityManyToOne,
	})
	if err != nil {
		return nil, stats, fmt.Errorf("merge p50 onto medians: %w", err)
	}

	merged.Apply(colMedianOriginal, func(r table.Row) table.Value { return r.Get(domain.ColMedian) })
	merged.Apply(domain.ColMedian, func(r table.Row) table.Value {
		orig := r.Get(domain.ColMedian)
		if orig.IsNull() && !r.Get(colMedianP50).IsNull() {
			stats.Patched++
			return r.Get(colMedianP50)
		}
		return orig
	})

	for _, r := range merged.Rows() {
		orig, ok := r.Float(colMedianOriginal)
		if !ok {
			continue
		}
		patched, _ := r.Float(domain.ColMedian)
		ratio := patched / orig
		if orig == 0 {
			ratio = 1
			if patched != 0 {
				ratio = math.Inf(1)
			}
		}
		if math.Abs(ratio-1) > 1e-9 {
			stats.Mismatches++
			logger.WarnContext(ctx, "median_patch_mismatch",
				slog.String("entity", r.Text(domain.ColEntity)),
				slog.String("year", r.Text(domain.ColYear)),
				slog.String("welfare_type", r.Text(domain.ColWelfareType)),
				slog.Float64("ratio", ratio))
		}
	}

	logger.InfoContext(ctx, "median patch applied",
		slog.Int("rows", merged.Len()),
		slog.Int("patched", stats.Patched),
		slog.Int("mismatches", stats.Mismatches))

	return merged.Drop(colMedianP50, colMedianOriginal), stats, nil
}
