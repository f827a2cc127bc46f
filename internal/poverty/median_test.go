package poverty

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

func medianRow(entity string, median table.Value) table.Row {
	return table.Row{
		domain.ColEntity:         table.Str(entity),
		domain.ColYear:           table.Int(2015),
		domain.ColReportingLevel: table.Str("national"),
		domain.ColWelfareType:    table.Str("income"),
		domain.ColMedian:         median,
	}
}

func p50Entry(entity string, line float64) domain.PercentileEntry {
	return domain.PercentileEntry{
		Entity: entity, Year: 2015, ReportingLevel: "national", WelfareType: "income",
		Target: 50, PovertyLine: line,
	}
}

func TestPatchMedian(t *testing.T) {
	wide := table.New()
	wide.Append(medianRow("Chile", table.Num(12.5)))
	wide.Append(medianRow("Peru", table.Null))
	wide.Append(medianRow("Bolivia", table.Null))

	entries := []domain.PercentileEntry{
		p50Entry("Chile", 12.4),
		p50Entry("Peru", 8.3),
		{Entity: "Peru", Year: 2015, ReportingLevel: "national", WelfareType: "income", Target: 40, PovertyLine: 6},
	}

	var logs bytes.Buffer
	out, stats, err := PatchMedian(context.Background(), wide, entries, slog.New(slog.NewJSONHandler(&logs, nil)))
	require.NoError(t, err)

	assert.Equal(t, MedianPatch{Patched: 1, Mismatches: 0}, stats)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, "12.5", out.Row(0).Text(domain.ColMedian), "present medians are never replaced")
	assert.Equal(t, "8.3", out.Row(1).Text(domain.ColMedian))
	assert.True(t, out.Row(2).Get(domain.ColMedian).IsNull())
	assert.False(t, out.HasColumn(colMedianP50))
	assert.False(t, out.HasColumn(colMedianOriginal))
	assert.NotContains(t, logs.String(), "median_patch_mismatch")
}

func TestPatchMedian_DuplicateP50IsRejected(t *testing.T) {
	wide := table.New()
	wide.Append(medianRow("Chile", table.Null))

	_, _, err := PatchMedian(context.Background(), wide,
		[]domain.PercentileEntry{p50Entry("Chile", 1), p50Entry("Chile", 2)}, nil)

	var cerr *table.CardinalityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "right", cerr.Side)
}
