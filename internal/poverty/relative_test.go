package poverty

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"povcli/internal/pip"
	"povcli/internal/shared/testutil"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

type stubQuerier struct {
	queries []pip.Query
	fail    map[string]bool
	ctxErr  bool
}

func (s *stubQuerier) Query(ctx context.Context, q pip.Query) (*table.Frame, error) {
	s.queries = append(s.queries, q)
	if s.fail[q.Country] {
		return nil, errors.New("retries exhausted")
	}
	f := table.New()
	f.Append(table.Row{
		"country_name":           table.Str("whatever"),
		"reporting_year":         table.Int(2015),
		domain.ColReportingLevel: table.Str(q.ReportingLevel),
		domain.ColWelfareType:    table.Str(q.WelfareType),
		"headcount":              table.Num(q.PovertyLine / 100),
		"poverty_gap":            table.Num(0.01),
		domain.ColPopulation:     table.Num(1000),
	})
	return f, nil
}

func relativeInput() *table.Frame {
	f := table.New()
	chl := medianRow("Chile", table.Num(10))
	chl[colCountryCode] = table.Str("CHL")
	per := medianRow("Peru", table.Num(20))
	per[colCountryCode] = table.Str("PER")
	noMedian := medianRow("Bolivia", table.Null)
	noMedian[colCountryCode] = table.Str("BOL")
	region := table.Row{
		domain.ColEntity: table.Str("World"), domain.ColYear: table.Int(2015),
		domain.ColReportingLevel: table.Str(""), domain.ColWelfareType: table.Str(""),
		domain.ColMedian: table.Num(5), domain.ColScope: table.Str(string(domain.ScopeRegion)),
	}
	for _, r := range []table.Row{chl, per, noMedian, region} {
		f.Append(r)
	}
	return f
}

func TestRelativePoverty_Apply(t *testing.T) {
	q := &stubQuerier{fail: map[string]bool{"PER": true}}
	logger, logs := testutil.NewLogCapture()
	rp := NewRelativePoverty(q, 2017, []int{40, 50, 60}, logger)

	out, err := rp.Apply(context.Background(), relativeInput())
	require.NoError(t, err)

	// Chile and Peru are queried three times each; Bolivia and World never
	require.Len(t, q.queries, 6)
	first := q.queries[0]
	assert.Equal(t, "CHL", first.Country)
	assert.Equal(t, "2015", first.Year)
	assert.Equal(t, "income", first.WelfareType)
	assert.Equal(t, "national", first.ReportingLevel)
	assert.False(t, first.FillGaps)
	assert.InDelta(t, 4.0, first.PovertyLine, 1e-9)

	chile := out.Row(0)
	assert.InDelta(t, 4.0, chile.Get("headcount_ratio_40_median").FloatOrNaN(), 1e-9)
	assert.InDelta(t, 6.0, chile.Get("headcount_ratio_60_median").FloatOrNaN(), 1e-9)
	assert.Equal(t, "40", chile.Text("headcount_40_median"))

	peru := out.Row(1)
	assert.True(t, peru.Get("headcount_ratio_40_median").IsNull(), "failed queries leave nulls")
	assert.True(t, out.Row(3).Get("headcount_ratio_50_median").IsNull())

	for _, c := range rp.Columns() {
		assert.True(t, out.HasColumn(c), c)
	}

	warn := testutil.AssertLogged(t, logs, slog.LevelWarn, "relative poverty query failed")
	assert.Equal(t, "Peru", warn.Attrs["entity"])
	assert.Equal(t, "relative_poverty", warn.Attrs["component"])
	assert.Len(t, logs.Find(slog.LevelWarn, "relative poverty query failed"), 3)

	summary := testutil.AssertLogged(t, logs, slog.LevelInfo, "relative poverty measured")
	assert.Equal(t, int64(6), summary.Attrs["queries"])
	assert.Equal(t, int64(3), summary.Attrs["failed"])
}

func TestRelativePoverty_MissingWelfareTypeIsStillACountry(t *testing.T) {
	row := medianRow("Ecuador", table.Num(10))
	row[colCountryCode] = table.Str("ECU")
	row[domain.ColWelfareType] = table.Null
	row[domain.ColScope] = table.Str(string(domain.ScopeCountry))
	wide := table.New()
	wide.Append(row)

	q := &stubQuerier{}
	out, err := NewRelativePoverty(q, 2017, []int{40}, nil).Apply(context.Background(), wide)
	require.NoError(t, err)

	require.Len(t, q.queries, 1)
	assert.Equal(t, "ECU", q.queries[0].Country)
	assert.InDelta(t, 4.0, out.Row(0).Get("headcount_ratio_40_median").FloatOrNaN(), 1e-9)
}

func TestRelativePoverty_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := &stubQuerier{fail: map[string]bool{"CHL": true}}
	_, err := NewRelativePoverty(q, 2017, []int{50}, nil).Apply(ctx, relativeInput())
	assert.ErrorIs(t, err, context.Canceled)
}
