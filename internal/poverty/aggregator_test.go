package poverty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"povcli/internal/pip"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// fakeSource serves a fixed headcount fraction per (entity, line cents)
type fakeSource struct {
	headcounts map[string]map[int]float64
	regions    map[int]float64
	calls      []int
}

func (s *fakeSource) CountryData(_ context.Context, line, _ int) (*pip.CountrySet, error) {
	s.calls = append(s.calls, line)
	f := table.New(domain.SurveyKey...)
	for _, entity := range []string{"Chile", "Peru"} {
		hc, ok := s.headcounts[entity][line]
		if !ok {
			continue
		}
		f.Append(table.Row{
			domain.ColEntity:         table.Str(entity),
			domain.ColYear:           table.Int(2017),
			domain.ColReportingLevel: table.Str("national"),
			domain.ColWelfareType:    table.Str("income"),
			"headcount":              table.Num(hc),
			"poverty_gap":            table.Num(hc / 2),
			"poverty_severity":       table.Num(hc / 4),
			"watts":                  table.Num(hc / 3),
			domain.ColPopulation:     table.Num(1000),
			domain.ColMean:           table.Num(10),
		})
	}
	return &pip.CountrySet{Combined: f, Income: f, Consumption: table.New()}, nil
}

func (s *fakeSource) RegionData(_ context.Context, line, _ int) (*table.Frame, error) {
	f := table.New(domain.ColEntity, domain.ColYear)
	f.Append(table.Row{
		domain.ColEntity:         table.Str("World"),
		domain.ColYear:           table.Int(2017),
		domain.ColReportingLevel: table.Str(""),
		domain.ColWelfareType:    table.Str(""),
		domain.ColScope:          table.Str(string(domain.ScopeRegion)),
		"headcount":              table.Num(s.regions[line]),
		"poverty_gap":            table.Num(0.01),
		domain.ColPopulation:     table.Num(7e9),
		"pop_in_poverty":         table.Num(1),
	})
	return f, nil
}

func TestMeasure(t *testing.T) {
	raw := table.New("headcount", "poverty_gap", "poverty_severity", "watts", domain.ColPopulation)
	raw.Append(table.Row{
		"headcount":          table.Num(0.32),
		"poverty_gap":        table.Num(0.1),
		"poverty_severity":   table.Num(0.05),
		"watts":              table.Num(0.2),
		domain.ColPopulation: table.Num(1000),
	})

	f := Measure(raw, 2.15)
	r := f.Row(0)

	ratio, _ := r.Float(domain.HeadcountRatio)
	assert.InDelta(t, 32.0, ratio, 1e-9)
	hc, _ := r.Float(domain.Headcount)
	assert.Equal(t, 320.0, hc)
	total, _ := r.Float(domain.TotalShortfall)
	assert.InDelta(t, 0.1*2.15*1000, total, 1e-9)
	avg, _ := r.Float(domain.AvgShortfall)
	assert.InDelta(t, total/320, avg, 1e-9)
	igr, _ := r.Float(domain.IncomeGapRatio)
	assert.InDelta(t, avg/2.15*100, igr, 1e-9)
	gap, _ := r.Float(domain.PovertyGapIndex)
	assert.InDelta(t, 10.0, gap, 1e-9)
	severity, _ := r.Float(domain.PovertySeverity)
	assert.InDelta(t, 5.0, severity, 1e-9)
	watts, _ := r.Float(domain.Watts)
	assert.InDelta(t, 0.2, watts, 1e-9)
	assert.False(t, f.HasColumn("headcount_ratio_right"))
}

func TestMeasure_ZeroHeadcountLeavesAverageMissing(t *testing.T) {
	raw := table.New("headcount", "poverty_gap", domain.ColPopulation)
	raw.Append(table.Row{"headcount": table.Num(0), "poverty_gap": table.Num(0), domain.ColPopulation: table.Num(5e6)})

	r := Measure(raw, 1).Row(0)
	assert.Equal(t, "0", r.Text(domain.Headcount))
	assert.Equal(t, "0", r.Text(domain.TotalShortfall))
	assert.True(t, r.Get(domain.AvgShortfall).IsNull())
	assert.True(t, r.Get(domain.IncomeGapRatio).IsNull())
}

func TestAggregator_KeyIndicators(t *testing.T) {
	src := &fakeSource{
		headcounts: map[string]map[int]float64{
			"Chile": {100: 0.01, 190: 0.02},
			"Peru":  {190: 0.05},
		},
		regions: map[int]float64{100: 0.1, 190: 0.2},
	}

	wide, err := NewAggregator(src, []int{100, 190}, 2011, nil).KeyIndicators(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{100, 190}, src.calls)
	require.Equal(t, 3, wide.Len())

	chile := wide.Row(0)
	assert.Equal(t, "Chile", chile.Text(domain.ColEntity))
	assert.Equal(t, "10", chile.Text("headcount_100"))
	assert.Equal(t, "20", chile.Text("headcount_190"))
	assert.Equal(t, "10", chile.Text(domain.ColMean))

	peru := wide.Row(1)
	assert.Equal(t, "Peru", peru.Text(domain.ColEntity))
	assert.True(t, peru.Get("headcount_100").IsNull())
	assert.Equal(t, "50", peru.Text("headcount_190"))

	world := wide.Row(2)
	assert.Equal(t, "World", world.Text(domain.ColEntity))
	assert.Equal(t, "", world.Text(domain.ColWelfareType))
	assert.InDelta(t, 20.0, world.Get("headcount_ratio_190").FloatOrNaN(), 1e-9)

	assert.False(t, wide.HasColumn("headcount"))
	assert.False(t, wide.HasColumn("pop_in_poverty"))
}

func TestPivot_LengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { Pivot([]*table.Frame{table.New()}, []int{1, 2}, domain.RegionKey) })
}
