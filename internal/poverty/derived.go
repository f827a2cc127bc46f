package poverty

import (
	"povcli/internal/config"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Derive adds the indicators that are not tied to a single poverty line.
// lines must be ascending; jump bands name extra stacked bands between two
// non-adjacent configured lines.
func Derive(wide *table.Frame, lines []int, jumps []config.JumpBand) *table.Frame {
	f := wide.Clone()
	addAbove(f, lines)
	addStacked(f, lines)
	addJumpBands(f, jumps)
	addDecileAverages(f)
	addQuintileShares(f)
	addInequalityRatios(f)
	return f
}

func addAbove(f *table.Frame, lines []int) {
	for _, l := range lines {
		f.Apply(Above(domain.Headcount, l), func(r table.Row) table.Value {
			return table.Num(num(r, domain.ColPopulation) - num(r, domain.LineColumn(domain.Headcount, l)))
		})
		f.Apply(Above(domain.HeadcountRatio, l), func(r table.Row) table.Value {
			return table.Num(100 - num(r, domain.LineColumn(domain.HeadcountRatio, l)))
		})
	}
}

// addStacked splits the population into bands between consecutive lines:
// below the lowest, between each adjacent pair, above the highest.
func addStacked(f *table.Frame, lines []int) {
	if len(lines) == 0 {
		return
	}
	first, last := lines[0], lines[len(lines)-1]

	f.Apply(StackedBelow(domain.Headcount, first), func(r table.Row) table.Value {
		return r.Get(domain.LineColumn(domain.Headcount, first))
	})
	f.Apply(StackedBelow(domain.HeadcountRatio, first), func(r table.Row) table.Value {
		return r.Get(domain.LineColumn(domain.HeadcountRatio, first))
	})

	for i := 1; i < len(lines); i++ {
		addBetween(f, lines[i-1], lines[i])
	}

	f.Apply(StackedAbove(domain.Headcount, last), func(r table.Row) table.Value {
		return table.Num(num(r, domain.ColPopulation) - num(r, domain.LineColumn(domain.Headcount, last)))
	})
	f.Apply(StackedAbove(domain.HeadcountRatio, last), func(r table.Row) table.Value {
		return table.Num(100 - num(r, domain.LineColumn(domain.HeadcountRatio, last)))
	})
}

func addBetween(f *table.Frame, from, to int) {
	for _, m := range []string{domain.Headcount, domain.HeadcountRatio} {
		f.Apply(StackedBetween(m, from, to), func(r table.Row) table.Value {
			return table.Num(num(r, domain.LineColumn(m, to)) - num(r, domain.LineColumn(m, from)))
		})
	}
}

func addJumpBands(f *table.Frame, jumps []config.JumpBand) {
	for _, j := range jumps {
		addBetween(f, j.FromCents, j.ToCents)
	}
}

// addDecileAverages computes decileN_avg = share * mean / 0.1 from the
// fractional shares, then converts the shares to percentages.
func addDecileAverages(f *table.Frame) {
	for n := 1; n <= 10; n++ {
		share := domain.DecileShare(n)
		if !f.HasColumn(share) {
			continue
		}
		f.Apply(domain.DecileAvg(n), func(r table.Row) table.Value {
			return table.Num(num(r, share) * num(r, domain.ColMean) / 0.1)
		})
		f.Apply(share, func(r table.Row) table.Value {
			return table.Num(num(r, share) * 100)
		})
	}
}

func addQuintileShares(f *table.Frame) {
	for k := 1; k <= 5; k++ {
		lo, hi := domain.DecileShare(2*k-1), domain.DecileShare(2*k)
		f.Apply(domain.QuintileShare(k), func(r table.Row) table.Value {
			return table.Num(num(r, lo) + num(r, hi))
		})
	}
}

func addInequalityRatios(f *table.Frame) {
	d := func(r table.Row, n int) float64 { return num(r, domain.DecileShare(n)) }
	thr := func(r table.Row, n int) float64 { return num(r, domain.DecileThreshold(n)) }

	f.Apply(domain.PalmaRatio, func(r table.Row) table.Value {
		return table.Num(d(r, 10) / (d(r, 1) + d(r, 2) + d(r, 3) + d(r, 4)))
	})
	f.Apply(domain.S80S20, func(r table.Row) table.Value {
		return table.Num((d(r, 9) + d(r, 10)) / (d(r, 1) + d(r, 2)))
	})
	f.Apply(domain.P90P10, func(r table.Row) table.Value {
		return table.Num(thr(r, 9) / thr(r, 1))
	})
	f.Apply(domain.P90P50, func(r table.Row) table.Value {
		return table.Num(thr(r, 9) / thr(r, 5))
	})
	f.Apply(domain.P50P10, func(r table.Row) table.Value {
		return table.Num(thr(r, 5) / thr(r, 1))
	})
}
