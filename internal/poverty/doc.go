// Package poverty turns raw PIP tables into the wide poverty and
// inequality table published for one PPP vintage.
//
// The stages run in a fixed order, each replacing the working table:
//
//	KeyIndicators   one column group per poverty line, countries and regions
//	BuildGrid/Match headcounts over a dense line grid, nearest line per percentile
//	PatchMedian     fill missing medians from the P50 match
//	Relative        poverty at shares of the median
//	Derive          above/stacked bands, decile averages, inequality ratios
//	FilterQuality   drop country rows that fail the consistency checks
//
// Region aggregates carry empty reporting_level and welfare_type and skip
// the per-survey stages.
package poverty
