package domain

import (
	"fmt"
	"strconv"
)

// Scope selects the entity granularity of a statistical query. Fetched rows
// carry it in the ColScope column.
type Scope string

const (
	ScopeCountry Scope = "country"
	ScopeRegion  Scope = "region"
)

// WelfareType is the household welfare concept a survey measures
type WelfareType string

const (
	WelfareIncome      WelfareType = "income"
	WelfareConsumption WelfareType = "consumption"
)

// Raw and working column names shared across pipeline stages
const (
	ColEntity         = "Entity"
	ColYear           = "Year"
	ColReportingLevel = "reporting_level"
	ColWelfareType    = "welfare_type"
	ColScope          = "scope"
	ColPopulation     = "reporting_pop"
	ColMean           = "mean"
	ColMedian         = "median"
	ColPovertyLine    = "poverty_line"

	// Public index column names
	ColCountry    = "country"
	ColYearPublic = "year"
	ColPPPVersion = "ppp_version"
)

// SurveyKey identifies one survey observation of a country
var SurveyKey = []string{ColEntity, ColYear, ColReportingLevel, ColWelfareType}

// RegionKey identifies one regional aggregate
var RegionKey = []string{ColEntity, ColYear}

// PublicIndex is the unique index of the published dataset
var PublicIndex = []string{ColCountry, ColYearPublic, ColReportingLevel, ColWelfareType, ColPPPVersion}

// Poverty-line measurement names. Each is published once per line with the
// line suffix, e.g. headcount_ratio_215.
const (
	HeadcountRatio  = "headcount_ratio"
	Headcount       = "headcount"
	PovertyGapIndex = "poverty_gap_index"
	PovertySeverity = "poverty_severity"
	Watts           = "watts"
	TotalShortfall  = "total_shortfall"
	AvgShortfall    = "avg_shortfall"
	IncomeGapRatio  = "income_gap_ratio"
)

// Measurements lists the per-line measurement columns in output order
var Measurements = []string{
	HeadcountRatio,
	Headcount,
	PovertyGapIndex,
	PovertySeverity,
	Watts,
	TotalShortfall,
	AvgShortfall,
	IncomeGapRatio,
}

// PercentMeasurements are the fractions scaled to percentages
var PercentMeasurements = []string{HeadcountRatio, PovertyGapIndex, PovertySeverity, IncomeGapRatio}

// LineSuffix renders a poverty line in cents as a column suffix
func LineSuffix(cents int) string {
	return strconv.Itoa(cents)
}

// LineColumn names a measurement at a poverty line, e.g. headcount_215
func LineColumn(measure string, cents int) string {
	return measure + "_" + LineSuffix(cents)
}

// RelativeColumn names a measurement at a share of the median, e.g.
// headcount_ratio_40_median
func RelativeColumn(measure string, share int) string {
	return fmt.Sprintf("%s_%d_median", measure, share)
}

// CentsToDollars converts a poverty line in cents to the API's dollar unit
func CentsToDollars(cents int) float64 {
	return float64(cents) / 100
}

// DecileShare names the welfare share column of decile n (1-10)
func DecileShare(n int) string { return fmt.Sprintf("decile%d_share", n) }

// DecileAvg names the average welfare column of decile n
func DecileAvg(n int) string { return fmt.Sprintf("decile%d_avg", n) }

// DecileThreshold names the upper welfare threshold of decile n (1-9)
func DecileThreshold(n int) string { return fmt.Sprintf("decile%d_thr", n) }

// QuintileShare names the welfare share column of quintile n (1-5)
func QuintileShare(n int) string { return fmt.Sprintf("quintile%d_share", n) }

// Inequality ratio columns
const (
	PalmaRatio = "palma_ratio"
	S80S20     = "s80_s20_ratio"
	P90P10     = "p90_p10_ratio"
	P90P50     = "p90_p50_ratio"
	P50P10     = "p50_p10_ratio"
)
