package domain

// PercentileEntry is the candidate poverty line whose headcount ratio lies
// closest to a target percentile for one survey.
type PercentileEntry struct {
	Entity         string  `json:"entity"`
	Year           int     `json:"year"`
	ReportingLevel string  `json:"reporting_level"`
	WelfareType    string  `json:"welfare_type"`
	Target         int     `json:"target_percentile" validate:"min=1,max=99"`
	PovertyLine    float64 `json:"poverty_line"`
	Headcount      float64 `json:"headcount"`
	Distance       float64 `json:"distance"`
}

// IsDecile reports whether the entry's target is a decile boundary
func (p PercentileEntry) IsDecile() bool {
	return p.Target%10 == 0
}

// Decile returns the decile number of a decile entry (1-9)
func (p PercentileEntry) Decile() int {
	return p.Target / 10
}
