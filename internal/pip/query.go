package pip

import (
	"fmt"
	"net/url"
	"strconv"

	"povcli/pkg/contracts/domain"
)

// API endpoints relative to the configured base URL
const (
	countryEndpoint = "pip"
	regionEndpoint  = "pip-grp"
)

// Query parameterizes one request to the statistical API. Exactly one of
// PovertyLine and PopShare is set.
type Query struct {
	Scope domain.Scope `validate:"required,oneof=country region"`
	// PovertyLine is the daily line in dollars
	PovertyLine float64 `validate:"gte=0"`
	// PopShare asks for the line below which this share of people live
	PopShare       float64 `validate:"gte=0,lte=1"`
	Country        string
	Year           string
	WelfareType    string `validate:"omitempty,oneof=all income consumption"`
	ReportingLevel string `validate:"omitempty,oneof=all national urban rural"`
	FillGaps       bool
	PPPVersion     int `validate:"required,oneof=2011 2017"`
}

// ForLine builds a query for every country or region at a line in cents
func ForLine(scope domain.Scope, lineCents, ppp int) Query {
	return Query{
		Scope:       scope,
		PovertyLine: domain.CentsToDollars(lineCents),
		PPPVersion:  ppp,
	}
}

func (q Query) endpoint() string {
	if q.Scope == domain.ScopeRegion {
		return regionEndpoint
	}
	return countryEndpoint
}

func orAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}

// values renders the query string. The version tag, when known, pins the
// data release; otherwise the API picks its latest release for the PPP year.
func (q Query) values(versionTag string) (url.Values, error) {
	if (q.PovertyLine > 0) == (q.PopShare > 0) {
		return nil, fmt.Errorf("query needs exactly one of poverty line and population share")
	}

	v := url.Values{}
	if q.PovertyLine > 0 {
		v.Set("povline", strconv.FormatFloat(q.PovertyLine, 'f', -1, 64))
	} else {
		v.Set("popshare", strconv.FormatFloat(q.PopShare, 'f', -1, 64))
	}
	v.Set("country", orAll(q.Country))
	v.Set("year", orAll(q.Year))
	v.Set("fill_gaps", strconv.FormatBool(q.FillGaps))
	v.Set("ppp_version", strconv.Itoa(q.PPPVersion))
	if versionTag != "" {
		v.Set("version", versionTag)
	}

	if q.Scope == domain.ScopeRegion {
		v.Set("group_by", "wb")
	} else {
		v.Set("welfare_type", orAll(q.WelfareType))
		v.Set("reporting_level", orAll(q.ReportingLevel))
	}
	v.Set("format", "csv")
	return v, nil
}
