package standardize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCodebook(t *testing.T) {
	cb, err := ReadCodebook(strings.NewReader("\ufeffcolumn,description\ncountry,Entity name\nyear,Survey year\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"country", "year"}, cb.Columns)
	assert.Equal(t, "Survey year", cb.Descriptions["year"])
	assert.True(t, cb.Has("country"))
	assert.False(t, cb.Has("gini"))
}

func TestReadCodebook_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "no column header", input: "name\ncountry\n"},
		{name: "duplicate", input: "column\ncountry\ncountry\n"},
		{name: "no columns", input: "column\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCodebook(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadEntityMapping(t *testing.T) {
	input := "Country,Our World In Data Name\n" +
		"Congo, Dem. Rep.,Democratic Republic of Congo\n"
	_, err := ReadEntityMapping(strings.NewReader(input))
	assert.Error(t, err, "unquoted comma gives a ragged record")

	input = "Country,Our World In Data Name\n" +
		"\"Congo, Dem. Rep.\",Democratic Republic of Congo\n" +
		"Chile,Chile\n" +
		",Nowhere\n"
	m, err := ReadEntityMapping(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, EntityMapping{
		"Congo, Dem. Rep.": "Democratic Republic of Congo",
		"Chile":            "Chile",
	}, m)
}

func TestReadEntityMapping_MissingHeader(t *testing.T) {
	_, err := ReadEntityMapping(strings.NewReader("Country,Name\nChile,Chile\n"))
	assert.Error(t, err)
}
