package poverty

import (
	"fmt"

	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Raw API measurement names
const (
	rawHeadcount    = "headcount"
	rawPovertyGap   = "poverty_gap"
	rawPopInPoverty = "pop_in_poverty"
)

// isRegion reports whether r is a regional aggregate, going by the scope
// tag set when the rows were fetched.
func isRegion(r table.Row) bool {
	return r.Text(domain.ColScope) == string(domain.ScopeRegion)
}

func num(r table.Row, col string) float64 {
	return r.Get(col).FloatOrNaN()
}

// StackedBelow names the population below the lowest line
func StackedBelow(measure string, cents int) string {
	return fmt.Sprintf("%s_stacked_below_%d", measure, cents)
}

// StackedBetween names the population between two lines
func StackedBetween(measure string, from, to int) string {
	return fmt.Sprintf("%s_stacked_between_%d_%d", measure, from, to)
}

// StackedAbove names the population above the highest line
func StackedAbove(measure string, cents int) string {
	return fmt.Sprintf("%s_stacked_above_%d", measure, cents)
}

// Above names the population above a line
func Above(measure string, cents int) string {
	return fmt.Sprintf("%s_above_%d", measure, cents)
}

// stackedColumns lists the adjacent stacked bands of measure, in line order
func stackedColumns(measure string, lines []int) []string {
	if len(lines) == 0 {
		return nil
	}
	cols := []string{StackedBelow(measure, lines[0])}
	for i := 1; i < len(lines); i++ {
		cols = append(cols, StackedBetween(measure, lines[i-1], lines[i]))
	}
	return append(cols, StackedAbove(measure, lines[len(lines)-1]))
}
