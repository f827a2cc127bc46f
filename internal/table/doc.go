// Package table provides the small in-memory tabular model the dataset
// pipeline works on: ordered columns, rows of nullable cells, and the
// reshaping operations the pipeline needs (concat, stable sort, merge with
// cardinality checks, first-per-key selection).
//
// A cell is a number, a string or null. Arithmetic producing NaN is stored
// as null, so a derived column computed from a missing input is itself
// missing.
//
// Example:
//
//	left := table.New("Entity", "Year", "mean")
//	left.Append(table.Row{"Entity": table.Str("Chile"), "Year": table.Int(2017), "mean": table.Num(12.5)})
//	merged, err := table.Merge(left, p50, table.MergeOptions{
//	    On:       []string{"Entity", "Year"},
//	    Validate: table.CardinalityManyToOne,
//	})
package table
