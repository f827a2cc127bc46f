package table

import (
	"fmt"
	"strings"
)

// JoinHow selects which rows a merge keeps.
type JoinHow string

const (
	JoinLeft  JoinHow = "left"
	JoinInner JoinHow = "inner"
)

// Cardinality is the expected key relationship between the two sides.
type Cardinality string

const (
	CardinalityAny       Cardinality = ""
	CardinalityOneToOne  Cardinality = "one_to_one"
	CardinalityManyToOne Cardinality = "many_to_one"
	CardinalityOneToMany Cardinality = "one_to_many"
)

// MergeOptions configures Merge.
type MergeOptions struct {
	On       []string
	How      JoinHow
	Validate Cardinality
	// Suffix is appended to right-hand columns that collide with left-hand
	// non-key columns. Defaults to "_right".
	Suffix string
}

// CardinalityError reports a key that breaks the declared merge cardinality.
type CardinalityError struct {
	Side     string
	Expected Cardinality
	Keys     []string
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("merge keys are not unique in %s dataset (expected %s): %s",
		e.Side, e.Expected, strings.Join(e.Keys, ", "))
}

// Merge joins left and right on opts.On. Row order follows the left frame,
// and for each left row the matching right rows in their own order.
func Merge(left, right *Frame, opts MergeOptions) (*Frame, error) {
	if len(opts.On) == 0 {
		return nil, fmt.Errorf("merge requires at least one key column")
	}
	if opts.How == "" {
		opts.How = JoinLeft
	}
	if opts.Suffix == "" {
		opts.Suffix = "_right"
	}

	if opts.Validate == CardinalityOneToOne || opts.Validate == CardinalityOneToMany {
		if dups := left.DuplicateKeys(opts.On...); len(dups) > 0 {
			return nil, &CardinalityError{Side: "left", Expected: opts.Validate, Keys: dups}
		}
	}
	if opts.Validate == CardinalityOneToOne || opts.Validate == CardinalityManyToOne {
		if dups := right.DuplicateKeys(opts.On...); len(dups) > 0 {
			return nil, &CardinalityError{Side: "right", Expected: opts.Validate, Keys: dups}
		}
	}

	isKey := make(map[string]bool, len(opts.On))
	for _, k := range opts.On {
		isKey[k] = true
	}
	rightName := make(map[string]string)
	out := New(left.columns...)
	for _, c := range right.columns {
		if isKey[c] {
			continue
		}
		name := c
		if left.HasColumn(c) {
			name = c + opts.Suffix
		}
		rightName[c] = name
		out.AddColumn(name)
	}

	_, index := right.GroupIndex(opts.On...)
	for _, lr := range left.rows {
		matches := index[KeyOf(lr, opts.On)]
		if len(matches) == 0 {
			if opts.How == JoinLeft {
				out.rows = append(out.rows, lr.Clone())
			}
			continue
		}
		for _, ri := range matches {
			nr := lr.Clone()
			for c, v := range right.rows[ri] {
				if isKey[c] {
					continue
				}
				nr[rightName[c]] = v
			}
			out.rows = append(out.rows, nr)
		}
	}
	return out, nil
}
