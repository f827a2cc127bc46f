package table

import (
	"sort"
	"strings"
)

// Row maps column names to cells. An absent column reads as null.
type Row map[string]Value

// Get returns the cell for col, or Null.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Null
}

// Float returns the numeric content of col.
func (r Row) Float(col string) (float64, bool) {
	return r.Get(col).Float()
}

// Text returns the string form of col.
func (r Row) Text(col string) string {
	return r.Get(col).String()
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Frame is an ordered set of columns over a list of rows.
// Frames are treated as values by the pipeline: every transformation
// returns a new frame and leaves its receiver untouched, except for the
// explicitly mutating Append, Set and Apply.
type Frame struct {
	columns []string
	known   map[string]struct{}
	rows    []Row
}

// New creates an empty frame with the given columns.
func New(columns ...string) *Frame {
	f := &Frame{known: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		f.AddColumn(c)
	}
	return f
}

// Columns returns a copy of the column order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// HasColumn reports whether col is part of the frame.
func (f *Frame) HasColumn(col string) bool {
	_, ok := f.known[col]
	return ok
}

// AddColumn registers col at the end of the column order if it is new.
func (f *Frame) AddColumn(col string) {
	if _, ok := f.known[col]; ok {
		return
	}
	f.known[col] = struct{}{}
	f.columns = append(f.columns, col)
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Row returns row i. The row is shared with the frame.
func (f *Frame) Row(i int) Row { return f.rows[i] }

// Rows returns the underlying rows in order.
func (f *Frame) Rows() []Row { return f.rows }

// Append adds a row. Columns not yet known are registered in sorted order
// so the resulting column order is deterministic.
func (f *Frame) Append(r Row) {
	var fresh []string
	for k := range r {
		if !f.HasColumn(k) {
			fresh = append(fresh, k)
		}
	}
	sort.Strings(fresh)
	for _, c := range fresh {
		f.AddColumn(c)
	}
	f.rows = append(f.rows, r)
}

// Set writes a single cell, registering the column when needed.
func (f *Frame) Set(i int, col string, v Value) {
	f.AddColumn(col)
	f.rows[i][col] = v
}

// Apply computes col for every row.
func (f *Frame) Apply(col string, fn func(Row) Value) {
	f.AddColumn(col)
	for _, r := range f.rows {
		r[col] = fn(r)
	}
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.columns...)
	out.rows = make([]Row, len(f.rows))
	for i, r := range f.rows {
		out.rows[i] = r.Clone()
	}
	return out
}

// Filter returns the rows for which keep is true, in order.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	out := New(f.columns...)
	for _, r := range f.rows {
		if keep(r) {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out
}

// Mask returns the rows whose flag in keep is true, in order.
func (f *Frame) Mask(keep []bool) *Frame {
	out := New(f.columns...)
	for i, r := range f.rows {
		if i < len(keep) && keep[i] {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out
}

// SortStable returns a copy sorted by less, preserving the order of equal rows.
func (f *Frame) SortStable(less func(a, b Row) bool) *Frame {
	out := f.Clone()
	sort.SliceStable(out.rows, func(i, j int) bool {
		return less(out.rows[i], out.rows[j])
	})
	return out
}

// SortBy returns a copy stably sorted by the given columns, ascending.
// Numbers sort before strings and nulls sort last.
func (f *Frame) SortBy(cols ...string) *Frame {
	return f.SortStable(func(a, b Row) bool {
		for _, c := range cols {
			if cmp := Compare(a.Get(c), b.Get(c)); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
}

// Compare orders two cells: numbers ascending, then strings, then nulls.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		rank := func(k kind) int {
			switch k {
			case kindNumber:
				return 0
			case kindString:
				return 1
			default:
				return 2
			}
		}
		return rank(a.kind) - rank(b.kind)
	}
	switch a.kind {
	case kindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
	case kindString:
		return strings.Compare(a.str, b.str)
	}
	return 0
}

// Select returns the given columns in the given order. Columns absent from
// the frame are created as nulls.
func (f *Frame) Select(cols ...string) *Frame {
	out := New(cols...)
	out.rows = make([]Row, len(f.rows))
	for i, r := range f.rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		out.rows[i] = nr
	}
	return out
}

// Drop returns the frame without the given columns.
func (f *Frame) Drop(cols ...string) *Frame {
	drop := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		drop[c] = struct{}{}
	}
	keep := make([]string, 0, len(f.columns))
	for _, c := range f.columns {
		if _, ok := drop[c]; !ok {
			keep = append(keep, c)
		}
	}
	return f.Select(keep...)
}

// DropWhere drops every column for which match returns true.
func (f *Frame) DropWhere(match func(col string) bool) *Frame {
	var cols []string
	for _, c := range f.columns {
		if match(c) {
			cols = append(cols, c)
		}
	}
	return f.Drop(cols...)
}

// Rename returns a copy with columns renamed according to names.
func (f *Frame) Rename(names map[string]string) *Frame {
	rename := func(c string) string {
		if n, ok := names[c]; ok {
			return n
		}
		return c
	}
	out := New()
	for _, c := range f.columns {
		out.AddColumn(rename(c))
	}
	out.rows = make([]Row, len(f.rows))
	for i, r := range f.rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[rename(k)] = v
		}
		out.rows[i] = nr
	}
	return out
}

// Concat stacks frames vertically, preserving append order. The result has
// the union of all columns, in first-seen order.
func Concat(frames ...*Frame) *Frame {
	out := New()
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		for _, c := range fr.columns {
			out.AddColumn(c)
		}
		for _, r := range fr.rows {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out
}

// KeyOf joins the string form of the key columns of r.
func KeyOf(r Row, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = r.Get(k).String()
	}
	return strings.Join(parts, "\x1f")
}

// Duplicated flags every row whose key has already appeared earlier.
func (f *Frame) Duplicated(keys ...string) []bool {
	seen := make(map[string]struct{}, len(f.rows))
	out := make([]bool, len(f.rows))
	for i, r := range f.rows {
		k := KeyOf(r, keys)
		if _, dup := seen[k]; dup {
			out[i] = true
			continue
		}
		seen[k] = struct{}{}
	}
	return out
}

// DuplicateKeys returns each key that appears more than once, in order of
// second appearance. Keys are rendered with "|" between components.
func (f *Frame) DuplicateKeys(keys ...string) []string {
	var out []string
	reported := make(map[string]struct{})
	for i, dup := range f.Duplicated(keys...) {
		if !dup {
			continue
		}
		k := KeyOf(f.rows[i], keys)
		if _, ok := reported[k]; ok {
			continue
		}
		reported[k] = struct{}{}
		out = append(out, strings.ReplaceAll(k, "\x1f", "|"))
	}
	return out
}

// GroupIndex maps each key to the indices of its rows, and returns the keys
// in order of first appearance.
func (f *Frame) GroupIndex(keys ...string) ([]string, map[string][]int) {
	groups := make(map[string][]int)
	var order []string
	for i, r := range f.rows {
		k := KeyOf(r, keys)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	return order, groups
}
